package ioexport

// State is a stage of the export life cycle.
type State int32

const (
	Planning State = iota
	Running
	Draining
	Aborting
	Completed
)

var stateNames = [...]string{"planning", "running", "draining", "aborting", "completed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
