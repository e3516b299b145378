package ioexport

import (
	"sync"
)

// signal is a set-once cancellation flag shared by all actors of an
// export. The first Set wins, later calls do not change the cause.
type signal struct {
	once  sync.Once
	done  chan struct{}
	cause error
}

func newSignal() *signal {
	return &signal{done: make(chan struct{})}
}

// Set raises the signal. It returns true for the call that raised it.
func (s *signal) Set(cause error) bool {
	var res bool
	s.once.Do(func() {
		s.cause = cause
		close(s.done)
		res = true
	})
	return res
}

// Done is closed when the signal is raised.
func (s *signal) Done() <-chan struct{} {
	return s.done
}

func (s *signal) IsSet() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Cause is valid after Done is closed.
func (s *signal) Cause() error {
	if !s.IsSet() {
		return nil
	}
	return s.cause
}
