package export

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Reserved values of info keys in a stats snapshot. Real counters are never
// negative.
const (
	InfoFieldsValue  int64 = -1
	InfoHeadersValue int64 = -2
)

// Stats counts delivered records per provenance identifier. It is safe for
// concurrent use.
type Stats struct {
	m sync.Map // string -> *atomic.Int64
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{}
}

// Inc increments the counter of a key by one.
func (s *Stats) Inc(key string) {
	s.Add(key, 1)
}

// Add increments the counter of a key. Concurrent first updates of a new key
// converge on one counter.
func (s *Stats) Add(key string, n int64) {
	if key == "" {
		return
	}
	if c, ok := s.m.Load(key); ok {
		c.(*atomic.Int64).Add(n)
		return
	}
	c, _ := s.m.LoadOrStore(key, new(atomic.Int64))
	c.(*atomic.Int64).Add(n)
}

// Get returns the current value of a counter.
func (s *Stats) Get(key string) int64 {
	if c, ok := s.m.Load(key); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}

// Snapshot copies all counters into a plain map.
func (s *Stats) Snapshot() map[string]int64 {
	res := make(map[string]int64)
	s.m.Range(func(k, v any) bool {
		res[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	return res
}

// InfoFieldsKey returns the reserved stats key listing output fields.
func InfoFieldsKey(fields []string) string {
	return "infoFields," + strings.Join(fields, ",")
}

// InfoHeadersKey returns the reserved stats key listing output headers.
func InfoHeadersKey(headers []string) string {
	return "infoHeaders," + strings.Join(headers, ",")
}

// IsInfoKey reports if a stats entry is a reserved info entry.
func IsInfoKey(key string, val int64) bool {
	return val < 0 &&
		(strings.HasPrefix(key, "infoFields,") ||
			strings.HasPrefix(key, "infoHeaders,"))
}

// WithInfo returns a snapshot of stats extended with reserved info keys.
func (s *Stats) WithInfo(fields, headers []string) map[string]int64 {
	res := s.Snapshot()
	res[InfoFieldsKey(fields)] = InfoFieldsValue
	res[InfoHeadersKey(headers)] = InfoHeadersValue
	return res
}
