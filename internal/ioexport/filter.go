package ioexport

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gnames/gnexport/pkg/export"
	"github.com/gnames/gnlib"
)

// DateFormat is used for date values of exported records.
const DateFormat = "2006-01-02"

// quotaState keeps remaining per-source quotas of one export.
type quotaState struct {
	mu sync.Mutex
	m  map[string]int
}

func newQuotaState(m map[string]int) *quotaState {
	res := &quotaState{m: make(map[string]int, len(m))}
	for k, v := range m {
		res.m[k] = max(v, 0)
	}
	return res
}

// take decrements the quota of a source if it is positive. Sources
// without a quota are always accepted.
func (q *quotaState) take(source string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	n, ok := q.m[source]
	if !ok {
		return true
	}
	if n <= 0 {
		return false
	}
	q.m[source] = n - 1
	return true
}

// exhausted reports if a source has a quota and nothing is left of it.
func (q *quotaState) exhausted(source string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	n, ok := q.m[source]
	return ok && n <= 0
}

func (q *quotaState) remaining(source string) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n, ok := q.m[source]
	return n, ok
}

// globalCap limits the number of accepted records of an export. A cap
// that is not enforced accepts everything.
type globalCap struct {
	limit    int64
	enforced bool
	n        atomic.Int64
}

func newGlobalCap(limit, totalFound int) *globalCap {
	return &globalCap{
		limit:    int64(limit),
		enforced: limit > 0 && totalFound >= limit,
	}
}

func (c *globalCap) take() bool {
	if !c.enforced {
		return true
	}
	for {
		n := c.n.Load()
		if n >= c.limit {
			return false
		}
		if c.n.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (c *globalCap) reached() bool {
	return c.enforced && c.n.Load() >= c.limit
}

// filter turns documents into records. One filter is made per sub-query
// variant, so the projection is chosen once and not per document.
type filter struct {
	projection []string
	// fallback has public fields of restricted projections, a public value
	// is used when a record has no sensitive one.
	fallback    []string
	assertions  []string
	provenance  []string
	quotaField  string
	assertField string
	quota       *quotaState
	cap         *globalCap
}

// record converts a document. It returns false if the document is
// rejected by quota or cap checks, or has no source.
func (f *filter) record(doc export.Document) (*export.Record, bool) {
	var source string
	if f.quotaField != "" {
		source = first(doc[f.quotaField])
		if source == "" {
			return nil, false
		}
		if !f.quota.take(source) {
			return nil, false
		}
	}
	if !f.cap.take() {
		return nil, false
	}

	vals := make([]string, 0, len(f.projection)+len(f.assertions))
	for i, fld := range f.projection {
		v := first(doc[fld])
		if v == "" && f.fallback[i] != "" {
			v = first(doc[f.fallback[i]])
		}
		vals = append(vals, v)
	}
	if len(f.assertions) > 0 {
		present := assertionSet(doc[f.assertField])
		for _, a := range f.assertions {
			_, ok := present[a]
			vals = append(vals, strconv.FormatBool(ok))
		}
	}

	var prov []string
	for _, fld := range f.provenance {
		if v := first(doc[fld]); v != "" {
			prov = append(prov, v)
		}
	}
	return &export.Record{Values: vals, Provenance: prov}, true
}

func assertionSet(v any) map[string]struct{} {
	res := make(map[string]struct{})
	switch vs := v.(type) {
	case []any:
		for _, a := range vs {
			res[format(a)] = struct{}{}
		}
	case []string:
		for _, a := range vs {
			res[a] = struct{}{}
		}
	case nil:
	default:
		res[format(vs)] = struct{}{}
	}
	return res
}

// first returns the first value of a multi-valued field as a string.
func first(v any) string {
	switch vs := v.(type) {
	case []any:
		if len(vs) == 0 {
			return ""
		}
		return format(vs[0])
	case []string:
		if len(vs) == 0 {
			return ""
		}
		return gnlib.FixUtf8(vs[0])
	default:
		return format(v)
	}
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return gnlib.FixUtf8(t)
	case time.Time:
		return t.Format(DateFormat)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return gnlib.FixUtf8(fmt.Sprint(t))
	}
}

// clause builds a filter clause for a field value, quoting values that
// are not plain terms.
func clause(field, value string) string {
	if value == "" || strings.ContainsAny(value, " \t\"():[]{}*?\\") {
		return field + ":" + strconv.Quote(value)
	}
	return field + ":" + value
}
