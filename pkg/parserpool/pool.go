// Package parserpool provides a pool of gnparser instances. The pool
// is used to canonicalise scientific names found in export queries.
package parserpool

import (
	"fmt"
	"runtime"

	"github.com/gnames/gnlib/ent/nomcode"
	"github.com/gnames/gnparser"
	"github.com/gnames/gnparser/ent/parsed"
)

// Pool is a set of parsers safe for concurrent use.
type Pool interface {
	// Parse parses a name string using the given nomenclatural code.
	Parse(nameString string, code nomcode.Code) (parsed.Parsed, error)

	// Canonical returns the simple canonical form of a name string. It
	// returns false if the name could not be parsed.
	Canonical(nameString string) (string, bool)

	// Close releases parsers. The pool cannot be used afterwards.
	Close()
}

type pool struct {
	botanicalCh  chan gnparser.GNparser
	zoologicalCh chan gnparser.GNparser
}

// NewPool creates a pool with jobsNum parsers per nomenclatural code.
// Zero jobsNum means runtime.NumCPU().
func NewPool(jobsNum int) Pool {
	if jobsNum <= 0 {
		jobsNum = runtime.NumCPU()
	}

	botanicalCfg := gnparser.NewConfig(gnparser.OptCode(nomcode.Botanical))
	zoologicalCfg := gnparser.NewConfig(gnparser.OptCode(nomcode.Zoological))

	return &pool{
		botanicalCh:  gnparser.NewPool(botanicalCfg, jobsNum),
		zoologicalCh: gnparser.NewPool(zoologicalCfg, jobsNum),
	}
}

func (p *pool) Parse(nameString string, code nomcode.Code) (parsed.Parsed, error) {
	var ch chan gnparser.GNparser
	switch code {
	case nomcode.Botanical:
		ch = p.botanicalCh
	case nomcode.Zoological:
		ch = p.zoologicalCh
	default:
		return parsed.Parsed{}, fmt.Errorf("unsupported nomenclatural code: %v", code)
	}

	parser := <-ch
	res := parser.ParseName(nameString)
	ch <- parser
	return res, nil
}

// Canonical uses botanical code, occurrence records are mostly plants.
func (p *pool) Canonical(nameString string) (string, bool) {
	res, err := p.Parse(nameString, nomcode.Botanical)
	if err != nil || !res.Parsed || res.Canonical == nil {
		return "", false
	}
	return res.Canonical.Simple, true
}

func (p *pool) Close() {
	for _, ch := range []chan gnparser.GNparser{p.botanicalCh, p.zoologicalCh} {
		if ch == nil {
			continue
		}
		close(ch)
		for range ch {
		}
	}
}
