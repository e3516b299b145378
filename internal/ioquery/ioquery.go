// Package ioquery turns user queries into executable index queries. It
// validates quoting and nesting and rewrites taxon searches to canonical
// names.
package ioquery

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/gnames/gnexport/pkg/export"
	"github.com/gnames/gnexport/pkg/parserpool"
)

// TaxonField is the index field that keeps canonical names of records.
const TaxonField = "taxon_name"

var taxaRe = regexp.MustCompile(`\btaxa:("[^"]*"|[^\s()]+)`)

type normalizer struct {
	pool parserpool.Pool
}

// New creates a Normalizer. If pool is nil taxa: clauses are rewritten
// without canonicalisation.
func New(pool parserpool.Pool) export.Normalizer {
	return &normalizer{pool: pool}
}

// Normalize collapses whitespace, validates the query and filters, and
// replaces taxa:NAME with a canonical taxon_name clause.
func (n *normalizer) Normalize(
	ctx context.Context,
	query string,
	filters []string,
) (string, []string, error) {
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return "", nil, QueryEmptyError()
	}
	if err := validate(q); err != nil {
		return "", nil, err
	}
	q = n.rewriteTaxa(q)

	var fqs []string
	for _, v := range filters {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		fq := strings.Join(strings.Fields(v), " ")
		if fq == "" {
			continue
		}
		if err := validate(fq); err != nil {
			return "", nil, err
		}
		fqs = append(fqs, n.rewriteTaxa(fq))
	}

	slog.Debug("Normalized query", "query", q, "filters", fqs)
	return q, fqs, nil
}

func (n *normalizer) rewriteTaxa(q string) string {
	return taxaRe.ReplaceAllStringFunc(q, func(s string) string {
		name := strings.Trim(strings.TrimPrefix(s, "taxa:"), `"`)
		if n.pool != nil {
			if can, ok := n.pool.Canonical(name); ok {
				name = can
			}
		}
		return TaxonField + ":" + strconv.Quote(name)
	})
}

func validate(q string) error {
	var parens, brackets int
	var inQuote, escaped bool
	for _, r := range q {
		switch {
		case escaped:
			escaped = false
			continue
		case r == '\\':
			escaped = true
			continue
		case r == '"':
			inQuote = !inQuote
			continue
		case inQuote:
			continue
		}
		switch r {
		case '(':
			parens++
		case ')':
			parens--
		case '[', '{':
			brackets++
		case ']', '}':
			brackets--
		}
		if parens < 0 {
			return QueryMalformedError(q, "unexpected ')'")
		}
		if brackets < 0 {
			return QueryMalformedError(q, "unexpected closing bracket")
		}
	}

	switch {
	case inQuote:
		return QueryMalformedError(q, "unterminated quote")
	case parens != 0:
		return QueryMalformedError(q, "unbalanced parentheses")
	case brackets != 0:
		return QueryMalformedError(q, "unbalanced brackets")
	}
	return nil
}
