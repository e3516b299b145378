package ioindex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Clause translation supports the subset of Lucene syntax produced by the
// exporter and used in typical download filters:
//
//	*:*
//	field:value  field:"quoted value"  field:pre*  field:*
//	field:[a TO b]  field:[* TO *]
//	-clause  NOT clause  (a OR b)  a AND b  a b
//	bare words matched anywhere in the document

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokLParen
	tokRParen
	tokNot
	tokAnd
	tokOr
)

type token struct {
	kind tokenKind
	text string
}

var errSyntax = errors.New("syntax error")

func tokenize(s string) ([]token, error) {
	var res []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			res = append(res, token{kind: tokLParen})
			i++
		case r == ')':
			res = append(res, token{kind: tokRParen})
			i++
		case r == '-' || r == '!':
			res = append(res, token{kind: tokNot})
			i++
		default:
			j, err := scanTerm(rs, i)
			if err != nil {
				return nil, err
			}
			text := string(rs[i:j])
			switch text {
			case "AND", "&&":
				res = append(res, token{kind: tokAnd})
			case "OR", "||":
				res = append(res, token{kind: tokOr})
			case "NOT":
				res = append(res, token{kind: tokNot})
			default:
				res = append(res, token{kind: tokTerm, text: text})
			}
			i = j
		}
	}
	return res, nil
}

// scanTerm returns the end of a term starting at i. Quoted and bracketed
// parts may contain spaces and parentheses.
func scanTerm(rs []rune, i int) (int, error) {
	for i < len(rs) {
		r := rs[i]
		switch {
		case r == '"':
			i++
			for i < len(rs) && rs[i] != '"' {
				if rs[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(rs) {
				return 0, fmt.Errorf("%w: unterminated quote", errSyntax)
			}
			i++
		case r == '[' || r == '{':
			for i < len(rs) && rs[i] != ']' && rs[i] != '}' {
				i++
			}
			if i >= len(rs) {
				return 0, fmt.Errorf("%w: unterminated range", errSyntax)
			}
			i++
		case r == '\\' && i+1 < len(rs):
			i += 2
		case unicode.IsSpace(r) || r == '(' || r == ')':
			return i, nil
		default:
			i++
		}
	}
	return i, nil
}

type parser struct {
	toks []token
	pos  int
	args []any
}

// toSQL translates a clause into an SQL condition over the doc column.
func toSQL(clause string) (string, []any, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" || clause == "*:*" || clause == "*" {
		return "1=1", nil, nil
	}
	toks, err := tokenize(clause)
	if err != nil {
		return "", nil, QueryFilterError(clause, err)
	}
	p := &parser{toks: toks}
	res, err := p.or()
	if err == nil && p.pos < len(p.toks) {
		err = fmt.Errorf("%w: unexpected token at %d", errSyntax, p.pos)
	}
	if err != nil {
		return "", nil, QueryFilterError(clause, err)
	}
	return res, p.args, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) or() (string, error) {
	left, err := p.and()
	if err != nil {
		return "", err
	}
	parts := []string{left}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			break
		}
		p.pos++
		right, err := p.and()
		if err != nil {
			return "", err
		}
		parts = append(parts, right)
	}
	if len(parts) == 1 {
		return left, nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

func (p *parser) and() (string, error) {
	left, err := p.unary()
	if err != nil {
		return "", err
	}
	parts := []string{left}
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokOr || t.kind == tokRParen {
			break
		}
		if t.kind == tokAnd {
			p.pos++
		}
		right, err := p.unary()
		if err != nil {
			return "", err
		}
		parts = append(parts, right)
	}
	if len(parts) == 1 {
		return left, nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}

func (p *parser) unary() (string, error) {
	t, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("%w: unexpected end", errSyntax)
	}
	switch t.kind {
	case tokNot:
		p.pos++
		res, err := p.unary()
		if err != nil {
			return "", err
		}
		return "NOT " + res, nil
	case tokLParen:
		p.pos++
		res, err := p.or()
		if err != nil {
			return "", err
		}
		if t, ok := p.peek(); !ok || t.kind != tokRParen {
			return "", fmt.Errorf("%w: missing ')'", errSyntax)
		}
		p.pos++
		return "(" + res + ")", nil
	case tokTerm:
		p.pos++
		return p.term(t.text)
	}
	return "", fmt.Errorf("%w: unexpected operator", errSyntax)
}

func (p *parser) term(text string) (string, error) {
	if text == "*:*" {
		return "1=1", nil
	}
	field, val, ok := strings.Cut(text, ":")
	if !ok || field == "" {
		p.args = append(p.args, "%"+unquote(text)+"%")
		return "doc LIKE ?", nil
	}
	path := `$."` + field + `"`

	switch {
	case val == "*" || val == "[* TO *]":
		p.args = append(p.args, path)
		return "EXISTS (SELECT 1 FROM json_each(doc, ?) WHERE value IS NOT NULL)", nil
	case strings.HasPrefix(val, "[") || strings.HasPrefix(val, "{"):
		return p.rangeTerm(path, val)
	case strings.HasPrefix(val, `"`):
		p.args = append(p.args, path, unquote(val))
		return "EXISTS (SELECT 1 FROM json_each(doc, ?) WHERE CAST(value AS TEXT) = ?)", nil
	case strings.ContainsAny(val, "*?"):
		like := strings.NewReplacer("*", "%", "?", "_").Replace(val)
		p.args = append(p.args, path, like)
		return "EXISTS (SELECT 1 FROM json_each(doc, ?) WHERE CAST(value AS TEXT) LIKE ?)", nil
	case val == "":
		return "", fmt.Errorf("%w: empty value for '%s'", errSyntax, field)
	}
	p.args = append(p.args, path, strings.ReplaceAll(val, `\`, ""))
	return "EXISTS (SELECT 1 FROM json_each(doc, ?) WHERE CAST(value AS TEXT) = ?)", nil
}

func (p *parser) rangeTerm(path, val string) (string, error) {
	inner := val[1 : len(val)-1]
	lo, hi, ok := strings.Cut(inner, " TO ")
	if !ok {
		return "", fmt.Errorf("%w: range without TO", errSyntax)
	}
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	loOp, hiOp := ">=", "<="
	if val[0] == '{' {
		loOp = ">"
	}
	if val[len(val)-1] == '}' {
		hiOp = "<"
	}

	var conds []string
	args := []any{path}
	for _, b := range []struct{ v, op string }{{lo, loOp}, {hi, hiOp}} {
		if b.v == "*" {
			continue
		}
		if num, err := strconv.ParseFloat(b.v, 64); err == nil {
			conds = append(conds, "CAST(value AS REAL) "+b.op+" ?")
			args = append(args, num)
			continue
		}
		conds = append(conds, "CAST(value AS TEXT) "+b.op+" ?")
		args = append(args, unquote(b.v))
	}
	conds = append(conds, "value IS NOT NULL")
	p.args = append(p.args, args...)
	return "EXISTS (SELECT 1 FROM json_each(doc, ?) WHERE " +
		strings.Join(conds, " AND ") + ")", nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}
