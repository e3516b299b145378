// Package fields describes exportable occurrence fields: their index names,
// output titles, Darwin Core terms, quality assertions, and the mapping
// from sensitive fields to their public fallbacks.
package fields

import (
	"fmt"
	"regexp"
	"strings"
)

// Field is one exportable index field.
type Field struct {
	// Name is the field name in the index.
	Name string `yaml:"name"`

	// Title is a human-readable column header.
	Title string `yaml:"title"`

	// DwC is the Darwin Core term used when Darwin Core headers are
	// requested.
	DwC string `yaml:"dwc"`

	// Aliases are alternative request names of the field.
	Aliases []string `yaml:"aliases"`
}

// Sensitive maps a sensitive field to its public fallback.
type Sensitive struct {
	Field  string `yaml:"field"`
	Public string `yaml:"public"`
}

// Data is the serialized form of a catalogue.
type Data struct {
	// Default fields are exported when a request does not name any.
	Default []string `yaml:"default"`

	Fields     []Field     `yaml:"fields"`
	Sensitive  []Sensitive `yaml:"sensitive"`
	Assertions []Field     `yaml:"assertions"`
}

// Column is one output column of an export.
type Column struct {
	// Field is the public index field of the column.
	Field string

	// Title is the column header.
	Title string
}

// Catalogue resolves requested names into output columns. It is immutable
// after creation and safe for concurrent use.
type Catalogue struct {
	data       Data
	byName     map[string]Field
	toPublic   map[string]string
	toRestrict map[string]string
	assertions map[string]Field
}

var rawField = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New creates a catalogue from its serialized form.
func New(data Data) (*Catalogue, error) {
	res := &Catalogue{
		data:       data,
		byName:     make(map[string]Field),
		toPublic:   make(map[string]string),
		toRestrict: make(map[string]string),
		assertions: make(map[string]Field),
	}
	for _, f := range data.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field without name")
		}
		names := append([]string{f.Name}, f.Aliases...)
		for _, n := range names {
			key := strings.ToLower(n)
			if _, ok := res.byName[key]; ok {
				return nil, fmt.Errorf("duplicate field name '%s'", n)
			}
			res.byName[key] = f
		}
	}
	for _, s := range data.Sensitive {
		if s.Field == "" || s.Public == "" {
			return nil, fmt.Errorf("incomplete sensitive mapping %v", s)
		}
		res.toPublic[s.Field] = s.Public
		res.toRestrict[s.Public] = s.Field
	}
	for _, a := range data.Assertions {
		res.assertions[a.Name] = a
	}
	return res, nil
}

// Resolve turns requested names into output columns. Names found in the
// catalogue get their titles, sensitive names are replaced by their public
// fallbacks. Other names that look like index fields are used as is, the
// rest is returned as excluded.
func (c *Catalogue) Resolve(names []string, dwc bool) ([]Column, []string) {
	if len(names) == 0 {
		names = c.data.Default
	}
	var res []Column
	var excluded []string
	seen := make(map[string]struct{})
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		col, ok := c.column(n, dwc)
		if !ok {
			excluded = append(excluded, n)
			continue
		}
		if _, ok := seen[col.Field]; ok {
			continue
		}
		seen[col.Field] = struct{}{}
		res = append(res, col)
	}
	return res, excluded
}

func (c *Catalogue) column(name string, dwc bool) (Column, bool) {
	if pub, ok := c.toPublic[name]; ok {
		name = pub
	}
	f, ok := c.byName[strings.ToLower(name)]
	if !ok {
		if !rawField.MatchString(name) {
			return Column{}, false
		}
		return Column{Field: name, Title: name}, true
	}
	if pub, ok := c.toPublic[f.Name]; ok {
		return c.column(pub, dwc)
	}
	title := f.Title
	if dwc && f.DwC != "" {
		title = f.DwC
	}
	if title == "" {
		title = f.Name
	}
	return Column{Field: f.Name, Title: title}, true
}

// Projection returns index fields read for each column. The restricted
// projection replaces public fields with their sensitive counterparts.
func (c *Catalogue) Projection(cols []Column, restricted bool) []string {
	res := make([]string, len(cols))
	for i, col := range cols {
		res[i] = col.Field
		if !restricted {
			continue
		}
		if s, ok := c.toRestrict[col.Field]; ok {
			res[i] = s
		}
	}
	return res
}

// PublicOf returns the public fallback of a sensitive field.
func (c *Catalogue) PublicOf(field string) (string, bool) {
	res, ok := c.toPublic[field]
	return res, ok
}

// Assertions selects assertion columns for a QA mode. Mode "none" or an
// empty mode returns nothing, "all" returns assertions present in the
// results, "includeall" returns every known assertion, any other value is
// a comma-separated list of assertion names.
func (c *Catalogue) Assertions(mode string, present []string) []Column {
	var names []string
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "none":
		return nil
	case "all":
		names = present
	case "includeall":
		for _, a := range c.data.Assertions {
			names = append(names, a.Name)
		}
	default:
		names = strings.Split(mode, ",")
	}

	var res []Column
	seen := make(map[string]struct{})
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		title := n
		if a, ok := c.assertions[n]; ok && a.Title != "" {
			title = a.Title
		}
		res = append(res, Column{Field: n, Title: title})
	}
	return res
}
