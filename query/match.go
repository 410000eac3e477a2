package query

import (
	"fmt"
	"sort"
)

// Document is one record: a mapping from field name to value.
type Document = map[string]any

// Where maps a top-level field name to the clause applied to it. Every
// clause must match for a document to match.
type Where map[string]Clause

// Matches evaluates one clause against one field of doc. An absent field
// satisfies $ne and $nin and nothing else.
func Matches(doc Document, field string, c Clause) bool {
	val, exists := doc[field]
	if !exists {
		return c.Op == OpNe || c.Op == OpNin
	}
	eval, ok := evaluators[c.Op]
	if !ok {
		return false
	}
	return eval(val, c.Value)
}

// Matches reports whether doc satisfies every clause. An empty Where
// matches everything.
func (w Where) Matches(doc Document) bool {
	for field, c := range w {
		if !Matches(doc, field, c) {
			return false
		}
	}
	return true
}

// Validate checks every clause.
func (w Where) Validate() error {
	for _, field := range w.fields() {
		if err := w[field].Validate(); err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
	}
	return nil
}

// fields returns the clause fields in a fixed order so errors are stable.
func (w Where) fields() []string {
	names := make([]string, 0, len(w))
	for k := range w {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParseWhere converts a decoded where mapping into a Where.
func ParseWhere(raw map[string]any) (Where, error) {
	w := make(Where, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, field := range keys {
		c, err := ParseClause(raw[field])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		w[field] = c
	}
	return w, nil
}
