package query

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort orders results by one top-level field.
type Sort struct {
	Field string `json:"field"`
	Order Order  `json:"order,omitempty"`
}

// Query is a filter, an optional sort, and an optional limit. The zero
// Query selects every document in stored order.
type Query struct {
	Where Where
	Sort  *Sort
	Limit *int
}

// Limit returns a pointer to n for use in Query.Limit.
func Limit(n int) *int { return &n }

// Validate checks the clauses, the sort order, and the limit.
func (q Query) Validate() error {
	if err := q.Where.Validate(); err != nil {
		return err
	}
	if q.Sort != nil {
		if q.Sort.Field == "" {
			return fmt.Errorf("%w: missing field", ErrInvalidSort)
		}
		switch q.Sort.Order {
		case Asc, Desc, "":
		default:
			return fmt.Errorf("%w: unknown order %q", ErrInvalidSort, q.Sort.Order)
		}
	}
	if q.Limit != nil && *q.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, *q.Limit)
	}
	return nil
}

// Run filters docs by q.Where, preserving relative order, then applies the
// sort and the limit. docs is not modified.
func Run(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.Where.Matches(d) {
			out = append(out, d)
		}
	}
	if q.Sort != nil {
		SortDocuments(out, q.Sort.Field, q.Sort.Order)
	}
	if q.Limit != nil && *q.Limit < len(out) {
		n := *q.Limit
		if n < 0 {
			n = 0
		}
		out = out[:n]
	}
	return out
}

// First runs q with a limit of one. ok is false when nothing matches.
func First(docs []Document, q Query) (doc Document, ok bool) {
	q.Limit = Limit(1)
	res := Run(docs, q)
	if len(res) == 0 {
		return nil, false
	}
	return res[0], true
}

// SortDocuments stably sorts docs in place by field. Documents missing the
// field order below every present value, so they lead in ascending order and
// trail in descending order. The empty order means ascending.
func SortDocuments(docs []Document, field string, order Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		if order == Desc {
			return compareField(docs[j], docs[i], field) < 0
		}
		return compareField(docs[i], docs[j], field) < 0
	})
}

func compareField(a, b Document, field string) int {
	va, okA := a[field]
	vb, okB := b[field]
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return compareValues(va, vb)
}

// wireQuery is the JSON shape of a Query.
type wireQuery struct {
	Where map[string]any `json:"where,omitempty"`
	Sort  *Sort          `json:"sort,omitempty"`
	Limit *int           `json:"limit,omitempty"`
}

// UnmarshalJSON decodes the wire form and validates it.
func (q *Query) UnmarshalJSON(data []byte) error {
	var w wireQuery
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	where, err := ParseWhere(w.Where)
	if err != nil {
		return err
	}
	parsed := Query{Where: where, Sort: w.Sort, Limit: w.Limit}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*q = parsed
	return nil
}

// MarshalJSON encodes the wire form.
func (q Query) MarshalJSON() ([]byte, error) {
	w := wireQuery{Sort: q.Sort, Limit: q.Limit}
	if len(q.Where) > 0 {
		w.Where = make(map[string]any, len(q.Where))
		for field, c := range q.Where {
			w.Where[field] = map[string]any{string(c.Op): c.Value}
		}
	}
	return json.Marshal(w)
}

// Parse decodes a query from its JSON wire form. Empty input is the zero
// Query.
func Parse(data []byte) (Query, error) {
	var q Query
	if len(data) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, err
	}
	return q, nil
}
