// Package query implements the predicate evaluator and query engine for lsdb.
//
// A query is a set of field clauses combined with AND, an optional sort and an
// optional limit. Clauses are written the way they appear on the wire:
//
//	{"where": {"number": {"$gt": 20}}, "sort": {"field": "number", "order": "desc"}, "limit": 3}
package query

import (
	"fmt"
	"strings"
)

// Operator is a clause operator such as $eq or $in.
type Operator string

const (
	OpEq  Operator = "$eq"
	OpNe  Operator = "$ne"
	OpGt  Operator = "$gt"
	OpGte Operator = "$gte"
	OpLt  Operator = "$lt"
	OpLte Operator = "$lte"
	OpIn  Operator = "$in"
	OpNin Operator = "$nin"
)

// Operators lists every recognised operator.
var Operators = []Operator{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin}

type evalFunc func(actual, expected any) bool

var evaluators = map[Operator]evalFunc{
	OpEq:  equal,
	OpNe:  func(a, e any) bool { return !equal(a, e) },
	OpGt:  ordered(func(c int) bool { return c > 0 }),
	OpGte: ordered(func(c int) bool { return c >= 0 }),
	OpLt:  ordered(func(c int) bool { return c < 0 }),
	OpLte: ordered(func(c int) bool { return c <= 0 }),
	OpIn:  in,
	OpNin: func(a, e any) bool { return !in(a, e) },
}

func ordered(accept func(int) bool) evalFunc {
	return func(actual, expected any) bool {
		c, ok := compareOrdered(actual, expected)
		return ok && accept(c)
	}
}

// in matches a sequence field sharing at least one element with the
// comparand, or a scalar field equal to any element of it.
func in(actual, expected any) bool {
	candidates, ok := toSlice(expected)
	if !ok {
		return false
	}
	if elems, ok := toSlice(actual); ok {
		for _, e := range elems {
			for _, c := range candidates {
				if equal(e, c) {
					return true
				}
			}
		}
		return false
	}
	for _, c := range candidates {
		if equal(actual, c) {
			return true
		}
	}
	return false
}

// ParseOperator validates an operator key.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if _, ok := evaluators[op]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperator, s)
	}
	return op, nil
}

// Valid reports whether op is a recognised operator.
func (op Operator) Valid() bool {
	_, ok := evaluators[op]
	return ok
}

// Clause is a single operator and comparand applied to one field.
type Clause struct {
	Op    Operator
	Value any
}

func Eq(v any) Clause { return Clause{Op: OpEq, Value: v} }
func Ne(v any) Clause { return Clause{Op: OpNe, Value: v} }
func Gt(v any) Clause { return Clause{Op: OpGt, Value: v} }
func Gte(v any) Clause { return Clause{Op: OpGte, Value: v} }
func Lt(v any) Clause { return Clause{Op: OpLt, Value: v} }
func Lte(v any) Clause { return Clause{Op: OpLte, Value: v} }
func In(v any) Clause { return Clause{Op: OpIn, Value: v} }
func Nin(v any) Clause { return Clause{Op: OpNin, Value: v} }

// Validate checks the operator is known and that $in/$nin carry a sequence.
func (c Clause) Validate() error {
	if !c.Op.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, string(c.Op))
	}
	if c.Op == OpIn || c.Op == OpNin {
		if _, ok := toSlice(c.Value); !ok {
			return fmt.Errorf("%w: %s requires a sequence, got %T", ErrInvalidClause, c.Op, c.Value)
		}
	}
	return nil
}

func (c Clause) String() string {
	return fmt.Sprintf("{%s: %v}", c.Op, c.Value)
}

// ParseClause converts the raw decoded form of a clause into a Clause.
//
// A map whose keys are all operators must hold exactly one of them. Any other
// value (a scalar, a sequence, or a nested document with no operator keys) is
// an implicit $eq.
func ParseClause(raw any) (Clause, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Eq(raw), nil
	}
	ops := 0
	for k := range m {
		if strings.HasPrefix(k, "$") {
			ops++
		}
	}
	if ops == 0 {
		return Eq(raw), nil
	}
	if ops != len(m) {
		return Clause{}, fmt.Errorf("%w: operators mixed with fields", ErrInvalidClause)
	}
	if ops > 1 {
		return Clause{}, fmt.Errorf("%w: expected one operator, got %d", ErrInvalidClause, ops)
	}
	var key string
	for k := range m {
		key = k
	}
	op, err := ParseOperator(key)
	if err != nil {
		return Clause{}, err
	}
	c := Clause{Op: op, Value: m[key]}
	if err := c.Validate(); err != nil {
		return Clause{}, err
	}
	return c, nil
}
