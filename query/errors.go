package query

import "errors"

var (
	// ErrUnknownOperator is returned for a clause key that is not one of the
	// recognised operators.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrInvalidClause is returned for a malformed clause: more than one
	// operator, operators mixed with plain keys, or a non-sequence comparand
	// for $in/$nin.
	ErrInvalidClause = errors.New("invalid clause")

	// ErrInvalidSort is returned for a sort with no field or an unknown order.
	ErrInvalidSort = errors.New("invalid sort")

	// ErrInvalidLimit is returned for a negative limit.
	ErrInvalidLimit = errors.New("invalid limit")
)
