// Package ident generates document identifiers.
package ident

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// Generator produces identifiers that are unique within the process and
// practically unique across processes.
type Generator interface {
	NextID() string
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func() string

func (f GeneratorFunc) NextID() string { return f() }

// NewXID returns a generator of 20-character xid strings: a timestamp,
// machine id, pid and an incrementing counter. IDs sort by creation time.
func NewXID() Generator {
	return GeneratorFunc(func() string { return xid.New().String() })
}

// NewUUID returns a generator of random (version 4) UUID strings.
func NewUUID() Generator {
	return GeneratorFunc(func() string { return uuid.New().String() })
}

// New returns the generator for the named scheme ("xid", "uuid").
// The empty scheme selects xid.
func New(scheme string) (Generator, error) {
	switch scheme {
	case "xid", "":
		return NewXID(), nil
	case "uuid":
		return NewUUID(), nil
	default:
		return nil, fmt.Errorf("unknown id scheme: %q (supported: xid, uuid)", scheme)
	}
}
