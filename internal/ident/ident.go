// Package ident provides stable neuron identifiers and the ordering table
// that maps them to dense storage slots. Identifiers survive structural
// edits to a brain; dense slots are reassigned whenever the graph is
// finalized, keeping storage compact for cache-local iteration.
package ident

import "fmt"

// ID is an opaque, totally ordered neuron identifier. The top of the uint32
// range is reserved as the None sentinel so an absent ID costs no extra
// storage in tables and gene fields.
type ID uint32

const (
	// None is the reserved "no value" sentinel. It is never issued.
	None ID = ^ID(0)

	// MaxID is the largest identifier that can be issued.
	MaxID ID = None - 1
)

// IsNone reports whether the ID is the absent sentinel.
func (id ID) IsNone() bool { return id == None }

func (id ID) String() string {
	if id == None {
		return "ID:none"
	}
	return fmt.Sprintf("ID:%d", uint32(id))
}
