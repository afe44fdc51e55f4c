package ident

import (
	"iter"
	"slices"
)

// Pool is a cached free-ID allocator used during bulk structural edits.
// It snapshots the gaps of a truncated Order so repeated NextFree scans
// over the sparse table are avoided.
type Pool struct {
	// largest is the largest ID handed out or observed, None when empty.
	largest ID
	free    []ID
}

// NewPool snapshots the free IDs of o. The order is truncated first so the
// largest used ID is known.
func NewPool(o *Order) *Pool {
	largest, ok := o.Truncate()
	if !ok {
		largest = None
	}
	p := &Pool{largest: largest}
	for id := range o.IterFree() {
		p.free = append(p.free, id)
	}
	return p
}

// Take returns a free ID, preferring gaps over extending the range.
// It fails only when the ID space is exhausted.
func (p *Pool) Take() (ID, bool) {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return id, true
	}
	switch {
	case p.largest == None:
		p.largest = 0
	case p.largest >= MaxID:
		return None, false
	default:
		p.largest++
	}
	return p.largest, true
}

// Give returns an ID to the pool for reuse.
// The ID must have been taken from this pool.
func (p *Pool) Give(id ID) {
	p.free = append(p.free, id)
}

// Used yields the IDs currently held out of the pool in ascending order.
func (p *Pool) Used() iter.Seq[ID] {
	slices.Sort(p.free)
	return func(yield func(ID) bool) {
		if p.largest == None {
			return
		}
		skip := p.free
		for id := ID(0); id <= p.largest; id++ {
			for len(skip) > 0 && skip[0] < id {
				skip = skip[1:]
			}
			if len(skip) > 0 && skip[0] == id {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}
