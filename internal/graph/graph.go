// Package graph owns the evolvable computation graph of an agent: node and
// edge records keyed by stable identifiers, plus the ordering table mapping
// identifiers to dense slots. All structural mutation goes through an
// exclusive guard; releasing it restores the packing and sorting invariants
// the execution engine depends on.
package graph

import (
	"github.com/nvandessel/synaptic/internal/ident"
)

// Node is a graph node: a stable handle plus its node gene.
type Node[G any] struct {
	ID   ident.ID
	Gene G
}

// Edge is a directed edge between two nodes. The gene may itself reference
// other node handles (modulation targets); such genes implement GeneRemapper
// so finalization keeps them consistent.
type Edge[G any] struct {
	From ident.ID
	To   ident.ID
	Gene G
}

// GeneRemapper is implemented by edge genes that embed node handles.
// Finalization invokes it with the old-to-new handle map.
type GeneRemapper interface {
	RemapGene(m map[ident.ID]ident.ID)
}

// Brain is the graph container. Outside an Edit the following invariants
// hold: every node is reachable from the declared inputs, handles are packed
// 0..n-1 in traversal order, the node sequence is sorted by dense slot and
// the edge sequence by the dense slot of its target endpoint.
type Brain[NG, EG any] struct {
	nodes   []Node[NG]
	edges   []Edge[EG]
	inputs  []ident.ID
	outputs []ident.ID
	order   ident.Order
}

// New returns an empty brain.
func New[NG, EG any]() *Brain[NG, EG] {
	return &Brain[NG, EG]{}
}

// Nodes returns the node sequence sorted by dense slot.
// Callers must not mutate it; use Update for structural edits.
func (b *Brain[NG, EG]) Nodes() []Node[NG] { return b.nodes }

// Edges returns the edge sequence sorted by the target's dense slot.
func (b *Brain[NG, EG]) Edges() []Edge[EG] { return b.edges }

// Inputs returns the declared input handles in traversal order.
func (b *Brain[NG, EG]) Inputs() []ident.ID { return b.inputs }

// Outputs returns the declared output handles sorted by handle.
func (b *Brain[NG, EG]) Outputs() []ident.ID { return b.outputs }

// Order returns the handle-to-slot table.
func (b *Brain[NG, EG]) Order() *ident.Order { return &b.order }
