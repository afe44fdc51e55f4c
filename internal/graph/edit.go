package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nvandessel/synaptic/internal/ident"
)

// ErrUnreachable reports a node that cannot be reached from the declared
// inputs during finalization. Every node must be input-reachable; hitting
// this is a caller contract violation, not a recoverable domain error.
var ErrUnreachable = errors.New("node unreachable from declared inputs")

// Edit is the exclusive scoped mutator of a Brain. While it is held the
// class invariants may be arbitrarily violated; Finish restores them.
// Prefer Brain.Update, which guarantees Finish on every exit path.
type Edit[NG, EG any] struct {
	Nodes   *[]Node[NG]
	Edges   *[]Edge[EG]
	Inputs  *[]ident.ID
	Outputs *[]ident.ID
	Order   *ident.Order

	brain *Brain[NG, EG]
	remap map[ident.ID]ident.ID
	done  bool
}

// Edit opens the exclusive mutation guard. The caller must call Finish
// exactly once on every exit path.
func (b *Brain[NG, EG]) Edit() *Edit[NG, EG] {
	return &Edit[NG, EG]{
		Nodes:   &b.nodes,
		Edges:   &b.edges,
		Inputs:  &b.inputs,
		Outputs: &b.outputs,
		Order:   &b.order,
		brain:   b,
	}
}

// Update runs fn under the mutation guard and finalizes on release,
// including early error returns and panics. An error from fn takes
// precedence over a finalization error.
func (b *Brain[NG, EG]) Update(fn func(*Edit[NG, EG]) error) (err error) {
	e := b.Edit()
	defer func() {
		ferr := e.Finish()
		if err == nil {
			err = ferr
		}
	}()
	return fn(e)
}

// Finish releases the guard and restores the brain invariants:
// breadth-first traversal from the declared inputs, dense handle
// reassignment in visitation order, remapping of every handle reference
// (including gene-embedded ones), and physical sorting of the node and edge
// sequences. Calling Finish again is a no-op.
func (e *Edit[NG, EG]) Finish() error {
	if e.done {
		return nil
	}
	e.done = true
	remap, err := e.brain.finalize()
	e.remap = remap
	return err
}

// Remap reports how Finish relabeled handles, keyed by pre-finalization
// handle. It is nil before Finish runs or when finalization failed. Callers
// holding external handle references (bodies, gene tables) apply it to stay
// consistent with the packed brain.
func (e *Edit[NG, EG]) Remap() map[ident.ID]ident.ID {
	return e.remap
}

func (b *Brain[NG, EG]) finalize() (map[ident.ID]ident.ID, error) {
	visit, err := b.traversalOrder()
	if err != nil {
		return nil, err
	}

	remap := b.order.Rebuild(visit)

	for i := range b.nodes {
		b.nodes[i].ID = remap[b.nodes[i].ID]
	}
	for i := range b.edges {
		e := &b.edges[i]
		from, okFrom := remap[e.From]
		to, okTo := remap[e.To]
		if !okFrom || !okTo {
			return nil, fmt.Errorf("graph: edge %v -> %v references a handle that is not a node", e.From, e.To)
		}
		e.From, e.To = from, to
		if r, ok := any(&e.Gene).(GeneRemapper); ok {
			r.RemapGene(remap)
		}
	}
	for i, id := range b.inputs {
		b.inputs[i] = remap[id]
	}
	for i, id := range b.outputs {
		mapped, ok := remap[id]
		if !ok {
			return nil, fmt.Errorf("graph: declared output %v is not a node", id)
		}
		b.outputs[i] = mapped
	}

	slices.SortFunc(b.nodes, func(a, c Node[NG]) int {
		return int(a.ID) - int(c.ID)
	})
	// Stable keeps the relative order of edges sharing a target, so repeated
	// finalization is idempotent up to relabeling.
	slices.SortStableFunc(b.edges, func(a, c Edge[EG]) int {
		sa, _ := b.order.Index(a.To)
		sc, _ := b.order.Index(c.To)
		return sa - sc
	})
	slices.Sort(b.outputs)
	return remap, nil
}

// traversalOrder runs a breadth-first traversal over the edge relation from
// the declared inputs, in declaration order, and returns the visitation
// sequence covering every node.
func (b *Brain[NG, EG]) traversalOrder() ([]ident.ID, error) {
	exists := make(map[ident.ID]bool, len(b.nodes))
	for i := range b.nodes {
		exists[b.nodes[i].ID] = true
	}

	adjacent := make(map[ident.ID][]ident.ID, len(b.nodes))
	for i := range b.edges {
		e := &b.edges[i]
		adjacent[e.From] = append(adjacent[e.From], e.To)
	}

	visited := make(map[ident.ID]bool, len(b.nodes))
	visit := make([]ident.ID, 0, len(b.nodes))
	queue := make([]ident.ID, 0, len(b.nodes))

	for _, id := range b.inputs {
		if !exists[id] {
			return nil, fmt.Errorf("graph: declared input %v is not a node", id)
		}
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visit = append(visit, id)
		for _, next := range adjacent[id] {
			if exists[next] && !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	if len(visit) != len(b.nodes) {
		for i := range b.nodes {
			if !visited[b.nodes[i].ID] {
				return nil, fmt.Errorf("graph: %v: %w", b.nodes[i].ID, ErrUnreachable)
			}
		}
	}
	return visit, nil
}
