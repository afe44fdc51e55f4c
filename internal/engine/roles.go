// Package engine executes one simulation tick of a finalized brain. A tick
// is a single linear pass over the node sequence in dense order, merging
// external sensor inputs, incoming edge values and modulation reads into
// each node's activation, and emitting action outputs along the way.
//
// The three pluggable roles form a closed type pipeline: a propagator's
// output feeds the collector, the collector's output feeds activation, and
// a node's output feeds the propagators of its outgoing edges. The shared
// type parameters enforce the closure at the interface level.
package engine

import "github.com/nvandessel/synaptic/internal/ident"

// Activator is the per-node computation role. Its value is the node's
// runtime state; Activate mutates it and Output reads the current value,
// which stays stable between activations.
type Activator[In, Out, Gene, Cfg any] interface {
	Activate(input In, gene Gene, cfg Cfg)
	Output() Out
}

// Propagator is the per-edge computation role. Modulation appends the
// handles of non-local reads the edge wants resolved; Propagate computes
// the edge output from the source output and the resolved modulation
// values.
type Propagator[In, Out, Gene, Cfg any] interface {
	Modulation(dst []ident.ID, gene Gene, cfg Cfg) []ident.ID
	Propagate(input In, modulation []In, gene Gene, cfg Cfg) Out
}

// Collector merges all incoming edge outputs, plus any external sensor
// input, into one value for a node's activation step.
type Collector[In, Out, Cfg any] interface {
	Push(input In, cfg Cfg)
	Collect(cfg Cfg) Out
	Clear(cfg Cfg)
}

// ActivatorPtr constrains a pointer-to-state type implementing Activator.
type ActivatorPtr[A, In, Out, Gene, Cfg any] interface {
	*A
	Activator[In, Out, Gene, Cfg]
}

// PropagatorPtr constrains a pointer-to-state type implementing Propagator.
type PropagatorPtr[P, In, Out, Gene, Cfg any] interface {
	*P
	Propagator[In, Out, Gene, Cfg]
}

// CollectorPtr constrains a pointer-to-state type implementing Collector.
type CollectorPtr[C, In, Out, Cfg any] interface {
	*C
	Collector[In, Out, Cfg]
}

// Config bundles the shared per-role configuration passed through a tick.
type Config[AC, PC, CC any] struct {
	Activator  AC
	Propagator PC
	Collector  CC
}
