package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nvandessel/synaptic/internal/arena"
	"github.com/nvandessel/synaptic/internal/graph"
	"github.com/nvandessel/synaptic/internal/ident"
)

// ErrSizeMismatch reports an input or output sequence whose length does not
// match the declared sensor or action count. The tick fails fast; values
// are never silently truncated or padded.
var ErrSizeMismatch = errors.New("interface sequence length mismatch")

// ErrUnresolvedHandle reports an edge or modulation handle that does not
// resolve in the current order. Both are caller contract violations.
var ErrUnresolvedHandle = errors.New("handle does not resolve in order")

type markerKind uint8

const (
	markInput markerKind = iota
	markOutput
)

// marker tags a node as an external sensor input or action output.
// Markers are kept sorted by dense slot, inputs before outputs on the same
// node, so the tick consumes them with a single cursor.
type marker struct {
	id   ident.ID
	kind markerKind
}

// State is the per-agent execution state: arena-backed node-state and
// edge-state buffers aligned to the brain's sequences, the sorted interface
// marker buffer, one shared collector, and the reused modulation scratch.
//
// State is built once per (brain, body) pair. If the brain's node or edge
// counts change it must be rebuilt; there is no in-place resize.
type State[
	A, P, C any,
	V, S, U any,
	NG, EG any,
	AC, PC, CC any,
	PA ActivatorPtr[A, U, V, NG, AC],
	PP PropagatorPtr[P, V, S, EG, PC],
	PCol CollectorPtr[C, S, U, CC],
] struct {
	nodeState arena.Buffer[A]
	edgeState arena.Buffer[P]
	markers   arena.Buffer[marker]

	sensorCount int
	actionCount int

	collector C
	// Modulation scratch, reused across edges and ticks. Empty on entry to
	// every propagation and emptied again after it.
	modIDs  []ident.ID
	modVals []V
}

// NewState allocates execution state for brain in a, pairing the given
// sensor and action handles with input/output markers sorted by dense slot.
// The brain must be finalized and every interface handle must resolve.
func NewState[
	A, P, C any,
	V, S, U any,
	NG, EG any,
	AC, PC, CC any,
	PA ActivatorPtr[A, U, V, NG, AC],
	PP PropagatorPtr[P, V, S, EG, PC],
	PCol CollectorPtr[C, S, U, CC],
](b *graph.Brain[NG, EG], sensors, actions []ident.ID, a *arena.Arena) (*State[A, P, C, V, S, U, NG, EG, AC, PC, CC, PA, PP, PCol], error) {
	type keyed struct {
		slot int
		m    marker
	}
	keys := make([]keyed, 0, len(sensors)+len(actions))
	for _, id := range sensors {
		slot, ok := b.Order().Index(id)
		if !ok {
			return nil, fmt.Errorf("engine: sensor %v: %w", id, ErrUnresolvedHandle)
		}
		keys = append(keys, keyed{slot: slot, m: marker{id: id, kind: markInput}})
	}
	for _, id := range actions {
		slot, ok := b.Order().Index(id)
		if !ok {
			return nil, fmt.Errorf("engine: action %v: %w", id, ErrUnresolvedHandle)
		}
		keys = append(keys, keyed{slot: slot, m: marker{id: id, kind: markOutput}})
	}
	// Inputs sort before outputs on the same node so one cursor serves both.
	slices.SortStableFunc(keys, func(x, y keyed) int {
		if x.slot != y.slot {
			return x.slot - y.slot
		}
		return int(x.m.kind) - int(y.m.kind)
	})

	st := &State[A, P, C, V, S, U, NG, EG, AC, PC, CC, PA, PP, PCol]{
		nodeState: arena.AllocSlice(a, len(b.Nodes()), func() A {
			var zero A
			return zero
		}),
		edgeState: arena.AllocSlice(a, len(b.Edges()), func() P {
			var zero P
			return zero
		}),
		markers: arena.AllocSlice(a, len(keys), func() marker {
			return marker{}
		}),
		sensorCount: len(sensors),
		actionCount: len(actions),
	}
	for i, k := range keys {
		*st.markers.At(i) = k.m
	}
	return st, nil
}

// MoveBuffers migrates all arena-backed buffers into a. The previous
// buffers must never be used again; this is the migration half of the
// generational bulk free.
func (st *State[A, P, C, V, S, U, NG, EG, AC, PC, CC, PA, PP, PCol]) MoveBuffers(a *arena.Arena) {
	st.nodeState = arena.MoveInto(a, st.nodeState)
	st.edgeState = arena.MoveInto(a, st.edgeState)
	st.markers = arena.MoveInto(a, st.markers)
}

// Step executes one tick: consume inputs into the collector at input
// markers, merge-join incoming edges by target, activate every node in
// dense order, and emit outputs at output markers. Internal state persists
// across ticks, so backward edges read the previous tick's output of their
// source (one-tick-delayed recurrence).
func (st *State[A, P, C, V, S, U, NG, EG, AC, PC, CC, PA, PP, PCol]) Step(
	b *graph.Brain[NG, EG],
	inputs []S,
	outputs []V,
	cfg *Config[AC, PC, CC],
) error {
	nodes := b.Nodes()
	edges := b.Edges()
	ord := b.Order()

	if len(inputs) != st.sensorCount {
		return fmt.Errorf("engine: %d inputs for %d sensors: %w", len(inputs), st.sensorCount, ErrSizeMismatch)
	}
	if len(outputs) != st.actionCount {
		return fmt.Errorf("engine: %d outputs for %d actions: %w", len(outputs), st.actionCount, ErrSizeMismatch)
	}
	if len(nodes) != st.nodeState.Len() || len(edges) != st.edgeState.Len() {
		return fmt.Errorf("engine: graph counts changed since state was built (%d/%d nodes, %d/%d edges)",
			len(nodes), st.nodeState.Len(), len(edges), st.edgeState.Len())
	}

	nodeStates := st.nodeState.Slice()
	edgeStates := st.edgeState.Slice()
	markers := st.markers.Slice()
	col := PCol(&st.collector)

	in, out := 0, 0
	mi, ei := 0, 0
	for i := range nodes {
		node := &nodes[i]

		if mi < len(markers) && markers[mi].kind == markInput && markers[mi].id == node.ID {
			col.Push(inputs[in], cfg.Collector)
			in++
			mi++
		}

		for ei < len(edges) && edges[ei].To == node.ID {
			edge := &edges[ei]
			srcSlot, ok := ord.Index(edge.From)
			if !ok {
				return fmt.Errorf("engine: edge source %v: %w", edge.From, ErrUnresolvedHandle)
			}
			input := PA(&nodeStates[srcSlot]).Output()

			prop := PP(&edgeStates[ei])
			st.modIDs = prop.Modulation(st.modIDs[:0], edge.Gene, cfg.Propagator)
			for _, id := range st.modIDs {
				slot, ok := ord.Index(id)
				if !ok {
					return fmt.Errorf("engine: modulation %v: %w", id, ErrUnresolvedHandle)
				}
				st.modVals = append(st.modVals, PA(&nodeStates[slot]).Output())
			}
			col.Push(prop.Propagate(input, st.modVals, edge.Gene, cfg.Propagator), cfg.Collector)
			st.modVals = st.modVals[:0]
			ei++
		}

		PA(&nodeStates[i]).Activate(col.Collect(cfg.Collector), node.Gene, cfg.Activator)
		col.Clear(cfg.Collector)

		if mi < len(markers) && markers[mi].kind == markOutput && markers[mi].id == node.ID {
			outputs[out] = PA(&nodeStates[i]).Output()
			out++
			mi++
		}
	}
	return nil
}
