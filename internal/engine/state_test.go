package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/nvandessel/synaptic/internal/arena"
	"github.com/nvandessel/synaptic/internal/graph"
	"github.com/nvandessel/synaptic/internal/ident"
)

// The test roles use a heterogeneous pipeline on purpose: node outputs are
// plain float64, edge outputs are typed signals, and the collector merges
// them into a cumulant consumed by activation.

type sigKind uint8

const (
	sigData sigKind = iota
	sigControl
)

type signal struct {
	kind  sigKind
	value float64
}

type cumulant struct {
	data    float64
	control float64
}

type nodeGene struct {
	gain float64
}

type nodeCfg struct {
	threshold float64
}

type testNode struct {
	value float64
}

func (n *testNode) Activate(in cumulant, g nodeGene, c nodeCfg) {
	if in.control >= c.threshold {
		n.value = in.data * g.gain
	} else {
		n.value = 0
	}
}

func (n *testNode) Output() float64 { return n.value }

type edgeGene struct {
	kind   sigKind
	weight float64
	mod    ident.ID
}

type edgeCfg struct{}

type testEdge struct {
	fired int
}

func (e *testEdge) Modulation(dst []ident.ID, g edgeGene, _ edgeCfg) []ident.ID {
	if g.mod != ident.None {
		dst = append(dst, g.mod)
	}
	return dst
}

func (e *testEdge) Propagate(in float64, mod []float64, g edgeGene, _ edgeCfg) signal {
	e.fired++
	v := in * g.weight
	if len(mod) > 0 {
		v *= mod[0]
	}
	return signal{kind: g.kind, value: v}
}

type colCfg struct{}

type testCol struct {
	state cumulant
}

func (c *testCol) Push(in signal, _ colCfg) {
	switch in.kind {
	case sigData:
		c.state.data += in.value
	case sigControl:
		c.state.control += in.value
	}
}

func (c *testCol) Collect(_ colCfg) cumulant { return c.state }

func (c *testCol) Clear(_ colCfg) { c.state = cumulant{} }

type testBrain = graph.Brain[nodeGene, edgeGene]

type testState = State[
	testNode, testEdge, testCol,
	float64, signal, cumulant,
	nodeGene, edgeGene,
	nodeCfg, edgeCfg, colCfg,
	*testNode, *testEdge, *testCol,
]

func newTestState(t *testing.T, b *testBrain, sensors, actions []ident.ID, a *arena.Arena) *testState {
	t.Helper()
	st, err := NewState[
		testNode, testEdge, testCol,
		float64, signal, cumulant,
		nodeGene, edgeGene,
		nodeCfg, edgeCfg, colCfg,
		*testNode, *testEdge, *testCol,
	](b, sensors, actions, a)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return st
}

// buildBrain wires nodes 0..n-1 (handles chosen to match traversal order so
// genes that embed handles stay valid) with the given edges.
func buildBrain(t *testing.T, n int, inputs []ident.ID, edges []graph.Edge[edgeGene]) *testBrain {
	t.Helper()
	b := graph.New[nodeGene, edgeGene]()
	err := b.Update(func(e *graph.Edit[nodeGene, edgeGene]) error {
		for i := range n {
			*e.Nodes = append(*e.Nodes, graph.Node[nodeGene]{ID: ident.ID(i), Gene: nodeGene{gain: 1}})
		}
		*e.Edges = append(*e.Edges, edges...)
		*e.Inputs = append(*e.Inputs, inputs...)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	return b
}

func defaultCfg() *Config[nodeCfg, edgeCfg, colCfg] {
	return &Config[nodeCfg, edgeCfg, colCfg]{}
}

func TestStep_PassThrough(t *testing.T) {
	// A single node that is both sensor and action.
	b := buildBrain(t, 1, []ident.ID{0}, nil)
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{0}, arena.New())

	outputs := make([]float64, 1)
	if err := st.Step(b, []signal{{kind: sigData, value: 0.75}}, outputs, defaultCfg()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if outputs[0] != 0.75 {
		t.Errorf("output = %v, want 0.75", outputs[0])
	}
}

func TestStep_ChainAndWeights(t *testing.T) {
	// 0 -> 1 -> 2 with weights 2 and -0.5.
	b := buildBrain(t, 3, []ident.ID{0}, []graph.Edge[edgeGene]{
		{From: 0, To: 1, Gene: edgeGene{kind: sigData, weight: 2, mod: ident.None}},
		{From: 1, To: 2, Gene: edgeGene{kind: sigData, weight: -0.5, mod: ident.None}},
	})
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{2}, arena.New())

	outputs := make([]float64, 1)
	if err := st.Step(b, []signal{{kind: sigData, value: 3}}, outputs, defaultCfg()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	// Forward edges see the current tick's value: 3 * 2 * -0.5.
	if outputs[0] != -3 {
		t.Errorf("output = %v, want -3", outputs[0])
	}
}

func TestStep_ModulationReadsNamedNode(t *testing.T) {
	// 0 and 1 are inputs; the edge 0 -> 2 is modulated by node 1, computing
	// a product of the two inputs.
	b := buildBrain(t, 3, []ident.ID{0, 1}, []graph.Edge[edgeGene]{
		{From: 0, To: 2, Gene: edgeGene{kind: sigData, weight: 1, mod: 1}},
	})
	st := newTestState(t, b, []ident.ID{0, 1}, []ident.ID{2}, arena.New())

	outputs := make([]float64, 1)
	inputs := []signal{{kind: sigData, value: 0.5}, {kind: sigData, value: 4}}
	if err := st.Step(b, inputs, outputs, defaultCfg()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if outputs[0] != 2 {
		t.Errorf("output = %v, want 2", outputs[0])
	}
}

func TestStep_ControlGatesActivation(t *testing.T) {
	// Node 2 receives data from 0 and an inhibitory control signal from 1.
	b := buildBrain(t, 3, []ident.ID{0, 1}, []graph.Edge[edgeGene]{
		{From: 0, To: 2, Gene: edgeGene{kind: sigData, weight: 1, mod: ident.None}},
		{From: 1, To: 2, Gene: edgeGene{kind: sigControl, weight: -1, mod: ident.None}},
	})
	st := newTestState(t, b, []ident.ID{0, 1}, []ident.ID{2}, arena.New())

	outputs := make([]float64, 1)

	// Control quiet: data passes.
	if err := st.Step(b, []signal{{sigData, 1}, {sigData, 0}}, outputs, defaultCfg()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if outputs[0] != 1 {
		t.Errorf("ungated output = %v, want 1", outputs[0])
	}

	// Control active: the negative control sum drops below threshold.
	if err := st.Step(b, []signal{{sigData, 1}, {sigData, 1}}, outputs, defaultCfg()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if outputs[0] != 0 {
		t.Errorf("gated output = %v, want 0", outputs[0])
	}
}

func TestStep_RecurrenceIsOneTickDelayed(t *testing.T) {
	// Node 1 feeds back into itself with weight 0.5.
	b := buildBrain(t, 2, []ident.ID{0}, []graph.Edge[edgeGene]{
		{From: 0, To: 1, Gene: edgeGene{kind: sigData, weight: 1, mod: ident.None}},
		{From: 1, To: 1, Gene: edgeGene{kind: sigData, weight: 0.5, mod: ident.None}},
	})
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{1}, arena.New())

	outputs := make([]float64, 1)
	want := []float64{1, 0.5, 0.25}
	feeds := []float64{1, 0, 0}
	for i, in := range feeds {
		if err := st.Step(b, []signal{{kind: sigData, value: in}}, outputs, defaultCfg()); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if math.Abs(outputs[0]-want[i]) > 1e-9 {
			t.Errorf("tick %d output = %v, want %v", i, outputs[0], want[i])
		}
	}
}

func TestStep_InputLengthMismatch(t *testing.T) {
	b := buildBrain(t, 1, []ident.ID{0}, nil)
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{0}, arena.New())

	err := st.Step(b, nil, make([]float64, 1), defaultCfg())
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Step error = %v, want ErrSizeMismatch", err)
	}
}

func TestStep_OutputLengthMismatch(t *testing.T) {
	b := buildBrain(t, 1, []ident.ID{0}, nil)
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{0}, arena.New())

	// Too-large output buffer must fail fast, never silently pad.
	err := st.Step(b, []signal{{sigData, 1}}, make([]float64, 3), defaultCfg())
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Step error = %v, want ErrSizeMismatch", err)
	}
}

func TestStep_UnresolvedModulationHandle(t *testing.T) {
	b := buildBrain(t, 2, []ident.ID{0}, []graph.Edge[edgeGene]{
		{From: 0, To: 1, Gene: edgeGene{kind: sigData, weight: 1, mod: 99}},
	})
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{1}, arena.New())

	err := st.Step(b, []signal{{sigData, 1}}, make([]float64, 1), defaultCfg())
	if !errors.Is(err, ErrUnresolvedHandle) {
		t.Errorf("Step error = %v, want ErrUnresolvedHandle", err)
	}
}

func TestStep_CountsChangedRequiresRebuild(t *testing.T) {
	b := buildBrain(t, 2, []ident.ID{0}, []graph.Edge[edgeGene]{
		{From: 0, To: 1, Gene: edgeGene{kind: sigData, weight: 1, mod: ident.None}},
	})
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{1}, arena.New())

	err := b.Update(func(e *graph.Edit[nodeGene, edgeGene]) error {
		*e.Nodes = append(*e.Nodes, graph.Node[nodeGene]{ID: 2, Gene: nodeGene{gain: 1}})
		*e.Edges = append(*e.Edges, graph.Edge[edgeGene]{From: 0, To: 2, Gene: edgeGene{kind: sigData, weight: 1, mod: ident.None}})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := st.Step(b, []signal{{sigData, 1}}, make([]float64, 1), defaultCfg()); err == nil {
		t.Error("Step after structural growth should fail until state is rebuilt")
	}
}

func TestNewState_UnknownInterfaceHandle(t *testing.T) {
	b := buildBrain(t, 1, []ident.ID{0}, nil)
	_, err := NewState[
		testNode, testEdge, testCol,
		float64, signal, cumulant,
		nodeGene, edgeGene,
		nodeCfg, edgeCfg, colCfg,
		*testNode, *testEdge, *testCol,
	](b, []ident.ID{7}, nil, arena.New())
	if !errors.Is(err, ErrUnresolvedHandle) {
		t.Errorf("NewState error = %v, want ErrUnresolvedHandle", err)
	}
}

func TestMoveBuffers_PreservesRuntimeState(t *testing.T) {
	b := buildBrain(t, 2, []ident.ID{0}, []graph.Edge[edgeGene]{
		{From: 0, To: 1, Gene: edgeGene{kind: sigData, weight: 1, mod: ident.None}},
		{From: 1, To: 1, Gene: edgeGene{kind: sigData, weight: 1, mod: ident.None}},
	})
	arenas := [2]*arena.Arena{arena.New(), arena.New()}
	st := newTestState(t, b, []ident.ID{0}, []ident.ID{1}, arenas[0])

	outputs := make([]float64, 1)
	if err := st.Step(b, []signal{{sigData, 2}}, outputs, defaultCfg()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Migrate to the standby arena and bulk-free the vacated one.
	st.MoveBuffers(arenas[1])
	arenas[0].FreeAll()

	// The self-loop on node 1 reads its own previous value, which must have
	// survived the migration: v1 = 0 + 1.0 * 2.
	if err := st.Step(b, []signal{{sigData, 0}}, outputs, defaultCfg()); err != nil {
		t.Fatalf("Step after move: %v", err)
	}
	if outputs[0] != 2 {
		t.Errorf("output after migration = %v, want 2 (node 1 held its previous value)", outputs[0])
	}
}
