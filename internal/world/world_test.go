package world_test

import (
	"math"
	"testing"

	"github.com/nvandessel/synaptic/internal/body"
	"github.com/nvandessel/synaptic/internal/floatnet"
)

// patternController feeds a fixed input pattern to every agent and records
// the outputs it receives back.
type patternController struct {
	pattern []float64
	seen    []float64
	live    bool
}

func (c *patternController) ReadSensors(sensors []floatnet.SensorGene, dst []float64) bool {
	if !c.live {
		return false
	}
	copy(dst, c.pattern)
	return true
}

func (c *patternController) PerformActions(actions []floatnet.ActionGene, outputs []float64) {
	c.seen = append(c.seen, outputs...)
}

// newChainAgent builds a two-node pass-through agent: sensor 0 -> action 1
// with the given weight, plus a self-loop on the output node so internal
// state is observable across arena rotation.
func newChainAgent(t *testing.T, weight float64) floatnet.Agent {
	t.Helper()
	b := floatnet.NewBrain()
	err := b.Update(func(e *floatnet.Edit) error {
		*e.Nodes = append(*e.Nodes,
			floatnet.Node{ID: 0, Gene: floatnet.Identity()},
			floatnet.Node{ID: 1, Gene: floatnet.Identity()},
		)
		*e.Edges = append(*e.Edges,
			floatnet.Edge{From: 0, To: 1, Gene: floatnet.Direct(weight)},
			floatnet.Edge{From: 1, To: 1, Gene: floatnet.Direct(1)},
		)
		*e.Inputs = append(*e.Inputs, 0)
		*e.Outputs = append(*e.Outputs, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	bd := body.New(
		[]body.Sensor[floatnet.SensorGene]{{Neuron: 0, Gene: floatnet.SensorGene{Channel: "in"}}},
		[]body.Action[floatnet.ActionGene]{{Neuron: 1, Gene: floatnet.ActionGene{Channel: "out"}}},
	)
	return floatnet.Agent{Brain: b, Body: bd, Genome: floatnet.Genome{Label: "chain"}}
}

func TestWorld_StepDrivesAllAgents(t *testing.T) {
	ctrl := &patternController{pattern: []float64{2}, live: true}
	agents := []floatnet.Agent{newChainAgent(t, 1), newChainAgent(t, -1)}

	w, err := floatnet.NewWorld(ctrl, agents, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	if err := w.Step(&floatnet.Config{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(ctrl.seen) != 2 {
		t.Fatalf("got %d outputs, want 2", len(ctrl.seen))
	}
	if ctrl.seen[0] != 2 || ctrl.seen[1] != -2 {
		t.Errorf("outputs = %v, want [2 -2]", ctrl.seen)
	}
	if w.Ticks() != 1 {
		t.Errorf("Ticks = %d, want 1", w.Ticks())
	}
}

func TestWorld_DormantAgentsAreSkipped(t *testing.T) {
	ctrl := &patternController{pattern: []float64{1}, live: false}
	w, err := floatnet.NewWorld(ctrl, []floatnet.Agent{newChainAgent(t, 1)}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if err := w.Step(&floatnet.Config{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(ctrl.seen) != 0 {
		t.Errorf("dormant agent produced outputs: %v", ctrl.seen)
	}
}

func TestWorld_RotateArenasPreservesState(t *testing.T) {
	ctrl := &patternController{pattern: []float64{3}, live: true}
	w, err := floatnet.NewWorld(ctrl, []floatnet.Agent{newChainAgent(t, 1)}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	cfg := &floatnet.Config{}

	if err := w.Step(cfg); err != nil {
		t.Fatalf("Step: %v", err)
	}

	w.RotateArenas()

	// The output node accumulates through its self-loop; the value carried
	// across the rotation must contribute: 3 (new input) + 3 (kept state).
	if err := w.Step(cfg); err != nil {
		t.Fatalf("Step after rotate: %v", err)
	}
	if got := ctrl.seen[len(ctrl.seen)-1]; math.Abs(got-6) > 1e-9 {
		t.Errorf("output after rotation = %v, want 6", got)
	}
}

func TestWorld_Repopulate(t *testing.T) {
	ctrl := &patternController{pattern: []float64{1}, live: true}
	w, err := floatnet.NewWorld(ctrl, []floatnet.Agent{newChainAgent(t, 1)}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	var breeder floatnet.Populate = func(parents []floatnet.Agent, count int) ([]floatnet.Agent, error) {
		children := make([]floatnet.Agent, 0, count)
		for range count {
			children = append(children, newChainAgent(t, 5))
		}
		return children, nil
	}
	if err := w.Repopulate(breeder, 3); err != nil {
		t.Fatalf("Repopulate: %v", err)
	}
	if got := len(w.Agents()); got != 3 {
		t.Fatalf("population = %d, want 3", got)
	}

	if err := w.Step(&floatnet.Config{}); err != nil {
		t.Fatalf("Step after repopulate: %v", err)
	}
	for i, v := range ctrl.seen {
		if v != 5 {
			t.Errorf("child %d output = %v, want 5", i, v)
		}
	}
}

var _ floatnet.Controller = (*patternController)(nil)
