package main

import (
	"fmt"
	"os"

	"github.com/nvandessel/synaptic/internal/body"
	"github.com/nvandessel/synaptic/internal/floatnet"
	"github.com/nvandessel/synaptic/internal/ident"
	"gopkg.in/yaml.v3"
)

// Scenario describes a network wiring and the input patterns to drive it.
// Neurons and connections are declared by name; handles are assigned when
// the brain is built.
type Scenario struct {
	Name        string            `yaml:"name"`
	Neurons     []ScenarioNeuron  `yaml:"neurons"`
	Connections []ScenarioConn    `yaml:"connections"`
	Inputs      []string          `yaml:"inputs"`
	Outputs     []string          `yaml:"outputs"`
	Patterns    [][]float64       `yaml:"patterns"`
	Config      ScenarioRunConfig `yaml:"config"`
}

// ScenarioNeuron declares one neuron. Response is "identity" (default) or
// "tanh".
type ScenarioNeuron struct {
	Name     string  `yaml:"name"`
	Response string  `yaml:"response"`
	Gain     float64 `yaml:"gain"`
}

// ScenarioConn declares one connection. Modulator optionally names a
// neuron whose output scales the signal.
type ScenarioConn struct {
	From      string  `yaml:"from"`
	To        string  `yaml:"to"`
	Weight    float64 `yaml:"weight"`
	Modulator string  `yaml:"modulator"`
}

// ScenarioRunConfig holds per-scenario tick settings.
type ScenarioRunConfig struct {
	// TicksPerPattern is how many ticks each pattern is held at the
	// inputs. Defaults to 1.
	TicksPerPattern int `yaml:"ticks_per_pattern"`

	// Leak is the neuron leak coefficient applied every tick.
	Leak float64 `yaml:"leak"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	if sc.Config.TicksPerPattern == 0 {
		sc.Config.TicksPerPattern = 1
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario for dangling names and malformed patterns.
func (sc *Scenario) Validate() error {
	if len(sc.Neurons) == 0 {
		return fmt.Errorf("scenario %q declares no neurons", sc.Name)
	}

	known := make(map[string]bool, len(sc.Neurons))
	for _, n := range sc.Neurons {
		if n.Name == "" {
			return fmt.Errorf("scenario %q has an unnamed neuron", sc.Name)
		}
		if known[n.Name] {
			return fmt.Errorf("duplicate neuron name %q", n.Name)
		}
		switch n.Response {
		case "", "identity", "tanh":
		default:
			return fmt.Errorf("neuron %q has unknown response %q (use 'identity' or 'tanh')", n.Name, n.Response)
		}
		known[n.Name] = true
	}

	for _, c := range sc.Connections {
		if !known[c.From] {
			return fmt.Errorf("connection references unknown neuron %q", c.From)
		}
		if !known[c.To] {
			return fmt.Errorf("connection references unknown neuron %q", c.To)
		}
		if c.Modulator != "" && !known[c.Modulator] {
			return fmt.Errorf("connection %s->%s references unknown modulator %q", c.From, c.To, c.Modulator)
		}
	}

	if len(sc.Inputs) == 0 {
		return fmt.Errorf("scenario %q declares no inputs", sc.Name)
	}
	for _, name := range sc.Inputs {
		if !known[name] {
			return fmt.Errorf("input references unknown neuron %q", name)
		}
	}
	if len(sc.Outputs) == 0 {
		return fmt.Errorf("scenario %q declares no outputs", sc.Name)
	}
	for _, name := range sc.Outputs {
		if !known[name] {
			return fmt.Errorf("output references unknown neuron %q", name)
		}
	}

	for i, p := range sc.Patterns {
		if len(p) != len(sc.Inputs) {
			return fmt.Errorf("pattern %d has %d values, want %d (one per input)", i, len(p), len(sc.Inputs))
		}
	}
	if sc.Config.TicksPerPattern < 1 {
		return fmt.Errorf("ticks_per_pattern must be at least 1, got %d", sc.Config.TicksPerPattern)
	}
	return nil
}

// BuildAgent constructs a floatnet agent from the scenario wiring. Neuron
// names are mapped to identifiers in declaration order; the finalized brain
// relabels them into traversal order and the body follows.
func (sc *Scenario) BuildAgent() (floatnet.Agent, error) {
	names := make([]string, len(sc.Neurons))
	for i, n := range sc.Neurons {
		names[i] = n.Name
	}
	handles := ident.BuildMapping(names)

	b := floatnet.NewBrain()
	e := b.Edit()
	for _, n := range sc.Neurons {
		gene := floatnet.Identity()
		if n.Response == "tanh" {
			gain := n.Gain
			if gain == 0 {
				gain = 1
			}
			gene = floatnet.Tanh(gain)
		} else if n.Gain != 0 {
			gene.Gain = n.Gain
		}
		*e.Nodes = append(*e.Nodes, floatnet.Node{ID: handles[n.Name], Gene: gene})
	}
	for _, c := range sc.Connections {
		gene := floatnet.Direct(c.Weight)
		if c.Modulator != "" {
			gene = floatnet.Modulated(c.Weight, handles[c.Modulator])
		}
		*e.Edges = append(*e.Edges, floatnet.Edge{
			From: handles[c.From],
			To:   handles[c.To],
			Gene: gene,
		})
	}
	for _, name := range sc.Inputs {
		*e.Inputs = append(*e.Inputs, handles[name])
	}
	for _, name := range sc.Outputs {
		*e.Outputs = append(*e.Outputs, handles[name])
	}
	if err := e.Finish(); err != nil {
		return floatnet.Agent{}, fmt.Errorf("building brain: %w", err)
	}

	// Finalization relabeled the declared handles; the body attaches to the
	// packed ones.
	remap := e.Remap()
	packed := make(map[string]ident.ID, len(handles))
	for name, h := range handles {
		id, ok := remap[h]
		if !ok {
			return floatnet.Agent{}, fmt.Errorf("neuron %q was not retained by finalization", name)
		}
		packed[name] = id
	}

	sensors := make([]body.Sensor[floatnet.SensorGene], len(sc.Inputs))
	for i, name := range sc.Inputs {
		sensors[i] = body.Sensor[floatnet.SensorGene]{
			Neuron: packed[name],
			Gene:   floatnet.SensorGene{Channel: name},
		}
	}
	actions := make([]body.Action[floatnet.ActionGene], len(sc.Outputs))
	for i, name := range sc.Outputs {
		actions[i] = body.Action[floatnet.ActionGene]{
			Neuron: packed[name],
			Gene:   floatnet.ActionGene{Channel: name},
		}
	}

	return floatnet.Agent{
		Brain:  b,
		Body:   body.New(sensors, actions),
		Genome: floatnet.Genome{Label: sc.Name},
	}, nil
}
