// Package floatnet provides the float64 reference instantiation of the
// execution engine: summing collector, weighted connections with optional
// modulation by a named neuron, and neurons with an identity or tanh
// response. It is the network the CLI runs and the end-to-end tests target.
package floatnet

import (
	"math"

	"github.com/nvandessel/synaptic/internal/arena"
	"github.com/nvandessel/synaptic/internal/body"
	"github.com/nvandessel/synaptic/internal/engine"
	"github.com/nvandessel/synaptic/internal/graph"
	"github.com/nvandessel/synaptic/internal/ident"
)

// ResponseKind selects a neuron's activation response.
type ResponseKind uint8

const (
	// ResponseIdentity passes the aggregated input through unchanged.
	ResponseIdentity ResponseKind = iota
	// ResponseTanh squashes the aggregated input into (-1, 1).
	ResponseTanh
)

// NeuronGene is the evolvable per-neuron payload.
type NeuronGene struct {
	Kind ResponseKind
	Gain float64
}

// Identity returns a gene for a pass-through neuron.
func Identity() NeuronGene { return NeuronGene{Kind: ResponseIdentity, Gain: 1} }

// Tanh returns a gene for a squashing neuron with the given gain.
func Tanh(gain float64) NeuronGene { return NeuronGene{Kind: ResponseTanh, Gain: gain} }

// NeuronConfig is shared by every neuron during a tick. Leak blends the
// previous value into the new one, giving a global recurrence knob.
type NeuronConfig struct {
	Leak float64
}

// Neuron is per-node runtime state.
type Neuron struct {
	value float64
}

// Activate computes the new stored value from the aggregated input.
func (n *Neuron) Activate(input float64, gene NeuronGene, cfg NeuronConfig) {
	v := input*gene.Gain + cfg.Leak*n.value
	if gene.Kind == ResponseTanh {
		v = math.Tanh(v)
	}
	n.value = v
}

// Output returns the current stored value.
func (n *Neuron) Output() float64 { return n.value }

// ConnGene is the evolvable per-connection payload. When Modulator is not
// None the connection multiplies its signal by that neuron's current
// output, a non-local read resolved at tick time.
type ConnGene struct {
	Weight    float64
	Modulator ident.ID
}

// Direct returns a gene for a plain weighted connection.
func Direct(weight float64) ConnGene {
	return ConnGene{Weight: weight, Modulator: ident.None}
}

// Modulated returns a gene for a connection scaled by another neuron.
func Modulated(weight float64, by ident.ID) ConnGene {
	return ConnGene{Weight: weight, Modulator: by}
}

// RemapGene keeps the modulation target consistent across finalization.
func (g *ConnGene) RemapGene(m map[ident.ID]ident.ID) {
	if g.Modulator == ident.None {
		return
	}
	if id, ok := m[g.Modulator]; ok {
		g.Modulator = id
	}
}

// ConnConfig is shared by every connection during a tick.
type ConnConfig struct{}

// Conn is per-edge runtime state. Propagation itself is stateless here; the
// struct exists so richer connection models can carry state.
type Conn struct{}

// Modulation appends the modulator handle, if any.
func (c *Conn) Modulation(dst []ident.ID, gene ConnGene, _ ConnConfig) []ident.ID {
	if gene.Modulator != ident.None {
		dst = append(dst, gene.Modulator)
	}
	return dst
}

// Propagate scales the source output by the weight and any modulation value.
func (c *Conn) Propagate(input float64, modulation []float64, gene ConnGene, _ ConnConfig) float64 {
	v := input * gene.Weight
	if len(modulation) > 0 {
		v *= modulation[0]
	}
	return v
}

// SumConfig configures the summing collector.
type SumConfig struct{}

// Sum aggregates incoming values by addition.
type Sum struct {
	total float64
}

func (s *Sum) Push(in float64, _ SumConfig) { s.total += in }

func (s *Sum) Collect(_ SumConfig) float64 { return s.total }

func (s *Sum) Clear(_ SumConfig) { s.total = 0 }

// Aliases binding the generic core to the float64 pipeline.
type (
	Brain  = graph.Brain[NeuronGene, ConnGene]
	Edit   = graph.Edit[NeuronGene, ConnGene]
	Node   = graph.Node[NeuronGene]
	Edge   = graph.Edge[ConnGene]
	Body   = body.Body[SensorGene, ActionGene]
	Config = engine.Config[NeuronConfig, ConnConfig, SumConfig]
	State  = engine.State[
		Neuron, Conn, Sum,
		float64, float64, float64,
		NeuronGene, ConnGene,
		NeuronConfig, ConnConfig, SumConfig,
		*Neuron, *Conn, *Sum,
	]
)

// SensorGene names the environment channel a sensor neuron reads.
type SensorGene struct {
	Channel string
}

// ActionGene names the environment channel an action neuron drives.
type ActionGene struct {
	Channel string
}

// NewBrain returns an empty float64 brain.
func NewBrain() *Brain { return graph.New[NeuronGene, ConnGene]() }

// NewState allocates execution state for b in a.
func NewState(b *Brain, bd *Body, a *arena.Arena) (*State, error) {
	return engine.NewState[
		Neuron, Conn, Sum,
		float64, float64, float64,
		NeuronGene, ConnGene,
		NeuronConfig, ConnConfig, SumConfig,
		*Neuron, *Conn, *Sum,
	](b, bd.SensorNeurons(), bd.ActionNeurons(), a)
}
