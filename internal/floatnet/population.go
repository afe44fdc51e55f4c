package floatnet

import (
	"log/slog"

	"github.com/nvandessel/synaptic/internal/agent"
	"github.com/nvandessel/synaptic/internal/world"
)

// Genome is the demo genome payload carried by floatnet agents. The core
// never reads it; breeders use it to label lineages and seed variation.
type Genome struct {
	Label string
	Seed  int64
}

// Population-level aliases binding the generic world to the float64
// pipeline.
type (
	Agent      = agent.Agent[NeuronGene, ConnGene, SensorGene, ActionGene, Genome]
	Populate   = agent.PopulateFunc[NeuronGene, ConnGene, SensorGene, ActionGene, Genome]
	Controller = world.Controller[SensorGene, ActionGene, float64, float64]
	World      = world.World[
		Neuron, Conn, Sum,
		float64, float64, float64,
		NeuronGene, ConnGene,
		NeuronConfig, ConnConfig, SumConfig,
		SensorGene, ActionGene, Genome,
		*Neuron, *Conn, *Sum,
	]
)

// NewWorld builds a world over the float64 pipeline.
func NewWorld(controller Controller, agents []Agent, log *slog.Logger) (*World, error) {
	return world.New[
		Neuron, Conn, Sum,
		float64, float64, float64,
		NeuronGene, ConnGene,
		NeuronConfig, ConnConfig, SumConfig,
		SensorGene, ActionGene, Genome,
		*Neuron, *Conn, *Sum,
	](controller, agents, log)
}
