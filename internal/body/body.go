// Package body holds the environment interface of an agent: sensor and
// action gene lists, each tagged with the neuron handle it attaches to.
// The lists stay sorted by handle so the execution engine can pair them
// with the dense node order in a single merge pass.
package body

import (
	"slices"

	"github.com/nvandessel/synaptic/internal/ident"
)

// Sensor attaches a sensor gene to a neuron.
type Sensor[G any] struct {
	Neuron ident.ID
	Gene   G
}

// Action attaches an action gene to a neuron.
type Action[G any] struct {
	Neuron ident.ID
	Gene   G
}

// Body is the sensor/action surface of one agent.
type Body[SG, AG any] struct {
	sensors []Sensor[SG]
	actions []Action[AG]
}

// New builds a body from the given sensors and actions, sorting both lists
// by handle.
func New[SG, AG any](sensors []Sensor[SG], actions []Action[AG]) *Body[SG, AG] {
	b := &Body[SG, AG]{
		sensors: slices.Clone(sensors),
		actions: slices.Clone(actions),
	}
	b.sort()
	return b
}

func (b *Body[SG, AG]) sort() {
	slices.SortStableFunc(b.sensors, func(x, y Sensor[SG]) int {
		return int(x.Neuron) - int(y.Neuron)
	})
	slices.SortStableFunc(b.actions, func(x, y Action[AG]) int {
		return int(x.Neuron) - int(y.Neuron)
	})
}

// SensorNeurons returns the sensor handles in ascending order.
func (b *Body[SG, AG]) SensorNeurons() []ident.ID {
	out := make([]ident.ID, len(b.sensors))
	for i := range b.sensors {
		out[i] = b.sensors[i].Neuron
	}
	return out
}

// ActionNeurons returns the action handles in ascending order.
func (b *Body[SG, AG]) ActionNeurons() []ident.ID {
	out := make([]ident.ID, len(b.actions))
	for i := range b.actions {
		out[i] = b.actions[i].Neuron
	}
	return out
}

// Sensors returns the sensor records sorted by handle.
func (b *Body[SG, AG]) Sensors() []Sensor[SG] { return b.sensors }

// Actions returns the action records sorted by handle.
func (b *Body[SG, AG]) Actions() []Action[AG] { return b.actions }

// SensorGenes returns the sensor genes in handle order.
func (b *Body[SG, AG]) SensorGenes() []SG {
	out := make([]SG, len(b.sensors))
	for i := range b.sensors {
		out[i] = b.sensors[i].Gene
	}
	return out
}

// ActionGenes returns the action genes in handle order.
func (b *Body[SG, AG]) ActionGenes() []AG {
	out := make([]AG, len(b.actions))
	for i := range b.actions {
		out[i] = b.actions[i].Gene
	}
	return out
}

// SensorCount returns the number of sensors.
func (b *Body[SG, AG]) SensorCount() int { return len(b.sensors) }

// ActionCount returns the number of actions.
func (b *Body[SG, AG]) ActionCount() int { return len(b.actions) }

// Remap rewrites every handle tag through the old-to-new map produced by
// brain finalization and restores the handle ordering. Handles absent from
// the map are left unchanged.
func (b *Body[SG, AG]) Remap(m map[ident.ID]ident.ID) {
	for i := range b.sensors {
		if id, ok := m[b.sensors[i].Neuron]; ok {
			b.sensors[i].Neuron = id
		}
	}
	for i := range b.actions {
		if id, ok := m[b.actions[i].Neuron]; ok {
			b.actions[i].Neuron = id
		}
	}
	b.sort()
}
