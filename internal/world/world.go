// Package world drives populations of agents through simulation ticks. It
// owns per-agent execution state, the rotating arena pair backing it, and
// the controller that connects sensor and action values to an environment.
package world

import (
	"fmt"
	"log/slog"

	"github.com/nvandessel/synaptic/internal/agent"
	"github.com/nvandessel/synaptic/internal/arena"
	"github.com/nvandessel/synaptic/internal/engine"
)

// Controller connects agents to an environment. ReadSensors fills dst (one
// slot per sensor gene) and reports whether the agent is live this tick;
// dormant agents are skipped. PerformActions applies a tick's outputs.
type Controller[SG, AG, In, Out any] interface {
	ReadSensors(sensors []SG, dst []In) bool
	PerformActions(actions []AG, outputs []Out)
}

// World holds a population and its runtime state. Each agent owns
// independent execution state; a single agent's tick is strictly
// sequential. All arena allocation happens in the setup phase or at the
// explicit rotation point, never during stepping.
type World[
	A, P, C any,
	V, S, U any,
	NG, EG any,
	AC, PC, CC any,
	SG, AG, G any,
	PA engine.ActivatorPtr[A, U, V, NG, AC],
	PP engine.PropagatorPtr[P, V, S, EG, PC],
	PCol engine.CollectorPtr[C, S, U, CC],
] struct {
	agents []agent.Agent[NG, EG, SG, AG, G]
	states []*engine.State[A, P, C, V, S, U, NG, EG, AC, PC, CC, PA, PP, PCol]

	// Cached per-agent gene views, rebuilt with the states.
	sensorGenes [][]SG
	actionGenes [][]AG

	sensorBuf []S
	actionBuf []V

	controller Controller[SG, AG, S, V]
	arenas     [2]*arena.Arena
	active     int
	ticks      uint64
	log        *slog.Logger
}

// New builds a world from an initial population, allocating execution
// state for every agent in a fresh arena pair. A nil logger disables
// logging.
func New[
	A, P, C any,
	V, S, U any,
	NG, EG any,
	AC, PC, CC any,
	SG, AG, G any,
	PA engine.ActivatorPtr[A, U, V, NG, AC],
	PP engine.PropagatorPtr[P, V, S, EG, PC],
	PCol engine.CollectorPtr[C, S, U, CC],
](
	controller Controller[SG, AG, S, V],
	agents []agent.Agent[NG, EG, SG, AG, G],
	log *slog.Logger,
) (*World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol], error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w := &World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol]{
		agents:     agents,
		controller: controller,
		arenas:     [2]*arena.Arena{arena.New(), arena.New()},
		log:        log,
	}
	if err := w.buildStates(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol]) buildStates() error {
	w.states = w.states[:0]
	w.sensorGenes = w.sensorGenes[:0]
	w.actionGenes = w.actionGenes[:0]
	for i := range w.agents {
		ag := &w.agents[i]
		st, err := engine.NewState[A, P, C, V, S, U, NG, EG, AC, PC, CC, PA, PP, PCol](
			ag.Brain, ag.Body.SensorNeurons(), ag.Body.ActionNeurons(), w.arenas[w.active],
		)
		if err != nil {
			return fmt.Errorf("world: agent %d: %w", i, err)
		}
		w.states = append(w.states, st)
		w.sensorGenes = append(w.sensorGenes, ag.Body.SensorGenes())
		w.actionGenes = append(w.actionGenes, ag.Body.ActionGenes())
	}
	w.log.Debug("world population ready", "agents", len(w.agents))
	return nil
}

// Agents returns the current population.
func (w *World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol]) Agents() []agent.Agent[NG, EG, SG, AG, G] {
	return w.agents
}

// Ticks returns the number of completed Step calls.
func (w *World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol]) Ticks() uint64 {
	return w.ticks
}

// Step advances every live agent by one tick: read sensors, run the brain,
// apply actions.
func (w *World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol]) Step(cfg *engine.Config[AC, PC, CC]) error {
	for i := range w.agents {
		ag := &w.agents[i]

		sensors := w.sensorGenes[i]
		if cap(w.sensorBuf) < len(sensors) {
			w.sensorBuf = make([]S, len(sensors))
		}
		w.sensorBuf = w.sensorBuf[:len(sensors)]
		if !w.controller.ReadSensors(sensors, w.sensorBuf) {
			continue
		}

		actions := w.actionGenes[i]
		if cap(w.actionBuf) < len(actions) {
			w.actionBuf = make([]V, len(actions))
		}
		w.actionBuf = w.actionBuf[:len(actions)]

		if err := w.states[i].Step(ag.Brain, w.sensorBuf, w.actionBuf, cfg); err != nil {
			return fmt.Errorf("world: agent %d: %w", i, err)
		}
		w.controller.PerformActions(actions, w.actionBuf)
	}
	w.ticks++
	return nil
}

// RotateArenas migrates every agent's buffers into the standby arena and
// bulk-frees the vacated one. This is a quiescence point: no tick may be in
// flight and no reference into the old arena may survive the call.
func (w *World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol]) RotateArenas() {
	standby := 1 - w.active
	for _, st := range w.states {
		st.MoveBuffers(w.arenas[standby])
	}
	w.arenas[w.active].FreeAll()
	w.active = standby
	w.log.Debug("arenas rotated", "active", w.active)
}

// Repopulate replaces the population with children bred by fn and rebuilds
// all execution state from scratch. Both arenas are bulk-freed first; no
// state from the previous generation survives.
func (w *World[A, P, C, V, S, U, NG, EG, AC, PC, CC, SG, AG, G, PA, PP, PCol]) Repopulate(fn agent.PopulateFunc[NG, EG, SG, AG, G], count int) error {
	children, err := fn(w.agents, count)
	if err != nil {
		return fmt.Errorf("world: populate: %w", err)
	}
	w.agents = children
	w.arenas[0].FreeAll()
	w.arenas[1].FreeAll()
	w.active = 0
	if err := w.buildStates(); err != nil {
		return err
	}
	w.log.Debug("population replaced", "agents", len(w.agents))
	return nil
}
