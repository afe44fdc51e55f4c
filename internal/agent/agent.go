// Package agent bundles the genetic data of one agent: its brain, its body
// and an opaque genome payload. The core never inspects or mutates the
// genome; variation logic is supplied by the population through
// PopulateFunc.
package agent

import (
	"github.com/nvandessel/synaptic/internal/body"
	"github.com/nvandessel/synaptic/internal/graph"
)

// Agent carries everything needed to build runtime state for one
// individual: the evolvable computation graph, the sensor/action surface
// and the genome payload the breeder operates on.
type Agent[NG, EG, SG, AG, G any] struct {
	Brain  *graph.Brain[NG, EG]
	Body   *body.Body[SG, AG]
	Genome G
}

// PopulateFunc breeds count children from the given parents. The world
// calls it between generations; implementations own selection, crossover
// and mutation.
type PopulateFunc[NG, EG, SG, AG, G any] func(parents []Agent[NG, EG, SG, AG, G], count int) ([]Agent[NG, EG, SG, AG, G], error)
