// Package nhood implements neighbourhood construction over a cell-cell
// neighbour graph: stochastic vertex sampling, refinement of raw
// samples into well-separated anchors, the vertex-by-neighbourhood
// incidence matrix, and per-neighbourhood distance summaries.
package nhood

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/graphs"
)

// SampleVertices draws floor(prop*N) distinct vertices uniformly at
// random without replacement, returned in draw order. The caller owns
// the rng, which makes runs reproducible under a fixed seed.
func SampleVertices(g graphs.Accessor, prop float64, rng *rand.Rand) ([]int, error) {
	if g == nil || !g.IsValid() {
		return nil, fmt.Errorf("%w: graph is absent or not a valid neighbour graph",
			errdefs.ErrInvalidParameter)
	}
	if prop <= 0 || prop >= 1 {
		return nil, fmt.Errorf("%w: sampling proportion must be in (0,1), got %g",
			errdefs.ErrInvalidParameter, prop)
	}

	n := g.VertexCount()
	size := int(math.Floor(prop * float64(n)))
	return rng.Perm(n)[:size], nil
}
