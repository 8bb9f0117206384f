package nhood

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/knn"
)

// Refiner collapses redundant raw samples into anchors representative
// of local density. For every raw sample it synthesizes a centroid at
// the per-dimension median of the sample's k nearest neighbours, then
// snaps each centroid back to the nearest real observation.
type Refiner struct {
	oracle knn.Oracle
	logger zerolog.Logger
}

// NewRefiner creates a refiner backed by the given KNN oracle.
func NewRefiner(oracle knn.Oracle, logger zerolog.Logger) *Refiner {
	return &Refiner{oracle: oracle, logger: logger}
}

// Refine maps each raw sampled vertex to an anchor vertex. The result
// has exactly one anchor per raw sample and is not deduplicated; the
// caller reduces it to a set. k must match the parameter used to build
// the neighbour graph by convention.
func (r *Refiner) Refine(embedding *mat.Dense, sampled []int, k int) ([]int, error) {
	if embedding == nil {
		return nil, fmt.Errorf("%w: refinement requires a reduced-dimensional embedding",
			errdefs.ErrInvalidParameter)
	}
	if len(sampled) == 0 {
		return nil, fmt.Errorf("%w: no sampled vertices to refine", errdefs.ErrInvalidParameter)
	}

	n, d := embedding.Dims()
	m := len(sampled)

	// Step 1: k nearest neighbours of each raw sample in the embedding.
	nn, err := r.oracle.Query(embedding, sampled, k)
	if err != nil {
		return nil, fmt.Errorf("refinement knn query failed: %w", err)
	}

	// Step 2: per-dimension median of each sample's neighbour
	// coordinates gives one synthetic centroid per raw sample.
	centroids := mat.NewDense(m, d, nil)
	coords := make([]float64, k)
	for i := 0; i < m; i++ {
		for j := 0; j < d; j++ {
			for rank, nb := range nn.Index[i] {
				coords[rank] = embedding.At(nb, j)
			}
			centroids.Set(i, j, median(coords))
		}
	}

	// Steps 3-4: stack the centroid block on top of the embedding and
	// rank m+1 neighbours per centroid. The +1 guarantees a real
	// observation survives even when all m centroids cluster together.
	combined := mat.NewDense(m+n, d, nil)
	combined.Slice(0, m, 0, d).(*mat.Dense).Copy(centroids)
	combined.Slice(m, m+n, 0, d).(*mat.Dense).Copy(embedding)

	ranked, err := r.oracle.QueryPoints(combined, centroids, m+1)
	if err != nil {
		return nil, fmt.Errorf("refinement snap query failed: %w", err)
	}

	// Steps 5-6: the first ranked candidate outside the centroid block
	// is the anchor; combined indices shift back by the block size.
	anchors := make([]int, m)
	for i := 0; i < m; i++ {
		found := false
		for _, c := range ranked.Index[i] {
			if c >= m {
				anchors[i] = c - m
				found = true
				break
			}
		}
		if !found {
			// Cannot happen: an m+1 candidate list over m centroids always
			// contains a real observation.
			return nil, fmt.Errorf("no non-centroid candidate for sample %d in %d ranks",
				sampled[i], m+1)
		}
	}

	r.logger.Debug().
		Int("raw_samples", m).
		Int("k", k).
		Int("dimensions", d).
		Msg("Refined raw samples to anchors")

	return anchors, nil
}

// median returns the middle value of xs, averaging the two central
// values for even lengths. xs is reordered in place.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
