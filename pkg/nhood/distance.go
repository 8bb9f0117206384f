package nhood

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
)

// KthDistances computes, for every neighbourhood, the Euclidean
// distance from its anchor to its k-th nearest member in the embedding.
// Neighbourhoods with fewer than k members fall back to the distance of
// their farthest member; empty neighbourhoods yield NaN. The result is
// the per-neighbourhood k-distance consumed by spatial FDR weighting.
func KthDistances(embedding *mat.Dense, inc *Incidence, k int) ([]float64, error) {
	if embedding == nil {
		return nil, fmt.Errorf("%w: distance computation requires an embedding",
			errdefs.ErrInvalidParameter)
	}
	if inc == nil {
		return nil, fmt.Errorf("%w: run neighbourhood construction first",
			errdefs.ErrMissingPrecomputation)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d",
			errdefs.ErrInvalidParameter, k)
	}
	n, d := embedding.Dims()
	if rows, _ := inc.Dims(); rows != n {
		return nil, fmt.Errorf("%w: incidence matrix has %d rows for %d embedding rows",
			errdefs.ErrDimensionMismatch, rows, n)
	}

	out := make([]float64, inc.Cols())
	anchorRow := make([]float64, d)
	memberRow := make([]float64, d)
	for j := 0; j < inc.Cols(); j++ {
		members := inc.Column(j)
		if len(members) == 0 {
			out[j] = math.NaN()
			continue
		}
		mat.Row(anchorRow, inc.Anchor(j), embedding)
		dists := make([]float64, len(members))
		for i, v := range members {
			mat.Row(memberRow, v, embedding)
			dists[i] = floats.Distance(anchorRow, memberRow, 2)
		}
		sort.Float64s(dists)
		if k <= len(dists) {
			out[j] = dists[k-1]
		} else {
			out[j] = dists[len(dists)-1]
		}
	}
	return out, nil
}
