package spatialfdr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/nhood"
)

// Weighting selects how per-neighbourhood weights are derived before
// the weighted Benjamini-Hochberg adjustment. Schemes are mutually
// exclusive.
type Weighting string

const (
	// KDistance weights each neighbourhood by the inverse of its k-th
	// nearest-neighbour radius. Dense neighbourhoods get lower weight.
	KDistance Weighting = "k-distance"
	// NeighbourDistance weights by the inverse distance from a
	// neighbourhood's anchor to its nearest other anchor. Isolated
	// neighbourhoods are up-weighted.
	NeighbourDistance Weighting = "neighbour-distance"
	// Max propagates each vertex's most significant p-value across its
	// overlapping neighbourhoods and derives weights from which
	// neighbourhood carries it.
	Max Weighting = "max"
	// None skips the correction entirely; the result is all-NaN.
	None Weighting = "none"
)

// ParseWeighting resolves a configuration string to a Weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch Weighting(s) {
	case KDistance, NeighbourDistance, Max, None:
		return Weighting(s), nil
	default:
		return "", fmt.Errorf("%w: unrecognized weighting scheme %q (want %q, %q, %q or %q)",
			errdefs.ErrInvalidParameter, s, KDistance, NeighbourDistance, Max, None)
	}
}

// kDistanceWeights inverts the per-neighbourhood k-distances. A
// non-positive or NaN distance yields a NaN weight, which excludes the
// neighbourhood from the adjustment.
func kDistanceWeights(distances []float64) []float64 {
	w := make([]float64, len(distances))
	for j, d := range distances {
		if d > 0 && !math.IsNaN(d) {
			w[j] = 1 / d
		} else {
			w[j] = math.NaN()
		}
	}
	return w
}

// neighbourDistanceWeights inverts the distance between each anchor and
// its nearest other anchor in the embedding. A single neighbourhood has
// no other anchor and keeps weight 1.
func neighbourDistanceWeights(embedding *mat.Dense, anchors []int) []float64 {
	_, d := embedding.Dims()
	w := make([]float64, len(anchors))
	a := make([]float64, d)
	b := make([]float64, d)
	for j, aj := range anchors {
		if len(anchors) == 1 {
			w[j] = 1
			break
		}
		mat.Row(a, aj, embedding)
		nearest := math.Inf(1)
		for l, al := range anchors {
			if l == j {
				continue
			}
			mat.Row(b, al, embedding)
			if dist := floats.Distance(a, b, 2); dist < nearest {
				nearest = dist
			}
		}
		if nearest > 0 && !math.IsInf(nearest, 1) {
			w[j] = 1 / nearest
		} else {
			w[j] = math.NaN()
		}
	}
	return w
}

// maxWeights assigns every vertex to the overlapping neighbourhood with
// its most significant p-value (ties to the lowest column index) and
// weights each neighbourhood by how many of its members it wins.
// Neighbourhoods that carry the best signal for no vertex keep weight
// zero and cannot dilute the adjustment of those that do.
func maxWeights(inc *nhood.Incidence, pvalues []float64) []float64 {
	_, cols := inc.Dims()
	w := make([]float64, cols)

	best := make(map[int]int) // vertex -> winning column
	for j := 0; j < cols; j++ {
		if math.IsNaN(pvalues[j]) {
			w[j] = math.NaN()
			continue
		}
		for _, v := range inc.Column(j) {
			cur, seen := best[v]
			if !seen || pvalues[j] < pvalues[cur] {
				best[v] = j
			}
		}
	}
	for _, j := range best {
		w[j]++
	}
	return w
}
