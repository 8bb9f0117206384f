// Package spatialfdr adjusts neighbourhood-level p-values for multiple
// testing while accounting for overlap between neighbourhoods and for
// uneven neighbourhood density across the graph. Weights derived from
// graph/embedding geometry feed a weighted Benjamini-Hochberg step-up
// procedure, so regions covered by many small overlapping
// neighbourhoods do not receive disproportionate statistical power.
package spatialfdr

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/graphs"
	"github.com/zktuong/miloR/pkg/nhood"
)

// Params collects the inputs of the correction. PValues are ordered by
// neighbourhood column; callers must have joined raw test results to
// columns by explicit neighbourhood identifier, never by position.
type Params struct {
	Incidence *nhood.Incidence
	Graph     graphs.Accessor
	Weighting Weighting
	K         int

	// PValues holds one raw p-value per incidence column. NaN entries
	// carry through as NaN.
	PValues []float64

	// Distances holds the per-neighbourhood k-distance summaries
	// (required by the k-distance scheme).
	Distances []float64

	// Embedding is the reduced-dimensional matrix anchors live in
	// (required by the neighbour-distance scheme).
	Embedding *mat.Dense
}

// Correct computes one adjusted q-value per neighbourhood, aligned to
// the input p-value ordering. Every non-NaN result lies in [0,1].
func Correct(p Params, logger zerolog.Logger) ([]float64, error) {
	if _, err := ParseWeighting(string(p.Weighting)); err != nil {
		return nil, err
	}
	if p.Incidence == nil {
		return nil, fmt.Errorf("%w: run neighbourhood construction first",
			errdefs.ErrMissingPrecomputation)
	}
	if cols := p.Incidence.Cols(); cols != len(p.PValues) {
		return nil, fmt.Errorf("%w: incidence matrix has %d columns but %d p-values supplied",
			errdefs.ErrDimensionMismatch, cols, len(p.PValues))
	}
	if p.Graph != nil {
		if rows, _ := p.Incidence.Dims(); p.Graph.VertexCount() != rows {
			return nil, fmt.Errorf("%w: graph has %d vertices but incidence matrix has %d rows",
				errdefs.ErrDimensionMismatch, p.Graph.VertexCount(), rows)
		}
	}

	if p.Weighting == None {
		out := make([]float64, len(p.PValues))
		for i := range out {
			out[i] = math.NaN()
		}
		logger.Warn().Msg("Weighting scheme 'none' selected, spatial FDR not applied")
		return out, nil
	}

	weights, err := deriveWeights(p)
	if err != nil {
		return nil, err
	}

	adjusted := weightedBH(p.PValues, weights)

	logger.Debug().
		Str("weighting", string(p.Weighting)).
		Int("nhoods", len(p.PValues)).
		Msg("Spatial FDR correction applied")

	return adjusted, nil
}

func deriveWeights(p Params) ([]float64, error) {
	switch p.Weighting {
	case KDistance:
		if len(p.Distances) != len(p.PValues) {
			return nil, fmt.Errorf("%w: %d distance summaries for %d neighbourhoods; run the distance computation first",
				errdefs.ErrMissingPrecomputation, len(p.Distances), len(p.PValues))
		}
		return kDistanceWeights(p.Distances), nil
	case NeighbourDistance:
		if p.Embedding == nil {
			return nil, fmt.Errorf("%w: neighbour-distance weighting requires an embedding",
				errdefs.ErrInvalidParameter)
		}
		return neighbourDistanceWeights(p.Embedding, p.Incidence.Anchors()), nil
	case Max:
		return maxWeights(p.Incidence, p.PValues), nil
	default:
		return nil, fmt.Errorf("%w: unrecognized weighting scheme %q",
			errdefs.ErrInvalidParameter, p.Weighting)
	}
}

// weightedBH applies the weighted Benjamini-Hochberg step-up procedure.
// Neighbourhoods are sorted by ascending raw p-value; at sorted rank i
// with cumulative weight W_i the statistic is p_i * Wtot / W_i, then a
// running minimum from the bottom rank upward restores monotonicity and
// values are clipped to 1. Entries with NaN p-value or NaN weight stay
// NaN and do not contribute to the weight sums.
func weightedBH(pvalues, weights []float64) []float64 {
	valid := make([]int, 0, len(pvalues))
	for i := range pvalues {
		if !math.IsNaN(pvalues[i]) && !math.IsNaN(weights[i]) {
			valid = append(valid, i)
		}
	}

	out := make([]float64, len(pvalues))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(valid) == 0 {
		return out
	}

	sort.Slice(valid, func(a, b int) bool {
		if pvalues[valid[a]] != pvalues[valid[b]] {
			return pvalues[valid[a]] < pvalues[valid[b]]
		}
		return valid[a] < valid[b]
	})

	total := 0.0
	for _, i := range valid {
		total += weights[i]
	}

	adj := make([]float64, len(valid))
	cum := 0.0
	for rank, i := range valid {
		cum += weights[i]
		if cum > 0 {
			adj[rank] = pvalues[i] * total / cum
		} else {
			adj[rank] = math.Inf(1)
		}
	}

	// Step-up monotonization.
	runMin := math.Inf(1)
	for rank := len(valid) - 1; rank >= 0; rank-- {
		if adj[rank] < runMin {
			runMin = adj[rank]
		}
		adj[rank] = math.Min(runMin, 1)
	}

	for rank, i := range valid {
		out[i] = adj[rank]
	}
	return out
}
