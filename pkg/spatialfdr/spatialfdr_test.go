package spatialfdr

import (
	"math"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/graphs"
	"github.com/zktuong/miloR/pkg/nhood"
)

func pathGraph(n int) *graphs.AdjacencyGraph {
	g := graphs.NewAdjacencyGraph(n)
	for v := 0; v+1 < n; v++ {
		if err := g.AddEdge(v, v+1); err != nil {
			panic(err)
		}
	}
	return g
}

func pathIncidence(t *testing.T, n int, anchors []int) *nhood.Incidence {
	t.Helper()
	inc, err := nhood.BuildMembership(pathGraph(n), anchors)
	require.NoError(t, err)
	return inc
}

func ones(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func TestParseWeighting(t *testing.T) {
	for _, s := range []string{"k-distance", "neighbour-distance", "max", "none"} {
		_, err := ParseWeighting(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseWeighting("bonferroni")
	assert.ErrorIs(t, err, errdefs.ErrInvalidParameter)
}

func TestCorrectDimensionMismatch(t *testing.T) {
	inc := pathIncidence(t, 12, []int{1, 3, 5, 7, 9})
	_, err := Correct(Params{
		Incidence: inc,
		Weighting: KDistance,
		PValues:   []float64{0.01, 0.02, 0.03, 0.04},
		Distances: ones(5),
	}, zerolog.Nop())
	assert.ErrorIs(t, err, errdefs.ErrDimensionMismatch)
}

func TestCorrectNone(t *testing.T) {
	inc := pathIncidence(t, 10, []int{1, 5, 8})
	out, err := Correct(Params{
		Incidence: inc,
		Weighting: None,
		PValues:   []float64{0.01, 0.02, 0.03},
	}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, q := range out {
		assert.True(t, math.IsNaN(q))
	}
}

func TestCorrectEqualWeightsIsClassicBH(t *testing.T) {
	inc := pathIncidence(t, 12, []int{1, 3, 6, 9})
	out, err := Correct(Params{
		Incidence: inc,
		Weighting: KDistance,
		PValues:   []float64{0.005, 0.02, 0.03, 0.05},
		Distances: ones(4),
	}, zerolog.Nop())
	require.NoError(t, err)

	want := []float64{0.02, 0.04, 0.04, 0.05}
	for i := range want {
		assert.InDelta(t, want[i], out[i], 1e-12, "q[%d]", i)
	}
}

func TestCorrectMonotoneAndBounded(t *testing.T) {
	inc := pathIncidence(t, 14, []int{1, 3, 5, 7, 9, 11})
	pvalues := []float64{0.4, 0.01, 0.9, 0.02, 0.2, 0.05}
	out, err := Correct(Params{
		Incidence: inc,
		Weighting: KDistance,
		PValues:   pvalues,
		Distances: []float64{0.5, 2, 1, 0.25, 3, 1.5},
	}, zerolog.Nop())
	require.NoError(t, err)

	order := make([]int, len(pvalues))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pvalues[order[a]] < pvalues[order[b]] })

	prev := 0.0
	for _, i := range order {
		assert.GreaterOrEqual(t, out[i], prev)
		assert.GreaterOrEqual(t, out[i], 0.0)
		assert.LessOrEqual(t, out[i], 1.0)
		prev = out[i]
	}
}

func TestCorrectMaxWeightingOverlap(t *testing.T) {
	// Two neighbourhoods with identical member sets {2,3,4}.
	g := graphs.NewAdjacencyGraph(5)
	for _, anchor := range []int{0, 1} {
		for _, v := range []int{2, 3, 4} {
			require.NoError(t, g.AddEdge(anchor, v))
		}
	}
	inc, err := nhood.BuildMembership(g, []int{0, 1})
	require.NoError(t, err)

	pvalues := []float64{0.01, 0.02}
	out, err := Correct(Params{
		Incidence: inc,
		Weighting: Max,
		PValues:   pvalues,
	}, zerolog.Nop())
	require.NoError(t, err)

	// Unweighted BH on the same input gives [0.02, 0.02]; propagating
	// the most significant p-value must not be less extreme.
	unweighted := weightedBH(pvalues, ones(2))
	for i := range out {
		assert.LessOrEqual(t, out[i], unweighted[i])
	}
	assert.InDelta(t, 0.01, out[0], 1e-12)
	assert.InDelta(t, 0.02, out[1], 1e-12)
}

func TestCorrectNeighbourDistance(t *testing.T) {
	inc := pathIncidence(t, 10, []int{0, 9})
	emb := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})

	out, err := Correct(Params{
		Incidence: inc,
		Weighting: NeighbourDistance,
		PValues:   []float64{0.01, 0.5},
		Embedding: emb,
	}, zerolog.Nop())
	require.NoError(t, err)
	for _, q := range out {
		assert.False(t, math.IsNaN(q))
		assert.GreaterOrEqual(t, q, 0.0)
		assert.LessOrEqual(t, q, 1.0)
	}

	_, err = Correct(Params{
		Incidence: inc,
		Weighting: NeighbourDistance,
		PValues:   []float64{0.01, 0.5},
	}, zerolog.Nop())
	assert.ErrorIs(t, err, errdefs.ErrInvalidParameter)
}

func TestCorrectNaNPValuesCarryThrough(t *testing.T) {
	inc := pathIncidence(t, 10, []int{1, 4, 8})
	out, err := Correct(Params{
		Incidence: inc,
		Weighting: KDistance,
		PValues:   []float64{0.01, math.NaN(), 0.03},
		Distances: ones(3),
	}, zerolog.Nop())
	require.NoError(t, err)

	assert.InDelta(t, 0.02, out[0], 1e-12)
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 0.03, out[2], 1e-12)
}

func TestCorrectMissingDistances(t *testing.T) {
	inc := pathIncidence(t, 10, []int{1, 4})
	_, err := Correct(Params{
		Incidence: inc,
		Weighting: KDistance,
		PValues:   []float64{0.01, 0.02},
	}, zerolog.Nop())
	assert.ErrorIs(t, err, errdefs.ErrMissingPrecomputation)
}

func TestCorrectGraphRowMismatch(t *testing.T) {
	inc := pathIncidence(t, 10, []int{1, 4})
	_, err := Correct(Params{
		Incidence: inc,
		Graph:     pathGraph(8),
		Weighting: KDistance,
		PValues:   []float64{0.01, 0.02},
		Distances: ones(2),
	}, zerolog.Nop())
	assert.ErrorIs(t, err, errdefs.ErrDimensionMismatch)
}
