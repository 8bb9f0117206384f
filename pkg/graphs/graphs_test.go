package graphs

import (
	"testing"

	"github.com/katalvlaran/lvlath/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/knn"
)

func TestAdjacencyGraph(t *testing.T) {
	g := NewAdjacencyGraph(4)
	require.NoError(t, g.AddEdge(0, 1))
	require.NoError(t, g.AddEdge(1, 2))
	require.NoError(t, g.AddEdge(1, 2)) // duplicate is a no-op

	assert.Equal(t, 4, g.VertexCount())
	assert.ElementsMatch(t, []int{0, 2}, g.Neighbors(1))
	assert.Empty(t, g.Neighbors(3))
	assert.True(t, g.IsValid())

	assert.ErrorIs(t, g.AddEdge(0, 4), errdefs.ErrInvalidParameter)
	assert.ErrorIs(t, g.AddEdge(2, 2), errdefs.ErrInvalidParameter)
}

func TestAdjacencyGraphValidate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *AdjacencyGraph
		wantErr error
	}{
		{
			name:    "empty_graph",
			build:   func() *AdjacencyGraph { return NewAdjacencyGraph(0) },
			wantErr: errdefs.ErrInvalidParameter,
		},
		{
			name: "corrupt_neighbor",
			build: func() *AdjacencyGraph {
				g := NewAdjacencyGraph(2)
				g.Adjacency[0] = []int{5}
				return g
			},
			wantErr: errdefs.ErrInvalidParameter,
		},
		{
			name: "valid",
			build: func() *AdjacencyGraph {
				g := NewAdjacencyGraph(2)
				_ = g.AddEdge(0, 1)
				return g
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromGonum(t *testing.T) {
	ug := simple.NewUndirectedGraph()
	// Non-contiguous IDs map onto dense indices in ascending order.
	for _, id := range []int64{10, 20, 30} {
		ug.AddNode(simple.Node(id))
	}
	ug.SetEdge(ug.NewEdge(simple.Node(10), simple.Node(30)))

	g, err := FromGonum(ug)
	require.NoError(t, err)
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, []int{2}, g.Neighbors(0))
	assert.Equal(t, []int{0}, g.Neighbors(2))
	assert.Equal(t, int64(20), g.NodeID(1))
	assert.True(t, g.IsValid())

	_, err = FromGonum(nil)
	assert.ErrorIs(t, err, errdefs.ErrInvalidInputType)
}

func TestFromLvlath(t *testing.T) {
	lg, err := core.NewGraph()
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, lg.AddVertex(id))
	}
	_, err = lg.AddEdge("a", "b", 0)
	require.NoError(t, err)
	_, err = lg.AddEdge("b", "c", 0)
	require.NoError(t, err)

	g, err := FromLvlath(lg)
	require.NoError(t, err)
	assert.Equal(t, 3, g.VertexCount())
	assert.ElementsMatch(t, []int{0, 2}, g.Neighbors(1))
	assert.Equal(t, "b", g.VertexID(1))

	_, err = FromLvlath(nil)
	assert.ErrorIs(t, err, errdefs.ErrInvalidInputType)
}

func TestBuildFromKNN(t *testing.T) {
	embedding := mat.NewDense(4, 1, []float64{0, 1, 2, 10})
	g, err := BuildFromKNN(embedding, 1, knn.NewExact().WithWorkers(1))
	require.NoError(t, err)

	// Symmetrized 1-NN of a line is the path 0-1-2-3.
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, []int{1}, g.Neighbors(0))
	assert.Equal(t, []int{0, 2}, g.Neighbors(1))
	assert.Equal(t, []int{1, 3}, g.Neighbors(2))
	assert.Equal(t, []int{2}, g.Neighbors(3))
}
