// Package graphs provides read-only access to the cell-cell neighbour
// graph that neighbourhood construction runs over. The core algorithms
// only ever see the Accessor interface; adapters resolve external graph
// representations (gonum, lvlath, plain adjacency lists) to dense
// 0-based vertex indices once, at the pipeline entry point.
package graphs

import (
	"fmt"
	"sort"

	"github.com/zktuong/miloR/pkg/errdefs"
)

// Accessor is the minimal read-only view of a neighbour graph.
type Accessor interface {
	// VertexCount returns the number of vertices N. Vertices are
	// addressed by dense indices 0..N-1.
	VertexCount() int

	// Neighbors returns the adjacency list of v. The returned slice must
	// not be mutated by callers.
	Neighbors(v int) []int

	// IsValid reports whether the graph is structurally usable.
	IsValid() bool
}

// AdjacencyGraph is an undirected graph stored as plain adjacency
// slices, one list per vertex.
type AdjacencyGraph struct {
	NumVertices int
	Adjacency   [][]int
}

// NewAdjacencyGraph creates an empty graph with n vertices.
func NewAdjacencyGraph(n int) *AdjacencyGraph {
	return &AdjacencyGraph{
		NumVertices: n,
		Adjacency:   make([][]int, n),
	}
}

// AddEdge adds an undirected edge between u and v. Duplicate edges and
// self-loops are rejected.
func (g *AdjacencyGraph) AddEdge(u, v int) error {
	if u < 0 || u >= g.NumVertices || v < 0 || v >= g.NumVertices {
		return fmt.Errorf("%w: vertex index out of range: u=%d, v=%d, n=%d",
			errdefs.ErrInvalidParameter, u, v, g.NumVertices)
	}
	if u == v {
		return fmt.Errorf("%w: self-loop on vertex %d", errdefs.ErrInvalidParameter, u)
	}
	for _, w := range g.Adjacency[u] {
		if w == v {
			return nil
		}
	}
	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Adjacency[v] = append(g.Adjacency[v], u)
	return nil
}

// VertexCount implements Accessor.
func (g *AdjacencyGraph) VertexCount() int { return g.NumVertices }

// Neighbors implements Accessor.
func (g *AdjacencyGraph) Neighbors(v int) []int {
	if v < 0 || v >= g.NumVertices {
		return nil
	}
	return g.Adjacency[v]
}

// IsValid implements Accessor.
func (g *AdjacencyGraph) IsValid() bool {
	return g != nil && g.Validate() == nil
}

// Validate checks structural consistency of the adjacency lists.
func (g *AdjacencyGraph) Validate() error {
	if g.NumVertices <= 0 {
		return fmt.Errorf("%w: graph must have a positive number of vertices",
			errdefs.ErrInvalidParameter)
	}
	if len(g.Adjacency) != g.NumVertices {
		return fmt.Errorf("%w: adjacency has %d lists for %d vertices",
			errdefs.ErrDimensionMismatch, len(g.Adjacency), g.NumVertices)
	}
	for v := 0; v < g.NumVertices; v++ {
		for _, w := range g.Adjacency[v] {
			if w < 0 || w >= g.NumVertices {
				return fmt.Errorf("%w: invalid neighbor %d for vertex %d",
					errdefs.ErrInvalidParameter, w, v)
			}
		}
	}
	return nil
}

// SortAdjacency sorts every adjacency list ascending. Useful for
// deterministic downstream iteration; construction order is otherwise
// preserved.
func (g *AdjacencyGraph) SortAdjacency() {
	for v := range g.Adjacency {
		sort.Ints(g.Adjacency[v])
	}
}
