package graphs

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/knn"
)

// GonumGraph adapts a gonum undirected graph to the Accessor interface.
// gonum node IDs are arbitrary int64 values; they are mapped once, in
// ascending order, onto dense indices 0..N-1 so that embedding rows and
// graph vertices line up.
type GonumGraph struct {
	adj *AdjacencyGraph
	ids []int64
}

// FromGonum builds an accessor over g.
func FromGonum(g graph.Undirected) (*GonumGraph, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil gonum graph", errdefs.ErrInvalidInputType)
	}
	nodes := g.Nodes()
	ids := make([]int64, 0, nodes.Len())
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: gonum graph has no nodes", errdefs.ErrInvalidParameter)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	adj := NewAdjacencyGraph(len(ids))
	for i, id := range ids {
		from := g.From(id)
		for from.Next() {
			adj.Adjacency[i] = append(adj.Adjacency[i], index[from.Node().ID()])
		}
		sort.Ints(adj.Adjacency[i])
	}
	return &GonumGraph{adj: adj, ids: ids}, nil
}

// VertexCount implements Accessor.
func (g *GonumGraph) VertexCount() int { return g.adj.VertexCount() }

// Neighbors implements Accessor.
func (g *GonumGraph) Neighbors(v int) []int { return g.adj.Neighbors(v) }

// IsValid implements Accessor.
func (g *GonumGraph) IsValid() bool { return g != nil && g.adj.IsValid() }

// NodeID returns the original gonum node ID for a dense vertex index.
func (g *GonumGraph) NodeID(v int) int64 { return g.ids[v] }

// BuildFromKNN constructs the symmetrized k-nearest-neighbour graph of
// an embedding (one row per observation) and returns it as an accessor
// backed by a gonum simple.UndirectedGraph. An edge joins i and j when
// either point ranks the other among its k nearest.
func BuildFromKNN(embedding *mat.Dense, k int, oracle knn.Oracle) (*GonumGraph, error) {
	if embedding == nil {
		return nil, fmt.Errorf("%w: nil embedding", errdefs.ErrInvalidParameter)
	}
	n, _ := embedding.Dims()
	queries := make([]int, n)
	for i := range queries {
		queries[i] = i
	}
	res, err := oracle.Query(embedding, queries, k)
	if err != nil {
		return nil, fmt.Errorf("knn graph construction failed: %w", err)
	}

	ug := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		ug.AddNode(simple.Node(int64(i)))
	}
	for i := 0; i < n; i++ {
		for _, j := range res.Index[i] {
			if i == j {
				continue
			}
			ug.SetEdge(ug.NewEdge(simple.Node(int64(i)), simple.Node(int64(j))))
		}
	}
	return FromGonum(ug)
}
