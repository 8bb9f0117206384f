package graphs

import (
	"fmt"

	"github.com/katalvlaran/lvlath/core"

	"github.com/zktuong/miloR/pkg/errdefs"
)

// LvlathGraph adapts a lvlath core.Graph to the Accessor interface.
// lvlath addresses vertices by string ID; IDs are mapped onto dense
// indices in the order reported by Vertices(), which lvlath guarantees
// to be ascending by ID.
type LvlathGraph struct {
	adj *AdjacencyGraph
	ids []string
}

// FromLvlath builds an accessor over g.
func FromLvlath(g *core.Graph) (*LvlathGraph, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil lvlath graph", errdefs.ErrInvalidInputType)
	}
	ids := g.Vertices()
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: lvlath graph has no vertices", errdefs.ErrInvalidParameter)
	}
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	adj := NewAdjacencyGraph(len(ids))
	for i, id := range ids {
		nbrs, err := g.NeighborIDs(id)
		if err != nil {
			return nil, fmt.Errorf("lvlath neighbor lookup for %q failed: %w", id, err)
		}
		for _, nb := range nbrs {
			j, ok := index[nb]
			if !ok {
				return nil, fmt.Errorf("%w: edge references unknown vertex %q",
					errdefs.ErrInvalidParameter, nb)
			}
			if j == i {
				continue
			}
			adj.Adjacency[i] = append(adj.Adjacency[i], j)
		}
	}
	return &LvlathGraph{adj: adj, ids: ids}, nil
}

// VertexCount implements Accessor.
func (g *LvlathGraph) VertexCount() int { return g.adj.VertexCount() }

// Neighbors implements Accessor.
func (g *LvlathGraph) Neighbors(v int) []int { return g.adj.Neighbors(v) }

// IsValid implements Accessor.
func (g *LvlathGraph) IsValid() bool { return g != nil && g.adj.IsValid() }

// VertexID returns the original lvlath vertex ID for a dense index.
func (g *LvlathGraph) VertexID(v int) string { return g.ids[v] }
