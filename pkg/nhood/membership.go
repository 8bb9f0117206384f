package nhood

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/graphs"
)

// Incidence is a sparse binary vertex-by-neighbourhood membership
// matrix in compressed sparse column form. Column j holds the graph
// neighbours of anchor j; the column label is the anchor's vertex index
// rendered as a string so downstream results can be joined by identity
// rather than position.
type Incidence struct {
	rows    int
	colptr  []int
	rowidx  []int
	anchors []int
	labels  []string
}

// BuildMembership expands each anchor of the deduplicated anchor set
// into its neighbourhood and materializes the incidence matrix.
func BuildMembership(g graphs.Accessor, anchors []int) (*Incidence, error) {
	if g == nil || !g.IsValid() {
		return nil, fmt.Errorf("%w: graph is absent or not a valid neighbour graph",
			errdefs.ErrInvalidParameter)
	}
	n := g.VertexCount()
	inc := &Incidence{
		rows:    n,
		colptr:  make([]int, 1, len(anchors)+1),
		anchors: make([]int, len(anchors)),
		labels:  make([]string, len(anchors)),
	}
	copy(inc.anchors, anchors)

	for j, a := range anchors {
		if a < 0 || a >= n {
			return nil, fmt.Errorf("%w: anchor %d out of range [0,%d)",
				errdefs.ErrInvalidParameter, a, n)
		}
		members := append([]int(nil), g.Neighbors(a)...)
		sort.Ints(members)
		inc.rowidx = append(inc.rowidx, members...)
		inc.colptr = append(inc.colptr, len(inc.rowidx))
		inc.labels[j] = strconv.Itoa(a)
	}
	return inc, nil
}

// Dims returns (vertices, neighbourhoods).
func (m *Incidence) Dims() (rows, cols int) { return m.rows, len(m.anchors) }

// Cols returns the number of neighbourhoods.
func (m *Incidence) Cols() int { return len(m.anchors) }

// NNZ returns the number of stored memberships.
func (m *Incidence) NNZ() int { return len(m.rowidx) }

// Column returns the sorted member vertices of neighbourhood j. The
// returned slice must not be mutated.
func (m *Incidence) Column(j int) []int {
	return m.rowidx[m.colptr[j]:m.colptr[j+1]]
}

// ColDegree returns the number of members of neighbourhood j.
func (m *Incidence) ColDegree(j int) int {
	return m.colptr[j+1] - m.colptr[j]
}

// Anchor returns the anchor vertex of neighbourhood j.
func (m *Incidence) Anchor(j int) int { return m.anchors[j] }

// Anchors returns the anchor set, one vertex per neighbourhood.
func (m *Incidence) Anchors() []int { return m.anchors }

// ColumnLabel returns the identifier of neighbourhood j.
func (m *Incidence) ColumnLabel(j int) string { return m.labels[j] }

// ColumnByLabel returns the column index for a neighbourhood
// identifier, or -1 when the label is unknown.
func (m *Incidence) ColumnByLabel(label string) int {
	for j, l := range m.labels {
		if l == label {
			return j
		}
	}
	return -1
}

// At reports whether vertex v belongs to neighbourhood j.
func (m *Incidence) At(v, j int) bool {
	col := m.Column(j)
	i := sort.SearchInts(col, v)
	return i < len(col) && col[i] == v
}

// VertexNhoods returns the neighbourhoods vertex v belongs to.
func (m *Incidence) VertexNhoods(v int) []int {
	var out []int
	for j := range m.anchors {
		if m.At(v, j) {
			out = append(out, j)
		}
	}
	return out
}

// Overlap returns the number of vertices shared by neighbourhoods j
// and l.
func (m *Incidence) Overlap(j, l int) int {
	a, b := m.Column(j), m.Column(l)
	count := 0
	for i, k := 0, 0; i < len(a) && k < len(b); {
		switch {
		case a[i] == b[k]:
			count++
			i++
			k++
		case a[i] < b[k]:
			i++
		default:
			k++
		}
	}
	return count
}
