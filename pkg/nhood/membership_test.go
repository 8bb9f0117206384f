package nhood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zktuong/miloR/pkg/errdefs"
)

func TestBuildMembership(t *testing.T) {
	g := pathGraph(10)
	inc, err := BuildMembership(g, []int{0, 3, 9})
	require.NoError(t, err)

	rows, cols := inc.Dims()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 3, cols)

	// Each column holds exactly the anchor's graph neighbours.
	assert.Equal(t, []int{1}, inc.Column(0))
	assert.Equal(t, []int{2, 4}, inc.Column(1))
	assert.Equal(t, []int{8}, inc.Column(2))
	assert.Equal(t, 4, inc.NNZ())

	for j := 0; j < cols; j++ {
		assert.Equal(t, len(g.Neighbors(inc.Anchor(j))), inc.ColDegree(j))
	}

	// Membership is adjacency to the anchor, nothing else.
	assert.True(t, inc.At(2, 1))
	assert.True(t, inc.At(4, 1))
	assert.False(t, inc.At(3, 1)) // the anchor itself is not a member
	assert.False(t, inc.At(7, 1))
}

func TestMembershipLabels(t *testing.T) {
	inc, err := BuildMembership(pathGraph(10), []int{7, 2})
	require.NoError(t, err)

	assert.Equal(t, "7", inc.ColumnLabel(0))
	assert.Equal(t, "2", inc.ColumnLabel(1))
	assert.Equal(t, 1, inc.ColumnByLabel("2"))
	assert.Equal(t, -1, inc.ColumnByLabel("99"))
	assert.Equal(t, []int{7, 2}, inc.Anchors())
}

func TestMembershipOverlapAndVertexNhoods(t *testing.T) {
	// Anchors 3 and 5 share neighbour 4 on the path.
	inc, err := BuildMembership(pathGraph(10), []int{3, 5})
	require.NoError(t, err)

	assert.Equal(t, 1, inc.Overlap(0, 1))
	assert.Equal(t, []int{0, 1}, inc.VertexNhoods(4))
	assert.Nil(t, inc.VertexNhoods(0))
}

func TestBuildMembershipErrors(t *testing.T) {
	_, err := BuildMembership(nil, []int{0})
	assert.ErrorIs(t, err, errdefs.ErrInvalidParameter)

	_, err = BuildMembership(pathGraph(5), []int{5})
	assert.ErrorIs(t, err, errdefs.ErrInvalidParameter)
}
