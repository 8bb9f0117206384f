// Package knn provides the k-nearest-neighbour search primitive used
// by neighbourhood construction. The Oracle is a synchronous pure
// function over a numeric embedding; implementations are free to
// parallelize internally across query points.
package knn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
)

// Result holds ranked neighbour indices (and distances) for a batch of
// queries. Row i corresponds to the i-th query, columns are ranks
// 1..k nearest first.
type Result struct {
	Index    [][]int
	Distance [][]float64
}

// Oracle answers k-nearest-neighbour queries over a points matrix
// (one observation per row).
type Oracle interface {
	// Query returns, for each index in queries, the k nearest other rows
	// of points. The query row itself is excluded from its own result.
	Query(points mat.Matrix, queries []int, k int) (*Result, error)

	// QueryPoints returns, for each row of qp, the k nearest rows of
	// points. Rows of qp need not be members of points; nothing is
	// excluded, so a query point that coincides with a member ranks that
	// member first at distance zero.
	QueryPoints(points, qp mat.Matrix, k int) (*Result, error)
}

func validateQuery(n, d int, queries []int, k, limit int) error {
	if k < 1 {
		return fmt.Errorf("%w: k must be at least 1, got %d", errdefs.ErrInvalidParameter, k)
	}
	if k > limit {
		return fmt.Errorf("%w: k=%d exceeds the %d available candidates",
			errdefs.ErrDimensionMismatch, k, limit)
	}
	if d == 0 || n == 0 {
		return fmt.Errorf("%w: empty points matrix", errdefs.ErrInvalidParameter)
	}
	for _, q := range queries {
		if q < 0 || q >= n {
			return fmt.Errorf("%w: query index %d out of range [0,%d)",
				errdefs.ErrInvalidParameter, q, n)
		}
	}
	return nil
}

func dimsError(got, want int) error {
	return fmt.Errorf("%w: query dimensionality %d does not match points dimensionality %d",
		errdefs.ErrDimensionMismatch, got, want)
}
