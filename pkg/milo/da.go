package milo

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/spatialfdr"
)

// TestResult is one neighbourhood-level differential-abundance test
// outcome. The GLM step producing it is external to this module; the
// corrector only consumes PValue and fills SpatialFDR. Nhood is the
// neighbourhood identifier (the incidence column label) and is the only
// key used for joining, never the slice position.
type TestResult struct {
	Nhood      string
	LogFC      float64
	LogCPM     float64
	F          float64
	PValue     float64
	SpatialFDR float64
}

// GLMFitter is the external generalized-linear-model testing interface.
// Implementations fit the neighbourhood count matrix against a design
// matrix and return one TestResult per neighbourhood.
type GLMFitter interface {
	Fit(counts *mat.Dense, design *mat.Dense) ([]TestResult, error)
}

// SpatialFDR corrects the raw p-values of results for neighbourhood
// overlap and local density, writing the adjusted q-values back into
// each result's SpatialFDR field. Results are joined to incidence
// columns by their Nhood identifier.
func SpatialFDR(ds *Dataset, results []TestResult, cfg *Config, logger zerolog.Logger) error {
	inc, err := ds.Nhoods()
	if err != nil {
		return err
	}
	weighting, err := spatialfdr.ParseWeighting(cfg.Weighting())
	if err != nil {
		return err
	}
	if len(results) != inc.Cols() {
		return fmt.Errorf("%w: %d test results for %d neighbourhoods",
			errdefs.ErrDimensionMismatch, len(results), inc.Cols())
	}

	// Join by neighbourhood identifier into column order. With the
	// length check above, rejecting duplicates guarantees every column
	// is assigned exactly once.
	pvalues := make([]float64, inc.Cols())
	filled := make([]bool, inc.Cols())
	colOf := make([]int, len(results))
	for i, r := range results {
		j := inc.ColumnByLabel(r.Nhood)
		if j < 0 {
			return fmt.Errorf("%w: unknown neighbourhood identifier %q",
				errdefs.ErrInvalidParameter, r.Nhood)
		}
		if filled[j] {
			return fmt.Errorf("%w: duplicate neighbourhood identifier %q",
				errdefs.ErrInvalidParameter, r.Nhood)
		}
		filled[j] = true
		pvalues[j] = r.PValue
		colOf[i] = j
	}

	params := spatialfdr.Params{
		Incidence: inc,
		Graph:     ds.Graph(),
		Weighting: weighting,
		K:         cfg.K(),
		PValues:   pvalues,
	}
	switch weighting {
	case spatialfdr.KDistance:
		distances, err := ds.NhoodDistances()
		if err != nil {
			return err
		}
		params.Distances = distances
	case spatialfdr.NeighbourDistance:
		embedding, err := ds.ReducedDim(cfg.ReducedDim())
		if err != nil {
			return err
		}
		// Same configured dimensionality as the k-distance computation.
		params.Embedding = truncateDims(embedding, cfg.Dimensions(), logger)
	}

	adjusted, err := spatialfdr.Correct(params, logger)
	if err != nil {
		return err
	}
	for i := range results {
		results[i].SpatialFDR = adjusted[colOf[i]]
	}
	return nil
}
