package milo

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
)

// CountCells tabulates how many cells of each experimental sample fall
// into each neighbourhood, producing the neighbourhood-by-sample count
// matrix that downstream GLM testing models. samples holds one sample
// label per graph vertex. The matrix and its (sorted, deduplicated)
// sample names are attached to the dataset and returned.
func CountCells(ds *Dataset, samples []string, logger zerolog.Logger) (*mat.Dense, []string, error) {
	inc, err := ds.Nhoods()
	if err != nil {
		return nil, nil, err
	}
	rows, _ := inc.Dims()
	if len(samples) != rows {
		return nil, nil, fmt.Errorf("%w: %d sample labels for %d vertices",
			errdefs.ErrDimensionMismatch, len(samples), rows)
	}

	nameSet := make(map[string]int)
	for _, s := range samples {
		nameSet[s] = 0
	}
	names := make([]string, 0, len(nameSet))
	for s := range nameSet {
		names = append(names, s)
	}
	sort.Strings(names)
	for i, s := range names {
		nameSet[s] = i
	}

	counts := mat.NewDense(inc.Cols(), len(names), nil)
	for j := 0; j < inc.Cols(); j++ {
		for _, v := range inc.Column(j) {
			col := nameSet[samples[v]]
			counts.Set(j, col, counts.At(j, col)+1)
		}
	}

	ds.nhoodCounts = counts
	ds.sampleNames = names

	logger.Info().
		Int("nhoods", inc.Cols()).
		Int("samples", len(names)).
		Msg("Neighbourhood cell counts computed")

	return counts, names, nil
}
