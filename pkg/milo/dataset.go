// Package milo orchestrates the neighbourhood differential-abundance
// pipeline: it owns the dataset container, resolves external inputs to
// a single internal representation, and wires the sampler, refiner,
// membership builder and spatial FDR corrector together.
package milo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/graphs"
	"github.com/zktuong/miloR/pkg/nhood"
)

// Dataset is the container a single analysis run operates on. The
// graph and reduced dimensions are supplied externally and treated as
// read-only; the neighbourhood artifacts are derived once per run and
// invalidated whenever the graph or an embedding changes. Concurrent
// analyses must each use their own Dataset.
type Dataset struct {
	graph       graphs.Accessor
	reducedDims map[string]*mat.Dense
	rowIDs      []string

	nhoodIndex     []int
	nhoods         *nhood.Incidence
	nhoodCounts    *mat.Dense
	sampleNames    []string
	nhoodDistances []float64
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{reducedDims: make(map[string]*mat.Dense)}
}

// SetGraph attaches the neighbour graph and clears all derived
// artifacts.
func (d *Dataset) SetGraph(g graphs.Accessor) {
	d.graph = g
	d.invalidate()
}

// Graph returns the attached neighbour graph, or nil when unset.
func (d *Dataset) Graph() graphs.Accessor { return d.graph }

// SetReducedDim attaches a named reduced-dimensional embedding and
// clears all derived artifacts.
func (d *Dataset) SetReducedDim(name string, embedding *mat.Dense) {
	d.reducedDims[name] = embedding
	d.invalidate()
}

// ReducedDim returns the named embedding.
func (d *Dataset) ReducedDim(name string) (*mat.Dense, error) {
	emb, ok := d.reducedDims[name]
	if !ok {
		return nil, fmt.Errorf("%w: no reduced dimension %q on this dataset",
			errdefs.ErrInvalidParameter, name)
	}
	return emb, nil
}

// SetRowIDs attaches per-observation identifiers aligned with
// embedding rows and graph vertices.
func (d *Dataset) SetRowIDs(ids []string) { d.rowIDs = ids }

// RowIDs returns the observation identifiers, or nil when unset.
func (d *Dataset) RowIDs() []string { return d.rowIDs }

// NhoodIndex returns the anchor set produced by MakeNhoods.
func (d *Dataset) NhoodIndex() ([]int, error) {
	if d.nhoodIndex == nil {
		return nil, fmt.Errorf("%w: no anchor set, run MakeNhoods first",
			errdefs.ErrMissingPrecomputation)
	}
	return d.nhoodIndex, nil
}

// Nhoods returns the vertex-by-neighbourhood incidence matrix produced
// by MakeNhoods.
func (d *Dataset) Nhoods() (*nhood.Incidence, error) {
	if d.nhoods == nil {
		return nil, fmt.Errorf("%w: no neighbourhoods, run MakeNhoods first",
			errdefs.ErrMissingPrecomputation)
	}
	return d.nhoods, nil
}

// NhoodCounts returns the neighbourhood-by-sample count matrix produced
// by CountCells, along with the sample names labelling its columns.
func (d *Dataset) NhoodCounts() (*mat.Dense, []string, error) {
	if d.nhoodCounts == nil {
		return nil, nil, fmt.Errorf("%w: no neighbourhood counts, run CountCells first",
			errdefs.ErrMissingPrecomputation)
	}
	return d.nhoodCounts, d.sampleNames, nil
}

// NhoodDistances returns the per-neighbourhood k-distance summaries
// produced by CalcNhoodDistance.
func (d *Dataset) NhoodDistances() ([]float64, error) {
	if d.nhoodDistances == nil {
		return nil, fmt.Errorf("%w: no neighbourhood distances, run CalcNhoodDistance first",
			errdefs.ErrMissingPrecomputation)
	}
	return d.nhoodDistances, nil
}

func (d *Dataset) invalidate() {
	d.nhoodIndex = nil
	d.nhoods = nil
	d.nhoodCounts = nil
	d.sampleNames = nil
	d.nhoodDistances = nil
}
