package milo

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/errdefs"
	"github.com/zktuong/miloR/pkg/graphs"
	"github.com/zktuong/miloR/pkg/knn"
	"github.com/zktuong/miloR/pkg/nhood"
)

// Input is the tagged variant resolved once at the pipeline entry
// point: either a Dataset (graph and embeddings attached to the
// container) or a raw graph with an optional embedding.
type Input struct {
	ds        *Dataset
	graph     graphs.Accessor
	embedding *mat.Dense
}

// FromDataset wraps a dataset as pipeline input. Derived artifacts are
// attached back onto the dataset.
func FromDataset(ds *Dataset) Input {
	return Input{ds: ds}
}

// FromGraph wraps a bare graph and embedding as pipeline input. The
// embedding may be nil when refinement is disabled; derived artifacts
// are only returned, not stored.
func FromGraph(g graphs.Accessor, embedding *mat.Dense) Input {
	return Input{graph: g, embedding: embedding}
}

// resolve collapses the variant to a single internal representation.
func (in Input) resolve(cfg *Config) (graphs.Accessor, *mat.Dense, error) {
	switch {
	case in.ds != nil:
		g := in.ds.Graph()
		if g == nil {
			return nil, nil, fmt.Errorf("%w: dataset has no graph, attach one with SetGraph first",
				errdefs.ErrInvalidParameter)
		}
		emb, _ := in.ds.ReducedDim(cfg.ReducedDim())
		return g, emb, nil
	case in.graph != nil:
		return in.graph, in.embedding, nil
	default:
		return nil, nil, fmt.Errorf("%w: input is neither a dataset nor a graph",
			errdefs.ErrInvalidInputType)
	}
}

// MakeNhoodsResult holds the output of neighbourhood construction.
type MakeNhoodsResult struct {
	// Sampled is the raw vertex sample, in draw order.
	Sampled []int
	// NhoodIndex is the deduplicated anchor set, one vertex per
	// neighbourhood, in first-occurrence order.
	NhoodIndex []int
	// Nhoods is the vertex-by-neighbourhood incidence matrix.
	Nhoods *nhood.Incidence
}

// MakeNhoods samples graph vertices, optionally refines them to
// anchors near local density peaks, and materializes the neighbourhood
// incidence matrix. When the input is a Dataset the artifacts are also
// attached to it. Re-running with the same seed, graph and embedding
// yields identical neighbourhoods.
func MakeNhoods(in Input, cfg *Config, logger zerolog.Logger) (*MakeNhoodsResult, error) {
	g, embedding, err := in.resolve(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Refined() && embedding == nil {
		return nil, fmt.Errorf("%w: refined sampling requires a valid embedding (reduced dimension %q)",
			errdefs.ErrInvalidParameter, cfg.ReducedDim())
	}

	if embedding != nil {
		embedding = truncateDims(embedding, cfg.Dimensions(), logger)
		if n, _ := embedding.Dims(); n != g.VertexCount() {
			return nil, fmt.Errorf("%w: embedding has %d rows but graph has %d vertices",
				errdefs.ErrDimensionMismatch, n, g.VertexCount())
		}
		ensureRowIDs(in.ds, g.VertexCount(), logger)
	}

	rng := rand.New(rand.NewSource(cfg.RandomSeed()))
	sampled, err := nhood.SampleVertices(g, cfg.Proportion(), rng)
	if err != nil {
		return nil, err
	}
	if len(sampled) == 0 {
		return nil, fmt.Errorf("%w: nhood.proportion %g of %d vertices yields an empty sample, increase the proportion",
			errdefs.ErrInvalidParameter, cfg.Proportion(), g.VertexCount())
	}

	logger.Info().
		Int("vertices", g.VertexCount()).
		Int("sampled", len(sampled)).
		Float64("proportion", cfg.Proportion()).
		Bool("refined", cfg.Refined()).
		Msg("Sampled neighbourhood seed vertices")

	anchors := sampled
	if cfg.Refined() {
		oracle := knn.NewExact().WithWorkers(cfg.NumWorkers())
		refiner := nhood.NewRefiner(oracle, logger)
		anchors, err = refiner.Refine(embedding, sampled, cfg.K())
		if err != nil {
			return nil, err
		}
	}

	index := dedup(anchors)
	inc, err := nhood.BuildMembership(g, index)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("anchors", len(index)).
		Int("memberships", inc.NNZ()).
		Msg("Neighbourhood construction complete")

	if in.ds != nil {
		in.ds.nhoodIndex = index
		in.ds.nhoods = inc
	}
	return &MakeNhoodsResult{Sampled: sampled, NhoodIndex: index, Nhoods: inc}, nil
}

// CalcNhoodDistance computes the per-neighbourhood k-distance
// summaries and attaches them to the dataset.
func CalcNhoodDistance(ds *Dataset, cfg *Config, logger zerolog.Logger) ([]float64, error) {
	inc, err := ds.Nhoods()
	if err != nil {
		return nil, err
	}
	embedding, err := ds.ReducedDim(cfg.ReducedDim())
	if err != nil {
		return nil, err
	}
	embedding = truncateDims(embedding, cfg.Dimensions(), logger)

	distances, err := nhood.KthDistances(embedding, inc, cfg.K())
	if err != nil {
		return nil, err
	}
	ds.nhoodDistances = distances

	logger.Info().Int("nhoods", len(distances)).Msg("Neighbourhood distances computed")
	return distances, nil
}

// truncateDims restricts the embedding to the first dims columns.
// Asking for more dimensions than available is recoverable: the
// embedding is used as-is and a warning is logged.
func truncateDims(embedding *mat.Dense, dims int, logger zerolog.Logger) *mat.Dense {
	_, d := embedding.Dims()
	if dims >= d {
		if dims > d {
			logger.Warn().
				Int("requested", dims).
				Int("available", d).
				Msg("Requested dimensionality exceeds embedding, truncating to available dimensions")
		}
		return embedding
	}
	n, _ := embedding.Dims()
	return embedding.Slice(0, n, 0, dims).(*mat.Dense)
}

// dedup reduces the anchor sequence to a set, preserving
// first-occurrence order.
func dedup(anchors []int) []int {
	seen := make(map[int]struct{}, len(anchors))
	out := make([]int, 0, len(anchors))
	for _, a := range anchors {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ensureRowIDs synthesizes positional row identifiers when the dataset
// has none. Non-fatal: neighbourhood identity falls back to vertex
// position.
func ensureRowIDs(ds *Dataset, n int, logger zerolog.Logger) {
	if ds == nil || ds.RowIDs() != nil {
		return
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "cell_" + strconv.Itoa(i)
	}
	ds.SetRowIDs(ids)
	logger.Warn().Msg("Embedding rows have no identifiers, synthesizing from row position")
}
