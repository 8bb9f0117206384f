// Command milo runs the neighbourhood construction pipeline as a batch
// job: it reads a neighbour graph edge list and a reduced-dimensional
// embedding, builds neighbourhoods, and optionally applies the spatial
// FDR correction to externally computed per-neighbourhood p-values.
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/zktuong/miloR/pkg/graphs"
	"github.com/zktuong/miloR/pkg/milo"
)

func main() {
	var (
		configFile    = flag.String("config", "", "optional viper config file")
		edgesFile     = flag.String("edges", "", "neighbour graph edge list, one 'u v' pair per line")
		embeddingFile = flag.String("embedding", "", "reduced-dimensional embedding CSV, one row per vertex")
		samplesFile   = flag.String("samples", "", "optional per-vertex sample labels, one per line")
		pvaluesFile   = flag.String("pvalues", "", "optional TSV of 'nhood<TAB>pvalue' from the external GLM step")
		outFile       = flag.String("out", "nhoods.tsv", "output TSV path")
	)
	flag.Parse()

	cfg := milo.NewConfig()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	logger := cfg.CreateLogger()

	if *edgesFile == "" {
		fmt.Fprintln(os.Stderr, "usage: milo -edges <file> [-embedding <file>] [flags]")
		os.Exit(2)
	}

	g, err := loadEdgeList(*edgesFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load edge list")
	}

	ds := milo.NewDataset()
	ds.SetGraph(g)

	if *embeddingFile != "" {
		embedding, err := loadEmbedding(*embeddingFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load embedding")
		}
		ds.SetReducedDim(cfg.ReducedDim(), embedding)
	} else {
		cfg.Set("nhood.refined", false)
	}

	result, err := milo.MakeNhoods(milo.FromDataset(ds), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Neighbourhood construction failed")
	}

	var distances []float64
	if *embeddingFile != "" {
		if distances, err = milo.CalcNhoodDistance(ds, cfg, logger); err != nil {
			logger.Fatal().Err(err).Msg("Neighbourhood distance computation failed")
		}
	}

	if *samplesFile != "" {
		samples, err := loadLines(*samplesFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load sample labels")
		}
		if _, _, err := milo.CountCells(ds, samples, logger); err != nil {
			logger.Fatal().Err(err).Msg("Cell counting failed")
		}
	}

	var results []milo.TestResult
	if *pvaluesFile != "" {
		if results, err = loadPValues(*pvaluesFile); err != nil {
			logger.Fatal().Err(err).Msg("Failed to load p-values")
		}
		if err := milo.SpatialFDR(ds, results, cfg, logger); err != nil {
			logger.Fatal().Err(err).Msg("Spatial FDR correction failed")
		}
	}

	if err := writeOutput(*outFile, result, distances, results); err != nil {
		logger.Fatal().Err(err).Msg("Failed to write output")
	}
	logger.Info().Str("out", *outFile).Int("nhoods", len(result.NhoodIndex)).Msg("Done")
}

// loadEdgeList parses a whitespace-separated 'u v' pair per line. The
// vertex count is taken as the largest index seen plus one.
func loadEdgeList(path string) (*graphs.AdjacencyGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type edge struct{ u, v int }
	var edges []edge
	maxVertex := -1

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed edge line %q", line)
		}
		u, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge{u, v})
		if u > maxVertex {
			maxVertex = u
		}
		if v > maxVertex {
			maxVertex = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	g := graphs.NewAdjacencyGraph(maxVertex + 1)
	for _, e := range edges {
		if err := g.AddEdge(e.u, e.v); err != nil {
			return nil, err
		}
	}
	g.SortAdjacency()
	return g, nil
}

func loadEmbedding(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("embedding file %s is empty", path)
	}

	rows, cols := len(records), len(records[0])
	data := make([]float64, 0, rows*cols)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(rec), cols)
		}
		for _, field := range rec {
			val, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, err
			}
			data = append(data, val)
		}
	}
	return mat.NewDense(rows, cols, data), nil
}

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	return lines, scanner.Err()
}

func loadPValues(path string) ([]milo.TestResult, error) {
	lines, err := loadLines(path)
	if err != nil {
		return nil, err
	}
	var results []milo.TestResult
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed p-value line %q", line)
		}
		p, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, err
		}
		results = append(results, milo.TestResult{Nhood: fields[0], PValue: p})
	}
	return results, nil
}

func writeOutput(path string, res *milo.MakeNhoodsResult, distances []float64, results []milo.TestResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "nhood\tanchor\tsize\tk_distance\tpvalue\tspatial_fdr")

	bySpatial := make(map[string]milo.TestResult, len(results))
	for _, r := range results {
		bySpatial[r.Nhood] = r
	}

	for j := 0; j < res.Nhoods.Cols(); j++ {
		label := res.Nhoods.ColumnLabel(j)
		dist := "NA"
		if distances != nil {
			dist = strconv.FormatFloat(distances[j], 'g', 6, 64)
		}
		pval, fdr := "NA", "NA"
		if r, ok := bySpatial[label]; ok {
			pval = strconv.FormatFloat(r.PValue, 'g', 6, 64)
			fdr = strconv.FormatFloat(r.SpatialFDR, 'g', 6, 64)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			label, res.Nhoods.Anchor(j), res.Nhoods.ColDegree(j), dist, pval, fdr)
	}
	return w.Flush()
}
