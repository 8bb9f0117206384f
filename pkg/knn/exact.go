package knn

import (
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Exact performs brute-force Euclidean nearest-neighbour search.
// Queries are distributed over a worker pool; results are deterministic
// regardless of worker count, with distance ties broken by ascending
// row index.
type Exact struct {
	workers int
}

// NewExact creates an exact searcher using one worker per CPU.
func NewExact() *Exact {
	return &Exact{workers: runtime.NumCPU()}
}

// WithWorkers sets the number of parallel workers.
func (e *Exact) WithWorkers(n int) *Exact {
	if n > 0 {
		e.workers = n
	}
	return e
}

// Query implements Oracle.
func (e *Exact) Query(points mat.Matrix, queries []int, k int) (*Result, error) {
	n, d := points.Dims()
	// The query row is excluded from its own candidates.
	if err := validateQuery(n, d, queries, k, n-1); err != nil {
		return nil, err
	}

	res := newResult(len(queries), k)
	e.run(len(queries), func(i int, rowBuf []float64) {
		q := queries[i]
		mat.Row(rowBuf, q, points)
		search(points, rowBuf, q, k, res.Index[i], res.Distance[i])
	}, d)
	return res, nil
}

// QueryPoints implements Oracle.
func (e *Exact) QueryPoints(points, qp mat.Matrix, k int) (*Result, error) {
	n, d := points.Dims()
	m, qd := qp.Dims()
	if err := validateQuery(n, d, nil, k, n); err != nil {
		return nil, err
	}
	if qd != d {
		return nil, dimsError(qd, d)
	}

	res := newResult(m, k)
	e.run(m, func(i int, rowBuf []float64) {
		mat.Row(rowBuf, i, qp)
		search(points, rowBuf, -1, k, res.Index[i], res.Distance[i])
	}, d)
	return res, nil
}

// run fans the query indices out over the worker pool. Each worker owns
// its row buffer; result rows are disjoint so no locking is needed.
func (e *Exact) run(numQueries int, fn func(i int, rowBuf []float64), d int) {
	workers := e.workers
	if workers > numQueries {
		workers = numQueries
	}
	if workers <= 1 {
		buf := make([]float64, d)
		for i := 0; i < numQueries; i++ {
			fn(i, buf)
		}
		return
	}

	jobs := make(chan int, numQueries)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]float64, d)
			for i := range jobs {
				fn(i, buf)
			}
		}()
	}
	for i := 0; i < numQueries; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// search ranks all rows of points against the query vector and writes
// the k nearest into idxOut/distOut. exclude is a row index to skip
// (-1 for none).
func search(points mat.Matrix, query []float64, exclude, k int, idxOut []int, distOut []float64) {
	n, d := points.Dims()
	dists := make([]float64, n)
	row := make([]float64, d)
	for j := 0; j < n; j++ {
		if j == exclude {
			dists[j] = math.Inf(1)
			continue
		}
		mat.Row(row, j, points)
		dists[j] = floats.Distance(query, row, 2)
	}

	order := make([]int, n)
	for j := range order {
		order[j] = j
	}
	sort.Slice(order, func(a, b int) bool {
		if dists[order[a]] != dists[order[b]] {
			return dists[order[a]] < dists[order[b]]
		}
		return order[a] < order[b]
	})

	for r := 0; r < k; r++ {
		idxOut[r] = order[r]
		distOut[r] = dists[order[r]]
	}
}

func newResult(rows, k int) *Result {
	res := &Result{
		Index:    make([][]int, rows),
		Distance: make([][]float64, rows),
	}
	for i := range res.Index {
		res.Index[i] = make([]int, k)
		res.Distance[i] = make([]float64, k)
	}
	return res
}
