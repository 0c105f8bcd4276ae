package ranking

import (
	"math"

	"github.com/alvmarrod/graph-weaver/internal/graph"
	"github.com/sirupsen/logrus"
)

// PageRankOptions tunes the power iteration
type PageRankOptions struct {
	Damping       float64
	MaxIterations int
	Tolerance     float64
}

// DefaultPageRankOptions mirrors the usual damping 0.85, 100 iterations, 1e-6 tolerance
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{Damping: 0.85, MaxIterations: 100, Tolerance: 1e-6}
}

type arc struct {
	to     int
	weight float64
}

// PageRank computes weighted importance scores over the undirected graph.
// Every edge is walked in both directions with its weight; a node whose
// outgoing weight sums to zero is dangling and spreads its score uniformly.
// The scores sum to 1.
func PageRank(s *graph.Store, opts PageRankOptions) map[string]float64 {
	nodes := s.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	index := make(map[string]int, n)
	for i, node := range nodes {
		index[node.ID] = i
	}

	out := make([][]arc, n)
	outWeight := make([]float64, n)
	for _, e := range s.Edges() {
		i, j := index[e.Source], index[e.Target]
		w := e.Weight
		if w < 0 {
			w = 0
		}
		out[i] = append(out[i], arc{to: j, weight: w})
		outWeight[i] += w
		if i != j {
			out[j] = append(out[j], arc{to: i, weight: w})
			outWeight[j] += w
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}

	d := opts.Damping
	converged := false
	for iter := 0; iter < opts.MaxIterations; iter++ {
		last := x
		x = make([]float64, n)

		var dangling float64
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				dangling += last[i]
			}
		}
		base := (d*dangling + (1 - d)) / float64(n)

		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				continue
			}
			share := d * last[i] / outWeight[i]
			for _, a := range out[i] {
				x[a.to] += share * a.weight
			}
		}

		var diff float64
		for i := 0; i < n; i++ {
			x[i] += base
			diff += math.Abs(x[i] - last[i])
		}
		if diff < float64(n)*opts.Tolerance {
			converged = true
			break
		}
	}

	if !converged {
		logrus.Warnf("PageRank did not converge after %d iterations, using last estimate", opts.MaxIterations)
	}

	ranks := make(map[string]float64, n)
	for i, node := range nodes {
		ranks[node.ID] = x[i]
	}
	return ranks
}
