package topology

import (
	"math"
	"sort"

	"github.com/apexquant/topoarb/internal/contracts"
)

// edge is one pairwise distance in the sweep.
type edge struct {
	i, j int
	d    float64
}

// unionFind tracks connected components during the threshold sweep.
// The elder rule is realized by always keeping the lower-index root:
// all vertices are born at 0, so the tie-break must be deterministic.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the components of a and b, keeping the lower-index root.
// Returns the root that died, or -1 if a and b were already connected.
func (uf *unionFind) union(a, b int) int {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return -1
	}
	if ra > rb {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	return rb
}

// RipsDiagram computes the H0/H1 persistence diagram of a distance matrix
// via a single ascending sweep over the sorted pairwise distances.
//
// H0: every vertex is born at 0; a component dies when the sweep first
// connects it to an older one (elder rule). The last component never dies.
//
// H1: a loop is born when an edge joins two already-connected vertices.
// Its death is the threshold at which the first triangle containing that
// edge completes, min over k of max(d(i,k), d(j,k)) combined with the
// birth distance. Higher simplices are not tracked.
func RipsDiagram(dist [][]float64) []contracts.PersistenceFeature {
	n := len(dist)
	if n == 0 {
		return nil
	}

	edges := make([]edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, edge{i: i, j: j, d: dist[i][j]})
		}
	}
	sort.Slice(edges, func(a, b int) bool { return edges[a].d < edges[b].d })

	uf := newUnionFind(n)
	var features []contracts.PersistenceFeature

	for _, e := range edges {
		if dead := uf.union(e.i, e.j); dead >= 0 {
			features = append(features, contracts.PersistenceFeature{
				Dimension: 0,
				Birth:     0,
				Death:     e.d,
			})
			continue
		}

		// Cycle created: the edge closed a loop among already-connected
		// vertices.
		death := triangleFill(dist, e.i, e.j)
		if death < e.d {
			death = e.d
		}
		features = append(features, contracts.PersistenceFeature{
			Dimension: 1,
			Birth:     e.d,
			Death:     death,
		})
	}

	// Surviving components are infinite H0 features.
	for v := 0; v < n; v++ {
		if uf.find(v) == v {
			features = append(features, contracts.PersistenceFeature{
				Dimension: 0,
				Birth:     0,
				Death:     math.Inf(1),
			})
		}
	}

	return features
}

// triangleFill returns the threshold at which the first 2-simplex
// containing edge (i, j) appears. +Inf when no third vertex exists.
func triangleFill(dist [][]float64, i, j int) float64 {
	best := math.Inf(1)
	for k := range dist {
		if k == i || k == j {
			continue
		}
		m := dist[i][k]
		if dist[j][k] > m {
			m = dist[j][k]
		}
		if m < best {
			best = m
		}
	}
	return best
}
