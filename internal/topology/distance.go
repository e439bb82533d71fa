// Package topology computes a persistence diagram over the correlation
// structure of the universe and reduces it to a persistence-entropy regime
// label. The filtration is an explicit union-find sweep over sorted
// pairwise distances, tracking H0 components and H1 loops only.
package topology

import "math"

// DistanceMatrix maps correlation to the dissimilarity
// d(i,j) = sqrt(2*(1 - corr(i,j))), clipped at 0. Perfect correlation
// gives d = 0; anti-correlation gives d = 2.
func DistanceMatrix(corr [][]float64) [][]float64 {
	n := len(corr)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := 2 * (1 - corr[i][j])
			if v < 0 {
				v = 0
			}
			dist := math.Sqrt(v)
			d[i][j] = dist
			d[j][i] = dist
		}
	}
	return d
}
