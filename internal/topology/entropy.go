package topology

import (
	"math"

	"github.com/apexquant/topoarb/internal/contracts"
)

// PersistenceEntropy is the normalized Shannon entropy of finite feature
// lifetimes: p_k = persistence_k / sum, E = -sum(p_k * ln p_k) / ln(count).
// Lies in [0, 1]; defined as 0 with fewer than two positive-lifetime
// features. dim < 0 pools all dimensions.
func PersistenceEntropy(features []contracts.PersistenceFeature, dim int) float64 {
	var lifetimes []float64
	total := 0.0
	for _, f := range features {
		if dim >= 0 && f.Dimension != dim {
			continue
		}
		if !f.IsFinite() {
			continue
		}
		p := f.Persistence()
		if p <= 0 {
			continue
		}
		lifetimes = append(lifetimes, p)
		total += p
	}

	if len(lifetimes) < 2 || total <= 0 {
		return 0
	}

	e := 0.0
	for _, l := range lifetimes {
		p := l / total
		e -= p * math.Log(p)
	}
	return e / math.Log(float64(len(lifetimes)))
}

// H1Summary carries the loop-persistence statistics exposed for reporting.
type H1Summary struct {
	LoopCount        int     `json:"loop_count"`
	MaxPersistence   float64 `json:"max_persistence"`
	TotalPersistence float64 `json:"total_persistence"`
	MeanPersistence  float64 `json:"mean_persistence"`
}

// SummarizeH1 aggregates the finite H1 features of a diagram.
func SummarizeH1(features []contracts.PersistenceFeature) H1Summary {
	var s H1Summary
	for _, f := range features {
		if f.Dimension != 1 || !f.IsFinite() {
			continue
		}
		p := f.Persistence()
		s.LoopCount++
		s.TotalPersistence += p
		if p > s.MaxPersistence {
			s.MaxPersistence = p
		}
	}
	if s.LoopCount > 0 {
		s.MeanPersistence = s.TotalPersistence / float64(s.LoopCount)
	}
	return s
}
