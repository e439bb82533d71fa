package topology

import (
	"fmt"

	"github.com/apexquant/topoarb/internal/contracts"
)

// Module converts a correlation matrix into a regime classification.
// Cutoffs come from the strategy config, validated at load.
type Module struct {
	LowCutoff  float64 // entropy below this is STABLE
	HighCutoff float64 // entropy above this is CHAOTIC
}

// Result is one step's topological view of the universe.
type Result struct {
	Diagram   []contracts.PersistenceFeature `json:"diagram"`
	EntropyH0 float64                        `json:"entropy_h0"`
	EntropyH1 float64                        `json:"entropy_h1"`
	Entropy   float64                        `json:"entropy"` // pooled, drives the label
	Regime    contracts.RegimeLabel          `json:"regime"`
	H1        H1Summary                      `json:"h1"`
}

// Analyze runs the distance transform, the filtration sweep and the
// entropy reduction over one correlation matrix. Pure.
func (m Module) Analyze(corr [][]float64) (*Result, error) {
	if len(corr) < 2 {
		return nil, fmt.Errorf("need at least 2 assets for filtration, got %d: %w", len(corr), contracts.ErrInsufficientData)
	}

	dist := DistanceMatrix(corr)
	diagram := RipsDiagram(dist)

	res := &Result{
		Diagram:   diagram,
		EntropyH0: PersistenceEntropy(diagram, 0),
		EntropyH1: PersistenceEntropy(diagram, 1),
		Entropy:   PersistenceEntropy(diagram, -1),
		H1:        SummarizeH1(diagram),
	}
	res.Regime = m.label(res.Entropy)
	return res, nil
}

func (m Module) label(entropy float64) contracts.RegimeLabel {
	switch {
	case entropy < m.LowCutoff:
		return contracts.RegimeStable
	case entropy > m.HighCutoff:
		return contracts.RegimeChaotic
	default:
		return contracts.RegimeTransitional
	}
}
