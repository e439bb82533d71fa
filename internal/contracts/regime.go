package contracts

import "math"

// RegimeLabel classifies market stability from persistence entropy.
type RegimeLabel string

const (
	RegimeStable       RegimeLabel = "STABLE"
	RegimeTransitional RegimeLabel = "TRANSITIONAL"
	RegimeChaotic      RegimeLabel = "CHAOTIC"
)

// PersistenceFeature is one (dimension, birth, death) triple from the
// filtration. Death is +Inf for features that never close.
type PersistenceFeature struct {
	Dimension int     `json:"dimension"` // 0 = component, 1 = loop
	Birth     float64 `json:"birth"`
	Death     float64 `json:"death"`
}

// IsFinite reports whether the feature died within the sweep.
func (f PersistenceFeature) IsFinite() bool {
	return !math.IsInf(f.Death, 1)
}

// Persistence is the feature lifetime death - birth.
func (f PersistenceFeature) Persistence() float64 {
	return f.Death - f.Birth
}
