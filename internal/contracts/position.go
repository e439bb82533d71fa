package contracts

// Side is the direction of a position.
type Side string

const (
	SideFlat  Side = "FLAT"
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Position is one asset's open position.
// Lifecycle: opened by the decision engine when a signal crosses the entry
// threshold, closed by stop-loss, zero-cross of the residual, or halt.
type Position struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Size       float64 `json:"size"`        // fraction of equity, always >= 0
	EntryPrice float64 `json:"entry_price"` // reference price at entry
	EntryStep  int     `json:"entry_step"`
}

// IsOpen reports whether the position holds exposure.
func (p Position) IsOpen() bool {
	return p.Side == SideLong || p.Side == SideShort
}

// UnrealizedReturn is the signed return since entry at the given price.
// Returns 0 when the entry price is unusable.
func (p Position) UnrealizedReturn(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	r := price/p.EntryPrice - 1
	if p.Side == SideShort {
		return -r
	}
	return r
}

// Signed returns the size with direction applied.
func (p Position) Signed() float64 {
	switch p.Side {
	case SideLong:
		return p.Size
	case SideShort:
		return -p.Size
	default:
		return 0
	}
}
