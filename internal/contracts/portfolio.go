package contracts

// PortfolioStatus is the portfolio-level operating mode.
type PortfolioStatus string

const (
	StatusNormal       PortfolioStatus = "NORMAL"
	StatusDrawdownHalt PortfolioStatus = "DRAWDOWN_HALT"
)

// PortfolioState is the step-to-step mutable state of the decision engine,
// threaded through step calls as an explicit value. No other component
// reads or writes it.
type PortfolioState struct {
	Status        PortfolioStatus     `json:"status"`
	Equity        float64             `json:"equity"`
	HighWaterMark float64             `json:"high_water_mark"`
	Positions     map[string]Position `json:"positions"`
	Step          int                 `json:"step"`
}

// NewPortfolioState returns a fresh NORMAL state with the given starting
// equity and no open positions.
func NewPortfolioState(equity float64) PortfolioState {
	return PortfolioState{
		Status:        StatusNormal,
		Equity:        equity,
		HighWaterMark: equity,
		Positions:     make(map[string]Position),
	}
}

// Clone returns a deep copy. Steps never mutate their input state.
func (s PortfolioState) Clone() PortfolioState {
	out := s
	out.Positions = make(map[string]Position, len(s.Positions))
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	return out
}

// Drawdown is the fractional decline from the high-water mark, >= 0.
func (s PortfolioState) Drawdown() float64 {
	if s.HighWaterMark <= 0 {
		return 0
	}
	dd := 1 - s.Equity/s.HighWaterMark
	if dd < 0 {
		return 0
	}
	return dd
}

// OpenCount returns the number of open positions on each side.
func (s PortfolioState) OpenCount() (longs, shorts int) {
	for _, p := range s.Positions {
		switch p.Side {
		case SideLong:
			longs++
		case SideShort:
			shorts++
		}
	}
	return longs, shorts
}

// NetExposure is the sum of signed position sizes.
func (s PortfolioState) NetExposure() float64 {
	net := 0.0
	for _, p := range s.Positions {
		net += p.Signed()
	}
	return net
}

// GrossExposure is the sum of absolute position sizes.
func (s PortfolioState) GrossExposure() float64 {
	gross := 0.0
	for _, p := range s.Positions {
		gross += p.Size
	}
	return gross
}
