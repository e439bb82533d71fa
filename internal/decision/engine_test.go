package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexquant/topoarb/internal/contracts"
)

func testConfig() Config {
	return Config{
		EntryThreshold: 2.0,
		StopLossPct:    0.05,
		MaxDrawdownPct: 0.15,
		RecoveryPct:    0.10,
		Leverage:       1.0,
		NetExposure:    0.0,
		Multipliers: map[contracts.RegimeLabel]float64{
			contracts.RegimeStable:       1.0,
			contracts.RegimeTransitional: 0.6,
			contracts.RegimeChaotic:      0.25,
		},
	}
}

func baseInput(step int) StepInput {
	return StepInput{
		Step:    step,
		Symbols: []string{"AAA", "BBB"},
		Prices:  map[string]float64{"AAA": 100, "BBB": 50},
		ZScores: map[string]float64{"AAA": 0, "BBB": 0},
		Regime:  contracts.RegimeStable,
		Equity:  1.0,
	}
}

func TestEvaluate_EntryBoundaryInclusive(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)

	in := baseInput(1)
	in.ZScores["AAA"] = -2.0          // exactly at threshold: enters
	in.ZScores["BBB"] = -2.0 + 1e-9   // epsilon inside: does not

	out := e.Evaluate(state, in)

	require.Len(t, out.Opened, 1)
	assert.Equal(t, "AAA", out.Opened[0].Symbol)
	assert.Equal(t, contracts.SideLong, out.Opened[0].Side)
	assert.NotContains(t, out.State.Positions, "BBB")
}

func TestEvaluate_ShortEntry(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)

	in := baseInput(1)
	in.ZScores["AAA"] = 2.5

	out := e.Evaluate(state, in)

	require.Contains(t, out.State.Positions, "AAA")
	assert.Equal(t, contracts.SideShort, out.State.Positions["AAA"].Side)
	assert.Equal(t, 100.0, out.State.Positions["AAA"].EntryPrice)
}

func TestEvaluate_ZeroCrossExit(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)
	state.Positions["AAA"] = contracts.Position{
		Symbol: "AAA", Side: contracts.SideLong, Size: 0.5, EntryPrice: 100,
	}

	in := baseInput(2)
	in.Prices["AAA"] = 103
	in.ZScores["AAA"] = 0.1 // reverted through zero

	out := e.Evaluate(state, in)

	require.Len(t, out.Closed, 1)
	assert.Equal(t, ExitZeroCross, out.Closed[0].Reason)
	assert.InDelta(t, 0.03, out.Closed[0].Return, 1e-12)
	assert.NotContains(t, out.State.Positions, "AAA")
}

func TestEvaluate_LongHoldsWhileSignalNegative(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)
	state.Positions["AAA"] = contracts.Position{
		Symbol: "AAA", Side: contracts.SideLong, Size: 0.5, EntryPrice: 100,
	}

	in := baseInput(2)
	in.Prices["AAA"] = 101
	in.ZScores["AAA"] = -0.4

	out := e.Evaluate(state, in)
	assert.Empty(t, out.Closed)
	assert.Contains(t, out.State.Positions, "AAA")
}

func TestEvaluate_StopLoss(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)
	state.Positions["AAA"] = contracts.Position{
		Symbol: "AAA", Side: contracts.SideLong, Size: 0.5, EntryPrice: 100,
	}

	in := baseInput(2)
	in.Prices["AAA"] = 94 // -6% against a 5% stop
	in.ZScores["AAA"] = -3.0

	out := e.Evaluate(state, in)

	require.Len(t, out.Closed, 1)
	assert.Equal(t, ExitStopLoss, out.Closed[0].Reason)
	assert.InDelta(t, -0.06, out.Closed[0].Return, 1e-12)
}

func TestEvaluate_ShortStopLoss(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)
	state.Positions["AAA"] = contracts.Position{
		Symbol: "AAA", Side: contracts.SideShort, Size: 0.5, EntryPrice: 100,
	}

	in := baseInput(2)
	in.Prices["AAA"] = 106 // short loses as price rises
	in.ZScores["AAA"] = 3.0

	out := e.Evaluate(state, in)

	require.Len(t, out.Closed, 1)
	assert.Equal(t, ExitStopLoss, out.Closed[0].Reason)
}

func TestEvaluate_HaltBlocksEntriesButAllowsStopLoss(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)
	state.Status = contracts.StatusDrawdownHalt
	state.Positions["AAA"] = contracts.Position{
		Symbol: "AAA", Side: contracts.SideLong, Size: 0.5, EntryPrice: 100,
	}

	in := baseInput(3)
	in.Prices["AAA"] = 90
	in.ZScores["AAA"] = -3.0
	in.ZScores["BBB"] = -5.0 // would enter if not halted
	in.Equity = 0.85

	out := e.Evaluate(state, in)

	assert.Empty(t, out.Opened)
	require.Len(t, out.Closed, 1)
	assert.Equal(t, ExitStopLoss, out.Closed[0].Reason)
}

func TestEvaluate_DrawdownHaltNextStep(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)

	// Step k: equity collapses past the 15% limit. Entries on this very
	// step still go through; the halt binds from the next step.
	in := baseInput(1)
	in.ZScores["AAA"] = -3.0
	in.Equity = 0.80

	out := e.Evaluate(state, in)
	assert.True(t, out.Halted)
	assert.Equal(t, contracts.StatusDrawdownHalt, out.State.Status)
	assert.Len(t, out.Opened, 1)

	// Step k+1: still drawn down, no entries.
	in2 := baseInput(2)
	in2.ZScores["BBB"] = -4.0
	in2.Equity = 0.82
	out2 := e.Evaluate(out.State, in2)
	assert.Empty(t, out2.Opened)
	assert.Equal(t, contracts.StatusDrawdownHalt, out2.State.Status)

	// Recovery above the threshold flips back to NORMAL; entries resume
	// the step after.
	in3 := baseInput(3)
	in3.Equity = 0.95 // 5% drawdown, under the 10% recovery level
	out3 := e.Evaluate(out2.State, in3)
	assert.Equal(t, contracts.StatusNormal, out3.State.Status)

	in4 := baseInput(4)
	in4.ZScores["BBB"] = -4.0
	in4.Equity = 0.95
	out4 := e.Evaluate(out3.State, in4)
	assert.Len(t, out4.Opened, 1)
}

func TestEvaluate_SizingSleeves(t *testing.T) {
	cfg := testConfig()
	cfg.NetExposure = 0.5
	cfg.Leverage = 2.0
	e := New(cfg)

	state := contracts.NewPortfolioState(1.0)
	in := StepInput{
		Step:    1,
		Symbols: []string{"L1", "L2", "S1"},
		Prices:  map[string]float64{"L1": 10, "L2": 20, "S1": 30},
		ZScores: map[string]float64{"L1": -3, "L2": -2.5, "S1": 3},
		Regime:  contracts.RegimeStable,
		Equity:  1.0,
	}

	out := e.Evaluate(state, in)
	require.Len(t, out.State.Positions, 3)

	// Budget 2.0: long sleeve 1.5 split across two, short sleeve 0.5.
	assert.InDelta(t, 0.75, out.State.Positions["L1"].Size, 1e-12)
	assert.InDelta(t, 0.75, out.State.Positions["L2"].Size, 1e-12)
	assert.InDelta(t, 0.5, out.State.Positions["S1"].Size, 1e-12)

	// Emitted entries carry final sizes.
	for _, p := range out.Opened {
		assert.Equal(t, out.State.Positions[p.Symbol].Size, p.Size)
	}
}

func TestEvaluate_RegimeShrinksExposure(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)

	in := baseInput(1)
	in.ZScores["AAA"] = -3.0

	stable := e.Evaluate(state, in)

	in.Regime = contracts.RegimeChaotic
	chaotic := e.Evaluate(state, in)

	assert.Greater(t, stable.State.Positions["AAA"].Size,
		chaotic.State.Positions["AAA"].Size)
	// Chaotic shrinks, never inverts.
	assert.Greater(t, chaotic.State.Positions["AAA"].Size, 0.0)
}

func TestEvaluate_DoesNotMutateInputState(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)
	state.Positions["AAA"] = contracts.Position{
		Symbol: "AAA", Side: contracts.SideLong, Size: 0.5, EntryPrice: 100,
	}

	in := baseInput(2)
	in.Prices["AAA"] = 90 // forces a stop-loss in the output
	in.ZScores["BBB"] = -4.0

	_ = e.Evaluate(state, in)

	assert.Contains(t, state.Positions, "AAA")
	assert.NotContains(t, state.Positions, "BBB")
	assert.Equal(t, contracts.StatusNormal, state.Status)
}

func TestEvaluate_MissingDataCarriesPosition(t *testing.T) {
	e := New(testConfig())
	state := contracts.NewPortfolioState(1.0)
	state.Positions["GONE"] = contracts.Position{
		Symbol: "GONE", Side: contracts.SideLong, Size: 0.5, EntryPrice: 100,
	}

	in := baseInput(2) // GONE absent from prices and z-scores

	out := e.Evaluate(state, in)
	assert.Contains(t, out.State.Positions, "GONE")
	assert.Empty(t, out.Closed)
}
