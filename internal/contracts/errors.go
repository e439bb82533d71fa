package contracts

import "errors"

// Error taxonomy for a single evaluation step. Data-quality errors are
// recovered locally by the engine; they never abort a run.
var (
	// ErrInsufficientData means the window is too short or too many assets
	// are gapped. The step is skipped and prior positions carry forward.
	ErrInsufficientData = errors.New("insufficient data for evaluation step")

	// ErrDegenerateCorrelation means an asset had zero variance over the
	// window. That asset is excluded from the step; others proceed.
	ErrDegenerateCorrelation = errors.New("degenerate correlation: zero-variance asset")

	// ErrSolverFailure means the equilibrium solve did not converge. The
	// engine falls back to the previous step's equilibrium vector.
	ErrSolverFailure = errors.New("equilibrium solver failed")
)
