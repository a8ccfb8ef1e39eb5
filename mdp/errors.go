package mdp

import "errors"

var (
	ErrInvalidModel   = errors.New("invalid transition model")
	ErrProbabilitySum = errors.New("outcome probabilities do not sum to 1")
	ErrUnknownState   = errors.New("unknown state")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPolicy  = errors.New("invalid policy")
	ErrInvalidOmega   = errors.New("convergence threshold must be positive")
	ErrInvalidGamma   = errors.New("discount factor must be in [0, 1)")
	ErrInvalidCap     = errors.New("iteration caps must not be negative")
	ErrNotConverged   = errors.New("did not converge")
)
