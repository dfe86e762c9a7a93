package optimization

import "errors"

// Errors returned by Analyze and Optimize.
var (
	ErrInvalidRequest   = errors.New("invalid optimizer request")
	ErrInvalidWeights   = errors.New("invalid weights")
	ErrMissingSeries    = errors.New("historical series unavailable")
	ErrInsufficientData = errors.New("insufficient historical data")
)
