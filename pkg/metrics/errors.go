package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownScope = errors.New("unknown aggregation scope")
)
