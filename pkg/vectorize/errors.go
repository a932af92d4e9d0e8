package vectorize

import "errors"

// Pipeline error taxonomy. All fail-fast checks run before any image data is
// touched; once processing starts the pipeline degrades instead of failing
// wherever a stage allows it.
var (
	// ErrConfig wraps configuration validation failures.
	ErrConfig = errors.New("configuration error")
	// ErrInput marks a zero-area raster or a buffer/dimension mismatch.
	ErrInput = errors.New("invalid input")
	// ErrResource marks inputs above the configured pixel budget.
	ErrResource = errors.New("resource exhausted")
	// ErrProcess marks an internal stage failure with no degradation path.
	ErrProcess = errors.New("processing error")
)
