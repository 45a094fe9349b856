package engine

import "errors"

var (
	// ErrSchemaMissing reports a plot key that the configuration does not
	// declare.
	ErrSchemaMissing = errors.New("plot not configured")

	// ErrSourceUnavailable reports a tabular source that could not be read
	// or parsed.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrNotLoaded reports a configured plot whose dataset is not (yet)
	// registered.
	ErrNotLoaded = errors.New("plot data not loaded")

	// ErrEmptyIndex marks a parameter with no valid values in a dataset.
	// It describes a degraded selection state, not a failed request.
	ErrEmptyIndex = errors.New("parameter has no selectable values")
)
