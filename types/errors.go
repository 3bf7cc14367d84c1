// Package types holds the data model, collaborator interfaces and error
// taxonomy shared by every package in the module.
package types

import "errors"

// Error taxonomy. Wrap these with fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrConfiguration indicates a requested count exceeds a configured maximum
	// or a cache key names no resolvable model.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataIntegrity indicates persisted or returned data is misaligned,
	// e.g. embedding row count differs from word count.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrNotNormalized indicates a vector failed the unit-norm check.
	ErrNotNormalized = errors.New("vector not normalized")

	// ErrCostEstimation indicates a usage summary could not price a model.
	// It only degrades the summary text and is never returned to callers.
	ErrCostEstimation = errors.New("can't estimate cost")
)
