package policy

import "errors"

// Policy errors.
var (
	// ErrBuilderFrozen indicates a mutation after the builder was frozen for signing.
	ErrBuilderFrozen = errors.New("policy builder is frozen")

	// ErrInvalidRange indicates a content-length-range with min < 0 or min > max.
	ErrInvalidRange = errors.New("invalid content length range")

	// ErrInvalidDocument indicates a policy document that cannot be decoded.
	ErrInvalidDocument = errors.New("invalid policy document")

	// ErrEmptyFieldName indicates a condition without a field name.
	ErrEmptyFieldName = errors.New("field name is required")

	// ErrBucketField indicates an attempt to loosen or drop the bucket condition.
	ErrBucketField = errors.New("bucket condition must be an exact match")
)
