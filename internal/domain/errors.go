// Package domain contains the core entities for Alexander Form Upload.
package domain

import "errors"

// Domain errors. Callers wrap these with context using fmt.Errorf("%w: ...")
// and match them with errors.Is.
var (
	// ErrConfiguration indicates a required setting (bucket, client, key) is
	// missing or contradictory when a form is built.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidValue indicates a value outside a closed enumeration.
	ErrInvalidValue = errors.New("invalid value")

	// ErrBucketNameLength indicates the bucket name length is invalid (3-63 chars).
	ErrBucketNameLength = errors.New("bucket name must be between 3 and 63 characters")

	// ErrBucketNameFormat indicates the bucket name format is invalid.
	ErrBucketNameFormat = errors.New("bucket name must contain only lowercase letters, numbers, hyphens, and periods")

	// ErrBucketNameIPFormat indicates the bucket name looks like an IP address.
	ErrBucketNameIPFormat = errors.New("bucket name cannot be formatted as an IP address")

	// ErrObjectKeyTooLong indicates the object key exceeds maximum length.
	ErrObjectKeyTooLong = errors.New("object key exceeds maximum length of 1024 characters")
)
