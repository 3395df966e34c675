package repository

import "errors"

// Repository errors
var (
	// ErrIssuanceNotFound indicates no issuance exists for the requested id,
	// or it has already expired.
	ErrIssuanceNotFound = errors.New("issuance not found")

	// ErrInvalidIssuance indicates an issuance that cannot be stored.
	ErrInvalidIssuance = errors.New("invalid issuance")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	ErrStoreUnavailable = errors.New("issuance store unavailable")
)
