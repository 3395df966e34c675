// Package service provides business logic services for Alexander Form Upload.
package service

import "errors"

// Common service errors.
var (
	// Credential errors
	ErrMissingCredentials = errors.New("no AWS credentials in environment")

	// Form errors
	ErrInvalidExpiration = errors.New("invalid expiration: must be between 1 second and 7 days")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
