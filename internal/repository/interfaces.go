// Package repository defines data access interfaces for Alexander Form Upload.
// Implementations live in subpackages (memory for single-node deployments,
// redis for deployments that share issuances across instances).
package repository

import (
	"context"
	"fmt"

	"github.com/prn-tf/alexander-formupload/internal/domain"
)

// =============================================================================
// Issuance Store
// =============================================================================

// IssuanceStore keeps a record of signed upload forms until their policy expires.
type IssuanceStore interface {
	// Save stores an issuance. It expires together with the policy.
	Save(ctx context.Context, issuance *domain.Issuance) error

	// Get retrieves an issuance by ID.
	// Returns ErrIssuanceNotFound if it doesn't exist or has expired.
	Get(ctx context.Context, id string) (*domain.Issuance, error)

	// Delete removes an issuance. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// ValidateIssuance checks the fields every store relies on.
func ValidateIssuance(issuance *domain.Issuance) error {
	if issuance == nil {
		return fmt.Errorf("%w: nil issuance", ErrInvalidIssuance)
	}
	if issuance.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidIssuance)
	}
	if issuance.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: expiration is required", ErrInvalidIssuance)
	}
	return nil
}
