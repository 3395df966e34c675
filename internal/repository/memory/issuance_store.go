// Package memory provides an in-memory issuance store.
// This is suitable for single-node deployments where Redis is not available.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/alexander-formupload/internal/domain"
	"github.com/prn-tf/alexander-formupload/internal/repository"
)

// DefaultCleanupInterval is how often expired issuances are purged.
const DefaultCleanupInterval = 60 * time.Second

// IssuanceStore implements repository.IssuanceStore using in-memory storage.
// This is NOT suitable for distributed deployments.
type IssuanceStore struct {
	mu      sync.RWMutex
	items   map[string]domain.Issuance
	now     func() time.Time
	stopCh  chan struct{}
	stopped bool
}

// Option configures an IssuanceStore.
type Option func(*IssuanceStore)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *IssuanceStore) {
		s.now = now
	}
}

// NewIssuanceStore creates a new in-memory store and starts its cleanup loop.
// A non-positive interval disables the loop; call Stop when done either way.
func NewIssuanceStore(cleanupInterval time.Duration, opts ...Option) *IssuanceStore {
	s := &IssuanceStore{
		items:  make(map[string]domain.Issuance),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}

	return s
}

// cleanupLoop periodically removes expired issuances.
func (s *IssuanceStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// Cleanup removes expired issuances and returns how many were dropped.
func (s *IssuanceStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, item := range s.items {
		if item.IsExpired(now) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Stop stops the cleanup goroutine.
func (s *IssuanceStore) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		close(s.stopCh)
		s.stopped = true
	}
}

// Len returns the number of stored issuances, expired ones included.
func (s *IssuanceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Save stores a copy of issuance.
func (s *IssuanceStore) Save(ctx context.Context, issuance *domain.Issuance) error {
	if err := repository.ValidateIssuance(issuance); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[issuance.ID] = *issuance
	return nil
}

// Get retrieves an issuance by ID.
func (s *IssuanceStore) Get(ctx context.Context, id string) (*domain.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists || item.IsExpired(s.now()) {
		return nil, repository.ErrIssuanceNotFound
	}

	// Return a copy to prevent mutation.
	result := item
	return &result, nil
}

// Delete removes an issuance by ID.
func (s *IssuanceStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

// Ensure IssuanceStore implements repository.IssuanceStore.
var _ repository.IssuanceStore = (*IssuanceStore)(nil)
