// Package connection keeps one S3 client per region.
//
// The registry is an explicit object owned by the caller: create one at
// startup and inject it wherever clients are needed.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrEmptyRegion indicates a client was requested without a region.
var ErrEmptyRegion = errors.New("region is required")

// ClientFactory creates the client for a region.
type ClientFactory func(ctx context.Context, region string) (*s3.Client, error)

// Registry memoizes one *s3.Client per region.
// It is safe for concurrent use. The factory runs at most once per region at a
// time; callers asking for a region that is being created wait for that
// creation instead of starting their own. A failed creation is not memoized.
type Registry struct {
	mu      sync.Mutex
	factory ClientFactory
	entries map[string]*entry
}

// entry is one region's client. ready is closed once client/err are set.
type entry struct {
	ready  chan struct{}
	client *s3.Client
	err    error
}

// NewRegistry creates an empty registry using factory to build clients.
func NewRegistry(factory ClientFactory) *Registry {
	return &Registry{
		factory: factory,
		entries: make(map[string]*entry),
	}
}

// Client returns the client for region, creating it on first use.
func (r *Registry) Client(ctx context.Context, region string) (*s3.Client, error) {
	if region == "" {
		return nil, ErrEmptyRegion
	}

	r.mu.Lock()
	e, exists := r.entries[region]
	if !exists {
		e = &entry{ready: make(chan struct{})}
		r.entries[region] = e
	}
	r.mu.Unlock()

	if exists {
		select {
		case <-e.ready:
			return e.client, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.client, e.err = r.create(ctx, region)
	if e.err != nil {
		r.mu.Lock()
		if r.entries[region] == e {
			delete(r.entries, region)
		}
		r.mu.Unlock()
	}
	close(e.ready)

	return e.client, e.err
}

// create calls the factory, turning a nil client into an error.
func (r *Registry) create(ctx context.Context, region string) (*s3.Client, error) {
	client, err := r.factory(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for region %s: %w", region, err)
	}
	if client == nil {
		return nil, fmt.Errorf("factory returned no client for region %s", region)
	}
	return client, nil
}

// Regions returns the regions with a ready client, sorted.
func (r *Registry) Regions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	regions := make([]string, 0, len(r.entries))
	for region, e := range r.entries {
		select {
		case <-e.ready:
			if e.err == nil {
				regions = append(regions, region)
			}
		default:
		}
	}
	sort.Strings(regions)
	return regions
}

// Forget drops the client for region so the next call recreates it.
func (r *Registry) Forget(region string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, region)
}
