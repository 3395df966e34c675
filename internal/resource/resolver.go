package resource

import (
	"fmt"

	"github.com/prn-tf/alexander-formupload/internal/connection"
	"github.com/prn-tf/alexander-formupload/internal/domain"
)

// Resolver turns bucket names into handles bound to the right region.
// Buckets without an explicit region use the default region.
type Resolver struct {
	registry      *connection.Registry
	defaultRegion string
	bucketRegions map[string]string
}

// NewResolver creates a resolver. bucketRegions may be nil.
func NewResolver(registry *connection.Registry, defaultRegion string, bucketRegions map[string]string) *Resolver {
	regions := make(map[string]string, len(bucketRegions))
	for bucket, region := range bucketRegions {
		regions[bucket] = region
	}
	return &Resolver{
		registry:      registry,
		defaultRegion: defaultRegion,
		bucketRegions: regions,
	}
}

// Region returns the region configured for bucket.
func (r *Resolver) Region(bucket string) string {
	if region, ok := r.bucketRegions[bucket]; ok && region != "" {
		return region
	}
	return r.defaultRegion
}

// Bucket returns a handle for name.
func (r *Resolver) Bucket(name string) (*Bucket, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no bucket resolver configured", domain.ErrConfiguration)
	}
	conn, err := NewConnection(r.registry, r.Region(name))
	if err != nil {
		return nil, err
	}
	return NewBucket(name, conn)
}
