// Package resource holds the bucket, key and connection handles a form is built for.
package resource

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/prn-tf/alexander-formupload/internal/connection"
	"github.com/prn-tf/alexander-formupload/internal/domain"
)

// ClientProvider is anything that can hand out an S3 client.
type ClientProvider interface {
	Client(ctx context.Context) (*s3.Client, error)
}

// Connection binds a region to a client registry.
type Connection struct {
	region   string
	registry *connection.Registry
}

// NewConnection creates a connection for region backed by registry.
func NewConnection(registry *connection.Registry, region string) (*Connection, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: connection requires a client registry", domain.ErrConfiguration)
	}
	if region == "" {
		return nil, fmt.Errorf("%w: connection requires a region", domain.ErrConfiguration)
	}
	return &Connection{region: region, registry: registry}, nil
}

// Region returns the connection's region.
func (c *Connection) Region() string {
	return c.region
}

// Client returns the registry's client for the connection's region.
func (c *Connection) Client(ctx context.Context) (*s3.Client, error) {
	return c.registry.Client(ctx, c.region)
}

// Bucket is a named bucket reachable through a connection.
type Bucket struct {
	name string
	conn *Connection
}

// NewBucket validates name and binds it to conn.
func NewBucket(name string, conn *Connection) (*Bucket, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: bucket name is required", domain.ErrConfiguration)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: bucket %s has no connection", domain.ErrConfiguration, name)
	}
	if err := domain.ValidateBucketName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
	}
	return &Bucket{name: name, conn: conn}, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Connection returns the bucket's connection.
func (b *Bucket) Connection() *Connection {
	return b.conn
}

// Client returns the client for the bucket's region.
func (b *Bucket) Client(ctx context.Context) (*s3.Client, error) {
	return b.conn.Client(ctx)
}

// Key returns a handle for key inside the bucket.
func (b *Bucket) Key(key string) (*Key, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: object key is required", domain.ErrConfiguration)
	}
	if err := domain.ValidateObjectKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
	}
	return &Key{bucket: b, key: key}, nil
}

// Key is one object key inside a bucket.
type Key struct {
	bucket *Bucket
	key    string
}

// Bucket returns the key's bucket.
func (k *Key) Bucket() *Bucket {
	return k.bucket
}

// Name returns the object key.
func (k *Key) Name() string {
	return k.key
}

// Client returns the client for the key's bucket.
func (k *Key) Client(ctx context.Context) (*s3.Client, error) {
	return k.bucket.Client(ctx)
}
