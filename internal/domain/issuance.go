package domain

import "time"

// Issuance records a signed upload form handed out to a client.
// It never contains the secret key or the signature.
type Issuance struct {
	// ID uniquely identifies the issued form.
	ID string `json:"id"`

	// Bucket is the target bucket.
	Bucket string `json:"bucket"`

	// Key is the exact key, or the key template ("prefix/${filename}").
	Key string `json:"key"`

	// ACL is the canned ACL the upload will carry.
	ACL CannedACL `json:"acl,omitempty"`

	// Region is the region the credential is scoped to.
	Region string `json:"region"`

	// Credential is the scoped credential string (access key id included).
	Credential string `json:"credential"`

	// IssuedAt is the single request time used for signing.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt is the policy expiration.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the policy has expired at now.
func (i *Issuance) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// TTL returns how long the issuance stays relevant after now.
func (i *Issuance) TTL(now time.Time) time.Duration {
	if i.IsExpired(now) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}
