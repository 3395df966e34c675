// Package auth implements AWS Signature Version 4 signing for S3 POST policies.
package auth

import (
	"fmt"
	"time"
)

// =============================================================================
// Credential Types
// =============================================================================

// CredentialScope represents the scope of AWS credentials.
// Format: {date}/{region}/{service}/aws4_request
type CredentialScope struct {
	// Date is the date portion of the scope (YYYYMMDD).
	Date time.Time

	// Region is the AWS region (e.g., "us-east-1").
	Region string

	// Service is the AWS service (e.g., "s3").
	Service string
}

// NewCredentialScope builds the scope for a request signed at t.
// t is converted to UTC; region and service must be non-empty.
func NewCredentialScope(t time.Time, region, service string) (CredentialScope, error) {
	scope := CredentialScope{
		Date:    t.UTC(),
		Region:  region,
		Service: service,
	}
	if err := scope.Validate(); err != nil {
		return CredentialScope{}, err
	}
	return scope, nil
}

// Validate checks that every scope component is present.
func (cs CredentialScope) Validate() error {
	if cs.Date.IsZero() {
		return fmt.Errorf("%w: scope date is required", ErrCryptoPrecondition)
	}
	if cs.Region == "" {
		return fmt.Errorf("%w: scope region is required", ErrCryptoPrecondition)
	}
	if cs.Service == "" {
		return fmt.Errorf("%w: scope service is required", ErrCryptoPrecondition)
	}
	return nil
}

// String returns the credential scope as a string.
// Format: {date}/{region}/{service}/aws4_request
func (cs CredentialScope) String() string {
	return cs.Date.UTC().Format(YYYYMMDD) + "/" + cs.Region + "/" + cs.Service + "/" + AWS4Request
}

// Credential returns the full credential string for accessKeyID.
// Format: {access_key}/{date}/{region}/{service}/aws4_request
func (cs CredentialScope) Credential(accessKeyID string) string {
	return CredentialHeader{AccessKey: accessKeyID, Scope: cs}.String()
}

// CredentialHeader represents a parsed x-amz-credential value.
type CredentialHeader struct {
	// AccessKey is the access key ID.
	AccessKey string

	// Scope is the credential scope.
	Scope CredentialScope
}

// String returns the credential as a string.
// Format: {access_key}/{scope}
func (ch CredentialHeader) String() string {
	return ch.AccessKey + "/" + ch.Scope.String()
}

// =============================================================================
// Signing Types
// =============================================================================

// SignPolicyInput holds everything needed to sign one POST policy.
type SignPolicyInput struct {
	// AccessKeyID identifies the credential; it appears in x-amz-credential.
	AccessKeyID string

	// SecretKey is the secret access key. Used transiently and never logged.
	SecretKey string

	// Scope is the credential scope built from RequestTime.
	Scope CredentialScope

	// RequestTime is the single instant the request is signed at.
	RequestTime time.Time

	// Policy is the base64-encoded policy document.
	Policy string

	// Key is the value of the "key" form field.
	Key string
}

// SignedPolicy is the result of signing a POST policy.
type SignedPolicy struct {
	// Signature is the lowercase hex signature.
	Signature string

	// Credential is the x-amz-credential value.
	Credential string

	// Fields are the signing-related form fields: key, policy, x-amz-credential,
	// x-amz-date, x-amz-signature and x-amz-algorithm.
	Fields map[string]string
}

// PostPolicyType identifies the flavour of a submitted POST form.
type PostPolicyType int

const (
	// PostPolicyUnknown indicates an unrecognized form.
	PostPolicyUnknown PostPolicyType = iota

	// PostPolicyAnonymous indicates a form without a policy.
	PostPolicyAnonymous

	// PostPolicyV4 indicates a form signed with AWS Signature Version 4.
	PostPolicyV4
)

// String returns the string representation of the policy type.
func (t PostPolicyType) String() string {
	switch t {
	case PostPolicyAnonymous:
		return "Anonymous"
	case PostPolicyV4:
		return "PostPolicyV4"
	default:
		return "Unknown"
	}
}
