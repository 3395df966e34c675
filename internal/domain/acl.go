// Package domain contains the core entities for Alexander Form Upload.
package domain

import "fmt"

// CannedACL is a preset access control list recognized by S3.
// The set of values is closed; use ParseCannedACL to build one from user input.
type CannedACL string

const (
	// ACLPrivate gives the owner FULL_CONTROL and nobody else any access.
	ACLPrivate CannedACL = "private"

	// ACLPublicRead gives the owner FULL_CONTROL and the AllUsers group READ access.
	ACLPublicRead CannedACL = "public-read"

	// ACLPublicReadWrite gives the AllUsers group READ and WRITE access.
	ACLPublicReadWrite CannedACL = "public-read-write"

	// ACLAWSExecRead gives Amazon EC2 READ access to GET an AMI bundle.
	ACLAWSExecRead CannedACL = "aws-exec-read"

	// ACLAuthenticatedRead gives the AuthenticatedUsers group READ access.
	ACLAuthenticatedRead CannedACL = "authenticated-read"

	// ACLBucketOwnerRead gives the bucket owner READ access to the object.
	ACLBucketOwnerRead CannedACL = "bucket-owner-read"

	// ACLBucketOwnerFullControl gives both object and bucket owner FULL_CONTROL.
	ACLBucketOwnerFullControl CannedACL = "bucket-owner-full-control"
)

// DefaultCannedACL is used when no ACL value is supplied.
const DefaultCannedACL = ACLPrivate

// CannedACLs returns every valid canned ACL in declaration order.
func CannedACLs() []CannedACL {
	return []CannedACL{
		ACLPrivate,
		ACLPublicRead,
		ACLPublicReadWrite,
		ACLAWSExecRead,
		ACLAuthenticatedRead,
		ACLBucketOwnerRead,
		ACLBucketOwnerFullControl,
	}
}

// ParseCannedACL validates s against the closed set of canned ACLs.
// An empty string resolves to DefaultCannedACL.
func ParseCannedACL(s string) (CannedACL, error) {
	if s == "" {
		return DefaultCannedACL, nil
	}

	acl := CannedACL(s)
	if !acl.IsValid() {
		return "", fmt.Errorf("%w: not a valid canned ACL %q", ErrInvalidValue, s)
	}
	return acl, nil
}

// MustParseCannedACL is like ParseCannedACL but panics on an invalid value.
// Intended for package-level constants and tests.
func MustParseCannedACL(s string) CannedACL {
	acl, err := ParseCannedACL(s)
	if err != nil {
		panic(err)
	}
	return acl
}

// IsValid reports whether a is one of the known canned ACLs.
func (a CannedACL) IsValid() bool {
	switch a {
	case ACLPrivate, ACLPublicRead, ACLPublicReadWrite, ACLAWSExecRead,
		ACLAuthenticatedRead, ACLBucketOwnerRead, ACLBucketOwnerFullControl:
		return true
	default:
		return false
	}
}

// String returns the wire value of the ACL.
func (a CannedACL) String() string {
	return string(a)
}

// Description returns the grant summary for the ACL.
func (a CannedACL) Description() string {
	switch a {
	case ACLPrivate:
		return "Owner gets FULL_CONTROL. No one else has access rights."
	case ACLPublicRead:
		return "Owner gets FULL_CONTROL. The AllUsers group gets READ access."
	case ACLPublicReadWrite:
		return "Owner gets FULL_CONTROL. The AllUsers group gets READ and WRITE access."
	case ACLAWSExecRead:
		return "Owner gets FULL_CONTROL. Amazon EC2 gets READ access to GET an AMI bundle."
	case ACLAuthenticatedRead:
		return "Owner gets FULL_CONTROL. The AuthenticatedUsers group gets READ access."
	case ACLBucketOwnerRead:
		return "Object owner gets FULL_CONTROL. Bucket owner gets READ access."
	case ACLBucketOwnerFullControl:
		return "Both the object owner and the bucket owner get FULL_CONTROL."
	default:
		return ""
	}
}
