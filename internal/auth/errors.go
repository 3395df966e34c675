// Package auth implements AWS Signature Version 4 signing for S3 POST policies.
package auth

import "errors"

// Signing and verification errors.
var (
	// ErrCryptoPrecondition indicates signing was attempted with a missing secret,
	// access key or scope component. It is a programmer error, never transient.
	ErrCryptoPrecondition = errors.New("signing precondition failed")

	// ErrInvalidCredential indicates a credential string that is not
	// accessKey/date/region/service/aws4_request.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrInvalidPostForm indicates a submitted form is missing or has malformed
	// signing fields.
	ErrInvalidPostForm = errors.New("invalid POST form")

	// ErrSignatureDoesNotMatch indicates the calculated signature doesn't match.
	ErrSignatureDoesNotMatch = errors.New("the request signature we calculated does not match the signature you provided")

	// ErrPolicyExpired indicates the policy expiration has passed.
	ErrPolicyExpired = errors.New("invalid according to policy: policy expired")

	// ErrPolicyConditionFailed indicates a form field violates a policy condition.
	ErrPolicyConditionFailed = errors.New("invalid according to policy: policy condition failed")
)
