// Package auth implements AWS Signature Version 4 signing for S3 POST policies.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/prn-tf/alexander-formupload/internal/policy"
)

// =============================================================================
// Signing Key Generation
// =============================================================================

// GetSigningKey derives the signing key for AWS v4 signatures.
// This implements the key derivation: HMAC(HMAC(HMAC(HMAC("AWS4"+secret, date), region), service), "aws4_request")
func GetSigningKey(secretKey string, date time.Time, region, service string) []byte {
	// Step 1: kDate = HMAC("AWS4" + secretKey, date)
	kDate := hmacSHA256([]byte(secretKeyPrefix+secretKey), []byte(date.UTC().Format(YYYYMMDD)))

	// Step 2: kRegion = HMAC(kDate, region)
	kRegion := hmacSHA256(kDate, []byte(region))

	// Step 3: kService = HMAC(kRegion, service)
	kService := hmacSHA256(kRegion, []byte(service))

	// Step 4: kSigning = HMAC(kService, "aws4_request")
	return hmacSHA256(kService, []byte(AWS4Request))
}

// GetSignature calculates the signature using the signing key.
func GetSignature(signingKey []byte, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

// hmacSHA256 computes HMAC-SHA256.
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// =============================================================================
// String to Sign Building
// =============================================================================

// GetPolicyStringToSign builds the string to sign for a POST policy.
// Format: AWS4-HMAC-SHA256\n{ISO8601 time}\n{scope}\n{base64 policy}
func GetPolicyStringToSign(requestTime time.Time, scope CredentialScope, encodedPolicy string) string {
	return SignV4Algorithm + "\n" +
		requestTime.UTC().Format(ISO8601BasicFormat) + "\n" +
		scope.String() + "\n" +
		encodedPolicy
}

// =============================================================================
// Policy Signing
// =============================================================================

// SignPolicy signs a base64-encoded POST policy and returns the form fields the
// browser must submit alongside the file.
func SignPolicy(input SignPolicyInput) (*SignedPolicy, error) {
	if err := validateSignInput(input); err != nil {
		return nil, err
	}

	signingKey := GetSigningKey(input.SecretKey, input.Scope.Date, input.Scope.Region, input.Scope.Service)
	signature := GetSignature(signingKey, GetPolicyStringToSign(input.RequestTime, input.Scope, input.Policy))
	credential := input.Scope.Credential(input.AccessKeyID)

	return &SignedPolicy{
		Signature:  signature,
		Credential: credential,
		Fields: map[string]string{
			policy.FieldKey:        input.Key,
			policy.FieldPolicy:     input.Policy,
			policy.FieldCredential: credential,
			policy.FieldDate:       input.RequestTime.UTC().Format(ISO8601BasicFormat),
			policy.FieldSignature:  signature,
			policy.FieldAlgorithm:  SignV4Algorithm,
		},
	}, nil
}

// validateSignInput checks the preconditions of SignPolicy. It never includes
// the secret in the returned error.
func validateSignInput(input SignPolicyInput) error {
	if input.SecretKey == "" {
		return fmt.Errorf("%w: secret access key is required", ErrCryptoPrecondition)
	}
	if input.AccessKeyID == "" {
		return fmt.Errorf("%w: access key id is required", ErrCryptoPrecondition)
	}
	if input.Policy == "" {
		return fmt.Errorf("%w: policy is required", ErrCryptoPrecondition)
	}
	if input.RequestTime.IsZero() {
		return fmt.Errorf("%w: request time is required", ErrCryptoPrecondition)
	}
	if err := input.Scope.Validate(); err != nil {
		return err
	}
	if input.Scope.Date.UTC().Format(YYYYMMDD) != input.RequestTime.UTC().Format(YYYYMMDD) {
		return fmt.Errorf("%w: scope date does not match request time", ErrCryptoPrecondition)
	}
	return nil
}
