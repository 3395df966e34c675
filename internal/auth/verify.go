// Package auth implements AWS Signature Version 4 signing for S3 POST policies.
package auth

import (
	"crypto/hmac"
	"fmt"
	"strings"
	"time"

	"github.com/prn-tf/alexander-formupload/internal/policy"
)

// VerifyInput describes a submitted POST form to check.
type VerifyInput struct {
	// Bucket is the bucket the form was posted to.
	Bucket string

	// Fields are the submitted form fields, excluding the file.
	Fields map[string]string

	// Filename replaces ${filename} in the key field when set.
	Filename string

	// ContentLength is the uploaded file size; negative means unknown and
	// skips content-length-range checks.
	ContentLength int64

	// SecretKey is the secret for the access key named in x-amz-credential.
	SecretKey string

	// Now is the verification time used for the expiration check.
	Now time.Time
}

// VerifiedForm is a form whose signature and policy were checked.
type VerifiedForm struct {
	// Credential is the parsed x-amz-credential.
	Credential CredentialHeader

	// RequestTime is the parsed x-amz-date.
	RequestTime time.Time

	// Policy is the decoded policy document.
	Policy *policy.Document

	// Key is the resolved object key.
	Key string
}

// VerifyPostForm recomputes the signature of a submitted POST form and checks
// that the form satisfies every condition in its policy. Fields the policy
// does not name are rejected, except policy, x-amz-signature, file and x-ignore-*.
func VerifyPostForm(input VerifyInput) (*VerifiedForm, error) {
	if input.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret access key is required", ErrCryptoPrecondition)
	}
	if GetPostPolicyType(input.Fields) != PostPolicyV4 {
		return nil, fmt.Errorf("%w: not a signature v4 POST form", ErrInvalidPostForm)
	}

	encodedPolicy, _ := lookupField(input.Fields, policy.FieldPolicy)

	credentialValue, ok := lookupField(input.Fields, policy.FieldCredential)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPostForm, policy.FieldCredential)
	}
	credential, err := ParseCredential(credentialValue)
	if err != nil {
		return nil, err
	}

	dateValue, ok := lookupField(input.Fields, policy.FieldDate)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPostForm, policy.FieldDate)
	}
	requestTime, err := ParseRequestTime(dateValue)
	if err != nil {
		return nil, err
	}
	if requestTime.Format(YYYYMMDD) != credential.Scope.Date.Format(YYYYMMDD) {
		return nil, fmt.Errorf("%w: credential date does not match x-amz-date", ErrInvalidPostForm)
	}

	signature, ok := lookupField(input.Fields, policy.FieldSignature)
	if !ok || !signatureRegex.MatchString(signature) {
		return nil, fmt.Errorf("%w: missing or invalid signature", ErrInvalidPostForm)
	}

	signingKey := GetSigningKey(input.SecretKey, credential.Scope.Date, credential.Scope.Region, credential.Scope.Service)
	expected := GetSignature(signingKey, GetPolicyStringToSign(requestTime, credential.Scope, encodedPolicy))

	// Compare signatures (constant-time comparison)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrSignatureDoesNotMatch
	}

	doc, err := policy.DecodeDocument(encodedPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPostForm, err)
	}
	if doc.IsExpired(input.Now) {
		return nil, ErrPolicyExpired
	}

	key, _ := lookupField(input.Fields, policy.FieldKey)
	if input.Filename != "" {
		key = strings.ReplaceAll(key, policy.FilenamePlaceholder, input.Filename)
	}

	if err := checkConditions(doc, input, key); err != nil {
		return nil, err
	}

	return &VerifiedForm{
		Credential:  *credential,
		RequestTime: requestTime,
		Policy:      doc,
		Key:         key,
	}, nil
}

// checkConditions evaluates each policy condition against the form.
func checkConditions(doc *policy.Document, input VerifyInput, key string) error {
	value := func(name string) (string, bool) {
		switch name {
		case policy.FieldBucket:
			return input.Bucket, true
		case policy.FieldKey:
			return key, true
		}
		return lookupField(input.Fields, name)
	}

	for _, c := range doc.Conditions {
		switch cond := c.(type) {
		case policy.ExactMatch:
			got, ok := value(cond.Name)
			if !ok || got != cond.Value {
				return fmt.Errorf("%w: [\"eq\", \"$%s\", %q]", ErrPolicyConditionFailed, cond.Name, cond.Value)
			}

		case policy.PrefixMatch:
			got, ok := value(cond.Name)
			if !ok || !strings.HasPrefix(got, cond.Prefix) {
				return fmt.Errorf("%w: [\"starts-with\", \"$%s\", %q]", ErrPolicyConditionFailed, cond.Name, cond.Prefix)
			}

		case policy.LengthRange:
			if input.ContentLength < 0 {
				continue
			}
			if input.ContentLength < cond.Min || input.ContentLength > cond.Max {
				return fmt.Errorf("%w: content length %d outside [%d, %d]",
					ErrPolicyConditionFailed, input.ContentLength, cond.Min, cond.Max)
			}
		}
	}

	return checkExtraFields(doc, input.Fields)
}

// ignoredFieldPrefix marks form fields S3 skips during policy evaluation.
const ignoredFieldPrefix = "x-ignore-"

// checkExtraFields rejects submitted fields that no policy condition names.
func checkExtraFields(doc *policy.Document, fields map[string]string) error {
	covered := make(map[string]struct{}, len(doc.Conditions))
	for _, c := range doc.Conditions {
		covered[strings.ToLower(c.FieldName())] = struct{}{}
	}

	for name := range fields {
		lower := strings.ToLower(name)
		switch lower {
		case policy.FieldPolicy, policy.FieldSignature, policy.FieldFile:
			continue
		}
		if strings.HasPrefix(lower, ignoredFieldPrefix) {
			continue
		}
		if _, ok := covered[lower]; !ok {
			return fmt.Errorf("%w: extra input field %s", ErrPolicyConditionFailed, name)
		}
	}
	return nil
}
