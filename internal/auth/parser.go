// Package auth implements AWS Signature Version 4 signing for S3 POST policies.
package auth

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/prn-tf/alexander-formupload/internal/policy"
)

// =============================================================================
// Form Field Parsing
// =============================================================================

// credentialRegex matches accessKey/date/region/service/aws4_request
var credentialRegex = regexp.MustCompile(`^([^/]+)/(\d{8})/([^/]+)/([^/]+)/aws4_request$`)

// signatureRegex matches a lowercase hex SHA-256 HMAC.
var signatureRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

// GetPostPolicyType determines how a submitted form was signed.
func GetPostPolicyType(fields map[string]string) PostPolicyType {
	if _, ok := lookupField(fields, policy.FieldPolicy); !ok {
		return PostPolicyAnonymous
	}
	if algorithm, ok := lookupField(fields, policy.FieldAlgorithm); ok && algorithm == SignV4Algorithm {
		return PostPolicyV4
	}
	return PostPolicyUnknown
}

// ParseCredential parses an x-amz-credential value.
// Format: access_key/YYYYMMDD/region/service/aws4_request
func ParseCredential(credential string) (*CredentialHeader, error) {
	match := credentialRegex.FindStringSubmatch(credential)
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCredential, credential)
	}

	date, err := time.Parse(YYYYMMDD, match[2])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date in credential", ErrInvalidCredential)
	}

	return &CredentialHeader{
		AccessKey: match[1],
		Scope: CredentialScope{
			Date:    date,
			Region:  match[3],
			Service: match[4],
		},
	}, nil
}

// ParseRequestTime parses an x-amz-date value.
func ParseRequestTime(value string) (time.Time, error) {
	t, err := time.Parse(ISO8601BasicFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid x-amz-date %q", ErrInvalidPostForm, value)
	}
	return t, nil
}

// lookupField finds a form field by name. S3 treats POST form field names
// case-insensitively, so an exact match is tried first and then a folded one.
func lookupField(fields map[string]string, name string) (string, bool) {
	if v, ok := fields[name]; ok {
		return v, true
	}
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
