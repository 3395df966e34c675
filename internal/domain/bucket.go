package domain

import (
	"regexp"
	"strings"
)

// MaxKeyLength is the maximum length of an S3 object key in bytes.
const MaxKeyLength = 1024

// KeySeparator separates "folders" inside an object key.
const KeySeparator = "/"

// bucketNameRegex validates S3-compliant bucket names.
// Rules: 3-63 characters, lowercase letters, numbers, hyphens, periods.
// Must start and end with letter or number.
var bucketNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

var ipAddressRegex = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// ValidateBucketName checks if the bucket name follows S3 naming conventions.
func ValidateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return ErrBucketNameLength
	}

	if !bucketNameRegex.MatchString(name) {
		return ErrBucketNameFormat
	}

	if ipAddressRegex.MatchString(name) {
		return ErrBucketNameIPFormat
	}

	return nil
}

// ValidateObjectKey checks the key length limit.
func ValidateObjectKey(key string) error {
	if len(key) > MaxKeyLength {
		return ErrObjectKeyTooLong
	}
	return nil
}

// NormalizeKeyPrefix strips leading and trailing separators from a folder prefix.
// "/pending/" and "pending" both become "pending".
func NormalizeKeyPrefix(prefix string) string {
	return strings.Trim(prefix, KeySeparator)
}
