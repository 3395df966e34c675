package policy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultExpiration is the policy lifetime used when no window is given.
const DefaultExpiration = 1 * time.Hour

// ExpirationTimeFormat is the ISO 8601 layout of the policy expiration.
const ExpirationTimeFormat = "2006-01-02T15:04:05Z07:00"

// Document is an immutable POST policy: an expiration plus ordered conditions.
type Document struct {
	// Expiration is the absolute time after which the service rejects the upload.
	Expiration time.Time

	// Conditions are the constraints in insertion order.
	Conditions []Condition
}

// documentJSON fixes the key order of the serialized policy.
type documentJSON struct {
	Expiration string      `json:"expiration"`
	Conditions []Condition `json:"conditions"`
}

// MarshalJSON implements json.Marshaler.
// Output is compact, not HTML-escaped and has no trailing newline.
func (d Document) MarshalJSON() ([]byte, error) {
	conditions := d.Conditions
	if conditions == nil {
		conditions = []Condition{}
	}
	return marshalJSON(documentJSON{
		Expiration: d.Expiration.UTC().Format(ExpirationTimeFormat),
		Conditions: conditions,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Expiration string            `json:"expiration"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	expiration, err := time.Parse(ExpirationTimeFormat, raw.Expiration)
	if err != nil {
		return fmt.Errorf("%w: invalid expiration %q", ErrInvalidDocument, raw.Expiration)
	}

	conditions := make([]Condition, 0, len(raw.Conditions))
	for _, c := range raw.Conditions {
		cond, err := parseCondition(c)
		if err != nil {
			return err
		}
		conditions = append(conditions, cond)
	}

	d.Expiration = expiration.UTC()
	d.Conditions = conditions
	return nil
}

// Encode returns the base64 (standard encoding) of the policy JSON.
// This string is what gets signed and submitted as the "policy" field.
func (d Document) Encode() (string, error) {
	data, err := d.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode policy: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDocument parses a base64-encoded policy as submitted in a form.
func DecodeDocument(encoded string) (*Document, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: policy is not valid base64: %v", ErrInvalidDocument, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Condition returns the condition keyed by name, if any.
func (d Document) Condition(name string) (Condition, bool) {
	for _, c := range d.Conditions {
		if c.FieldName() == name {
			return c, true
		}
	}
	return nil, false
}

// IsExpired reports whether the policy is no longer valid at now.
func (d Document) IsExpired(now time.Time) bool {
	return !now.Before(d.Expiration)
}
