// Package policy builds S3 POST policy documents.
//
// A policy is an expiration time plus an ordered list of conditions the
// storage service enforces against the submitted form. Each form field is
// constrained by at most one condition: setting a field again replaces the
// earlier rule regardless of its match kind.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Condition operators as they appear in the policy JSON.
const (
	OpStartsWith         = "starts-with"
	OpEquals             = "eq"
	OpContentLengthRange = "content-length-range"
)

// Condition is one constraint inside a policy document.
// Implementations are ExactMatch, PrefixMatch and LengthRange.
type Condition interface {
	json.Marshaler

	// FieldName returns the form field the condition is keyed by.
	FieldName() string

	isCondition()
}

// ExactMatch requires the form field to equal Value.
// Serialized as {"<field>":"<value>"}.
type ExactMatch struct {
	Name  string
	Value string
}

// FieldName implements Condition.
func (c ExactMatch) FieldName() string { return c.Name }

// MarshalJSON implements json.Marshaler.
func (c ExactMatch) MarshalJSON() ([]byte, error) {
	return marshalJSON(map[string]string{c.Name: c.Value})
}

func (ExactMatch) isCondition() {}

// PrefixMatch requires the form field to start with Prefix.
// Serialized as ["starts-with","$<field>","<prefix>"].
type PrefixMatch struct {
	Name   string
	Prefix string
}

// FieldName implements Condition.
func (c PrefixMatch) FieldName() string { return c.Name }

// MarshalJSON implements json.Marshaler.
func (c PrefixMatch) MarshalJSON() ([]byte, error) {
	return marshalJSON([]string{OpStartsWith, "$" + c.Name, c.Prefix})
}

func (PrefixMatch) isCondition() {}

// LengthRange bounds the uploaded file size in bytes (inclusive).
// Serialized as ["content-length-range",min,max].
type LengthRange struct {
	Min int64
	Max int64
}

// FieldName implements Condition. The range is not bound to a form field and
// is keyed by its operator name.
func (c LengthRange) FieldName() string { return OpContentLengthRange }

// MarshalJSON implements json.Marshaler.
func (c LengthRange) MarshalJSON() ([]byte, error) {
	return marshalJSON([]any{OpContentLengthRange, c.Min, c.Max})
}

func (LengthRange) isCondition() {}

// parseCondition decodes a single JSON condition into its variant.
func parseCondition(raw json.RawMessage) (Condition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty condition", ErrInvalidDocument)
	}

	switch raw[0] {
	case '{':
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if len(m) != 1 {
			return nil, fmt.Errorf("%w: exact-match condition must have one field, got %d", ErrInvalidDocument, len(m))
		}
		for name, value := range m {
			return ExactMatch{Name: name, Value: value}, nil
		}

	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: array condition must have 3 elements, got %d", ErrInvalidDocument, len(parts))
		}
		var op string
		if err := json.Unmarshal(parts[0], &op); err != nil {
			return nil, fmt.Errorf("%w: condition operator: %v", ErrInvalidDocument, err)
		}

		switch op {
		case OpStartsWith, OpEquals:
			var field, value string
			if err := json.Unmarshal(parts[1], &field); err != nil {
				return nil, fmt.Errorf("%w: condition field: %v", ErrInvalidDocument, err)
			}
			if err := json.Unmarshal(parts[2], &value); err != nil {
				return nil, fmt.Errorf("%w: condition value: %v", ErrInvalidDocument, err)
			}
			if len(field) < 2 || field[0] != '$' {
				return nil, fmt.Errorf("%w: condition field %q must start with $", ErrInvalidDocument, field)
			}
			if op == OpEquals {
				return ExactMatch{Name: field[1:], Value: value}, nil
			}
			return PrefixMatch{Name: field[1:], Prefix: value}, nil

		case OpContentLengthRange:
			var r LengthRange
			if err := json.Unmarshal(parts[1], &r.Min); err != nil {
				return nil, fmt.Errorf("%w: content-length-range min: %v", ErrInvalidDocument, err)
			}
			if err := json.Unmarshal(parts[2], &r.Max); err != nil {
				return nil, fmt.Errorf("%w: content-length-range max: %v", ErrInvalidDocument, err)
			}
			return r, nil

		default:
			return nil, fmt.Errorf("%w: unknown condition operator %q", ErrInvalidDocument, op)
		}
	}

	return nil, fmt.Errorf("%w: unexpected condition %s", ErrInvalidDocument, raw)
}

// marshalJSON encodes v without HTML escaping so URLs such as
// success_action_redirect keep their literal '&'.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
