package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/prn-tf/alexander-formupload/internal/domain"
)

// Form field names understood by S3 POST uploads.
const (
	FieldBucket                = "bucket"
	FieldKey                   = "key"
	FieldACL                   = "acl"
	FieldSuccessActionRedirect = "success_action_redirect"
	FieldPolicy                = "policy"
	FieldAlgorithm             = "x-amz-algorithm"
	FieldCredential            = "x-amz-credential"
	FieldDate                  = "x-amz-date"
	FieldSignature             = "x-amz-signature"
	FieldSecurityToken         = "x-amz-security-token"
	FieldFile                  = "file"

	// MetaPrefix prefixes user metadata fields.
	MetaPrefix = "x-amz-meta-"
)

// FilenamePlaceholder is replaced by S3 with the name of the uploaded file.
const FilenamePlaceholder = "${filename}"

// Builder accumulates form fields and policy conditions for one upload form.
// It is not safe for concurrent use; create one per request.
type Builder struct {
	bucket     string
	conditions []Condition
	fields     map[string]string
	frozen     bool
}

// NewBuilder creates a builder whose policy is bound to bucket.
func NewBuilder(bucket string) *Builder {
	return &Builder{
		bucket:     bucket,
		conditions: []Condition{ExactMatch{Name: FieldBucket, Value: bucket}},
		fields:     make(map[string]string),
	}
}

// Bucket returns the bucket the policy is bound to.
func (b *Builder) Bucket() string {
	return b.bucket
}

// SetField upserts an exact-match condition and its form field.
// Any earlier condition for name, of either kind, is removed first.
func (b *Builder) SetField(name, value string) error {
	if err := b.checkMutable(name); err != nil {
		return err
	}
	if name == FieldBucket {
		b.bucket = value
	} else {
		b.fields[name] = value
	}
	b.upsert(ExactMatch{Name: name, Value: value})
	return nil
}

// SetPrefixField upserts a starts-with condition for name.
// The form field carries prefix followed by FilenamePlaceholder so the
// rendered form still submits a literal value. The bucket only takes exact
// matches.
func (b *Builder) SetPrefixField(name, prefix string) error {
	if err := b.checkMutable(name); err != nil {
		return err
	}
	if name == FieldBucket {
		return ErrBucketField
	}
	b.fields[name] = prefix + FilenamePlaceholder
	b.upsert(PrefixMatch{Name: name, Prefix: prefix})
	return nil
}

// RemoveField drops the condition and form field for name. Removing an
// absent field is a no-op. The bucket condition cannot be removed.
func (b *Builder) RemoveField(name string) error {
	if b.frozen {
		return ErrBuilderFrozen
	}
	if name == FieldBucket {
		return ErrBucketField
	}
	b.remove(name)
	return nil
}

// SetKey binds the upload to an exact object key.
// Mutually exclusive with SetKeyPrefix; the most recent call wins.
func (b *Builder) SetKey(key string) error {
	return b.SetField(FieldKey, key)
}

// SetKeyPrefix lets the browser choose the file name under a folder prefix.
// With prefix "pending" and an uploaded "test.txt" the final key is
// "pending/test.txt". Mutually exclusive with SetKey.
func (b *Builder) SetKeyPrefix(prefix string) error {
	prefix = domain.NormalizeKeyPrefix(prefix)
	if prefix != "" {
		prefix += domain.KeySeparator
	}
	return b.SetPrefixField(FieldKey, prefix)
}

// SetACL assigns the canned ACL applied to the uploaded object.
func (b *Builder) SetACL(acl domain.CannedACL) error {
	if !acl.IsValid() {
		return fmt.Errorf("%w: not a valid canned ACL %q", domain.ErrInvalidValue, string(acl))
	}
	return b.SetField(FieldACL, acl.String())
}

// SetSuccessURL sets the URL the browser is redirected to after a successful upload.
func (b *Builder) SetSuccessURL(url string) error {
	return b.SetField(FieldSuccessActionRedirect, url)
}

// SetMeta adds user metadata stored with the object. The name is lower-cased
// and prefixed with "x-amz-meta-"; multiple values are joined with ",".
func (b *Builder) SetMeta(name string, values ...string) error {
	return b.SetField(MetaFieldName(name), strings.Join(values, ","))
}

// SetContentLengthRange limits the uploaded file size to [min, max] bytes.
func (b *Builder) SetContentLengthRange(min, max int64) error {
	if b.frozen {
		return ErrBuilderFrozen
	}
	if min < 0 || min > max {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, min, max)
	}
	b.upsert(LengthRange{Min: min, Max: max})
	return nil
}

// Freeze makes the builder read-only. Mutators return ErrBuilderFrozen afterwards.
func (b *Builder) Freeze() {
	b.frozen = true
}

// Frozen reports whether Freeze was called.
func (b *Builder) Frozen() bool {
	return b.frozen
}

// Field returns the form value for name.
func (b *Builder) Field(name string) (string, bool) {
	v, ok := b.fields[name]
	return v, ok
}

// Fields returns a copy of the form fields.
func (b *Builder) Fields() map[string]string {
	out := make(map[string]string, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// Conditions returns a copy of the conditions in insertion order.
func (b *Builder) Conditions() []Condition {
	out := make([]Condition, len(b.conditions))
	copy(out, b.conditions)
	return out
}

// BuildPolicy returns the policy document for the current state.
// The expiration is now plus window; a non-positive window means DefaultExpiration.
// The builder is not modified.
func (b *Builder) BuildPolicy(now time.Time, window time.Duration) Document {
	if window <= 0 {
		window = DefaultExpiration
	}
	return Document{
		Expiration: now.UTC().Add(window),
		Conditions: b.Conditions(),
	}
}

// MetaFieldName returns the form field name for a metadata key.
func MetaFieldName(name string) string {
	name = strings.ToLower(name)
	if strings.HasPrefix(name, MetaPrefix) {
		return name
	}
	return MetaPrefix + name
}

func (b *Builder) checkMutable(name string) error {
	if b.frozen {
		return ErrBuilderFrozen
	}
	if name == "" {
		return ErrEmptyFieldName
	}
	return nil
}

// upsert removes any condition keyed like c and appends c.
func (b *Builder) upsert(c Condition) {
	b.removeCondition(c.FieldName())
	b.conditions = append(b.conditions, c)
}

func (b *Builder) remove(name string) {
	b.removeCondition(name)
	delete(b.fields, name)
}

func (b *Builder) removeCondition(name string) {
	kept := b.conditions[:0]
	for _, c := range b.conditions {
		if c.FieldName() != name {
			kept = append(kept, c)
		}
	}
	// Clear the tail so dropped conditions are not retained.
	for i := len(kept); i < len(b.conditions); i++ {
		b.conditions[i] = nil
	}
	b.conditions = kept
}
