package policy

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-formupload/internal/domain"
)

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func conditionsFor(b *Builder, name string) []Condition {
	var out []Condition
	for _, c := range b.Conditions() {
		if c.FieldName() == name {
			out = append(out, c)
		}
	}
	return out
}

func TestBuilderStartsWithBucket(t *testing.T) {
	b := NewBuilder("test-bucket")

	assert.Equal(t, "test-bucket", b.Bucket())
	assert.Equal(t, []Condition{ExactMatch{Name: FieldBucket, Value: "test-bucket"}}, b.Conditions())
	assert.Empty(t, b.Fields(), "bucket is not a form field")
}

func TestBuilderBucketStaysExact(t *testing.T) {
	b := NewBuilder("test-bucket")

	assert.ErrorIs(t, b.SetPrefixField(FieldBucket, "te"), ErrBucketField)
	assert.ErrorIs(t, b.RemoveField(FieldBucket), ErrBucketField)

	assert.Equal(t, "test-bucket", b.Bucket())
	assert.Empty(t, b.Fields())
	assert.Equal(t, []Condition{ExactMatch{Name: FieldBucket, Value: "test-bucket"}}, b.Conditions())
}

func TestBuilderKeyThenPrefix(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetField(FieldKey, "fixed.txt"))
	require.NoError(t, b.SetKeyPrefix("pending"))

	conds := conditionsFor(b, FieldKey)
	require.Len(t, conds, 1)
	assert.Equal(t, PrefixMatch{Name: FieldKey, Prefix: "pending/"}, conds[0])

	value, ok := b.Field(FieldKey)
	require.True(t, ok)
	assert.Equal(t, "pending/${filename}", value)
}

func TestBuilderPrefixThenKey(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetPrefixField(FieldKey, "uploads/"))
	require.NoError(t, b.SetKey("exact.bin"))

	conds := conditionsFor(b, FieldKey)
	require.Len(t, conds, 1)
	assert.Equal(t, ExactMatch{Name: FieldKey, Value: "exact.bin"}, conds[0])

	value, _ := b.Field(FieldKey)
	assert.Equal(t, "exact.bin", value)
}

func TestBuilderLastCallWins(t *testing.T) {
	type call struct {
		prefix bool
		value  string
	}
	sequences := [][]call{
		{{false, "a"}, {false, "b"}},
		{{true, "a/"}, {true, "b/"}},
		{{false, "a"}, {true, "b/"}, {false, "c"}},
		{{true, "a/"}, {false, "b"}, {true, "c/"}},
		{{true, "x/"}, {true, "y/"}, {false, "z"}, {false, "w"}, {true, "v/"}},
	}

	for _, seq := range sequences {
		b := NewBuilder("test-bucket")
		for _, c := range seq {
			if c.prefix {
				require.NoError(t, b.SetPrefixField("x-field", c.value))
			} else {
				require.NoError(t, b.SetField("x-field", c.value))
			}
		}

		last := seq[len(seq)-1]
		conds := conditionsFor(b, "x-field")
		require.Len(t, conds, 1)

		if last.prefix {
			assert.Equal(t, PrefixMatch{Name: "x-field", Prefix: last.value}, conds[0])
			v, _ := b.Field("x-field")
			assert.Equal(t, last.value+FilenamePlaceholder, v)
		} else {
			assert.Equal(t, ExactMatch{Name: "x-field", Value: last.value}, conds[0])
			v, _ := b.Field("x-field")
			assert.Equal(t, last.value, v)
		}
	}
}

func TestBuilderFieldNamesAreCaseSensitive(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetField("Key", "upper"))
	require.NoError(t, b.SetField("key", "lower"))

	assert.Len(t, conditionsFor(b, "Key"), 1)
	assert.Len(t, conditionsFor(b, "key"), 1)
}

func TestBuilderUpsertMovesToEnd(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetField("a", "1"))
	require.NoError(t, b.SetField("b", "2"))
	require.NoError(t, b.SetField("a", "3"))

	assert.Equal(t, []Condition{
		ExactMatch{Name: FieldBucket, Value: "test-bucket"},
		ExactMatch{Name: "b", Value: "2"},
		ExactMatch{Name: "a", Value: "3"},
	}, b.Conditions())
}

func TestBuilderRemoveFieldIsIdempotent(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetField(FieldACL, "private"))

	require.NoError(t, b.RemoveField(FieldACL))
	require.NoError(t, b.RemoveField(FieldACL))
	require.NoError(t, b.RemoveField("never-set"))

	_, ok := b.Field(FieldACL)
	assert.False(t, ok)
	assert.Empty(t, conditionsFor(b, FieldACL))
}

func TestBuilderFieldsMirrorExactConditions(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetKey("docs/report.pdf"))
	require.NoError(t, b.SetACL(domain.ACLPublicRead))
	require.NoError(t, b.SetSuccessURL("http://example.com/done"))
	require.NoError(t, b.SetMeta("Owner", "alice"))

	fields := b.Fields()
	for _, c := range b.Conditions() {
		exact, ok := c.(ExactMatch)
		if !ok || exact.Name == FieldBucket {
			continue
		}
		assert.Equal(t, exact.Value, fields[exact.Name])
	}
	assert.Len(t, fields, len(b.Conditions())-1)
}

func TestBuilderSetMeta(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetMeta("Tags", "a", "b", "c"))
	require.NoError(t, b.SetMeta("x-amz-meta-Owner", "bob"))

	v, ok := b.Field("x-amz-meta-tags")
	require.True(t, ok)
	assert.Equal(t, "a,b,c", v)

	v, ok = b.Field("x-amz-meta-owner")
	require.True(t, ok)
	assert.Equal(t, "bob", v)
}

func TestBuilderSetACLRejectsUnknown(t *testing.T) {
	b := NewBuilder("test-bucket")
	err := b.SetACL(domain.CannedACL("bogus"))
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestBuilderContentLengthRange(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetContentLengthRange(1, 10))
	require.NoError(t, b.SetContentLengthRange(0, 1024))

	conds := conditionsFor(b, OpContentLengthRange)
	require.Len(t, conds, 1)
	assert.Equal(t, LengthRange{Min: 0, Max: 1024}, conds[0])

	assert.ErrorIs(t, b.SetContentLengthRange(-1, 10), ErrInvalidRange)
	assert.ErrorIs(t, b.SetContentLengthRange(10, 1), ErrInvalidRange)
}

func TestBuilderFrozen(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetKey("a.txt"))
	b.Freeze()

	assert.True(t, b.Frozen())
	assert.ErrorIs(t, b.SetKey("b.txt"), ErrBuilderFrozen)
	assert.ErrorIs(t, b.SetPrefixField(FieldKey, "p/"), ErrBuilderFrozen)
	assert.ErrorIs(t, b.RemoveField(FieldKey), ErrBuilderFrozen)
	assert.ErrorIs(t, b.SetContentLengthRange(0, 1), ErrBuilderFrozen)

	v, _ := b.Field(FieldKey)
	assert.Equal(t, "a.txt", v)
}

func TestBuilderEmptyFieldName(t *testing.T) {
	b := NewBuilder("test-bucket")
	assert.ErrorIs(t, b.SetField("", "v"), ErrEmptyFieldName)
}

func TestBuildPolicyIsPure(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetKeyPrefix("pending"))
	before := b.Conditions()

	first, err := b.BuildPolicy(fixedNow, time.Hour).Encode()
	require.NoError(t, err)
	second, err := b.BuildPolicy(fixedNow, time.Hour).Encode()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, b.Conditions())

	later, err := b.BuildPolicy(fixedNow.Add(time.Minute), time.Hour).Encode()
	require.NoError(t, err)
	assert.NotEqual(t, first, later, "expiration follows the injected clock")
}

func TestBuildPolicyDefaultWindow(t *testing.T) {
	doc := NewBuilder("test-bucket").BuildPolicy(fixedNow, 0)
	assert.Equal(t, fixedNow.Add(DefaultExpiration), doc.Expiration)

	doc = NewBuilder("test-bucket").BuildPolicy(fixedNow, 15*time.Minute)
	assert.Equal(t, fixedNow.Add(15*time.Minute), doc.Expiration)
}

func TestBuildPolicyRoundTrip(t *testing.T) {
	b := NewBuilder("test-bucket")
	require.NoError(t, b.SetACL(domain.ACLPrivate))
	require.NoError(t, b.SetSuccessURL("http://example.com/done?a=1&b=2"))
	require.NoError(t, b.SetKeyPrefix("pending"))
	require.NoError(t, b.SetContentLengthRange(0, 5<<20))

	encoded, err := b.BuildPolicy(fixedNow, time.Hour).Encode()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var generic struct {
		Expiration string            `json:"expiration"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "2024-01-15T11:30:00Z", generic.Expiration)
	assert.JSONEq(t, `{"bucket":"test-bucket"}`, string(generic.Conditions[0]))
	assert.JSONEq(t, `["starts-with","$key","pending/"]`, string(generic.Conditions[3]))
	assert.Contains(t, string(raw), "a=1&b=2", "URLs are not HTML-escaped")

	doc, err := DecodeDocument(encoded)
	require.NoError(t, err)
	assert.Equal(t, b.Conditions(), doc.Conditions)
	assert.True(t, doc.Expiration.Equal(fixedNow.Add(time.Hour)))
}
