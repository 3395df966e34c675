package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCannedACL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CannedACL
		wantErr error
	}{
		{name: "public-read", input: "public-read", want: ACLPublicRead},
		{name: "private", input: "private", want: ACLPrivate},
		{name: "bucket owner full control", input: "bucket-owner-full-control", want: ACLBucketOwnerFullControl},
		{name: "empty resolves to default", input: "", want: DefaultCannedACL},
		{name: "unknown value", input: "bogus", wantErr: ErrInvalidValue},
		{name: "case sensitive", input: "Private", wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCannedACL(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCannedACLString(t *testing.T) {
	acl, err := ParseCannedACL("public-read")
	require.NoError(t, err)
	assert.Equal(t, "public-read", acl.String())
}

func TestCannedACLsAreValid(t *testing.T) {
	for _, acl := range CannedACLs() {
		assert.True(t, acl.IsValid(), acl)
		assert.NotEmpty(t, acl.Description(), acl)
	}
	assert.Len(t, CannedACLs(), 7)
	assert.False(t, CannedACL("bogus").IsValid())
}

func TestMustParseCannedACLPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseCannedACL("bogus") })
	assert.Equal(t, ACLAuthenticatedRead, MustParseCannedACL("authenticated-read"))
}

func TestValidateBucketName(t *testing.T) {
	assert.NoError(t, ValidateBucketName("test-bucket"))
	assert.NoError(t, ValidateBucketName("test.ryannixon.com"))
	assert.ErrorIs(t, ValidateBucketName("ab"), ErrBucketNameLength)
	assert.ErrorIs(t, ValidateBucketName("Test-Bucket"), ErrBucketNameFormat)
	assert.ErrorIs(t, ValidateBucketName("192.168.1.1"), ErrBucketNameIPFormat)
}

func TestNormalizeKeyPrefix(t *testing.T) {
	assert.Equal(t, "pending", NormalizeKeyPrefix("/pending/"))
	assert.Equal(t, "a/b", NormalizeKeyPrefix("a/b/"))
	assert.Equal(t, "", NormalizeKeyPrefix("/"))
}
