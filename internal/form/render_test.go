package form

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-formupload/internal/domain"
)

func testForm() *domain.UploadForm {
	return &domain.UploadForm{
		Action:  "https://test-bucket.s3-us-west-2.amazonaws.com",
		Method:  domain.FormMethod,
		EncType: domain.FormEncType,
		Fields: map[string]string{
			"x-amz-signature":         "abc",
			"key":                     "pending/${filename}",
			"acl":                     "private",
			"success_action_redirect": "http://example.com/done?a=1&b=2",
		},
	}
}

func TestRender(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Render(&sb, testForm()))
	out := sb.String()

	assert.Contains(t, out, `<form action="https://test-bucket.s3-us-west-2.amazonaws.com" method="POST" enctype="multipart/form-data">`)
	assert.Contains(t, out, `<input type="hidden" name="key" value="pending/${filename}">`)
	assert.Contains(t, out, `value="http://example.com/done?a=1&amp;b=2"`)

	// Hidden inputs are sorted and the file input comes last.
	acl := strings.Index(out, `name="acl"`)
	key := strings.Index(out, `name="key"`)
	sig := strings.Index(out, `name="x-amz-signature"`)
	file := strings.Index(out, `type="file"`)
	assert.True(t, acl < key && key < sig && sig < file, out)
}

func TestRenderNilForm(t *testing.T) {
	var sb strings.Builder
	assert.ErrorIs(t, Render(&sb, nil), domain.ErrConfiguration)
}

func TestString(t *testing.T) {
	assert.Contains(t, String(testForm(), nil), `<input type="file" name="file">`)

	out := String(nil, errors.New(`bucket <missing>`))
	assert.Equal(t, "<p class=\"error\">bucket &lt;missing&gt;</p>\n", out)
}
