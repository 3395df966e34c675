// Package form renders signed upload forms as HTML.
package form

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/prn-tf/alexander-formupload/internal/domain"
)

var uploadTemplate = template.Must(template.New("upload").Parse(
	`<form action="{{.Action}}" method="{{.Method}}" enctype="{{.EncType}}">
{{- range .Fields}}
  <input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
  <input type="file" name="file">
  <input type="submit" value="{{.Submit}}">
</form>
`))

// DefaultSubmitLabel is the caption of the submit button.
const DefaultSubmitLabel = "Upload"

type field struct {
	Name  string
	Value string
}

type view struct {
	Action  string
	Method  string
	EncType string
	Fields  []field
	Submit  string
}

// Render writes the form as HTML. Hidden inputs are sorted by name and the
// file input comes last, as S3 ignores fields after the file.
func Render(w io.Writer, f *domain.UploadForm) error {
	if f == nil {
		return fmt.Errorf("%w: no form to render", domain.ErrConfiguration)
	}

	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	v := view{
		Action:  f.Action,
		Method:  f.Method,
		EncType: f.EncType,
		Fields:  make([]field, 0, len(names)),
		Submit:  DefaultSubmitLabel,
	}
	for _, name := range names {
		v.Fields = append(v.Fields, field{Name: name, Value: f.Fields[name]})
	}

	return uploadTemplate.Execute(w, v)
}

// String renders the form, or the build error as a visible message.
func String(f *domain.UploadForm, err error) string {
	if err != nil {
		return errorHTML(err)
	}

	var buf bytes.Buffer
	if rerr := Render(&buf, f); rerr != nil {
		return errorHTML(rerr)
	}
	return buf.String()
}

func errorHTML(err error) string {
	return `<p class="error">` + template.HTMLEscapeString(err.Error()) + "</p>\n"
}
