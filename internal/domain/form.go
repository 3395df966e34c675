package domain

import "time"

// Form encodings and methods used by S3 POST uploads.
const (
	FormMethod  = "POST"
	FormEncType = "multipart/form-data"
)

// UploadForm is a signed, browser-submittable upload form.
// Fields are the hidden inputs the form must submit verbatim, in addition
// to the file input.
type UploadForm struct {
	// ID identifies the issuance record, when one was stored.
	ID string `json:"id,omitempty"`

	// Action is the upload URL.
	Action string `json:"action"`

	// Method is always POST.
	Method string `json:"method"`

	// EncType is always multipart/form-data.
	EncType string `json:"enctype"`

	// Fields are the hidden form inputs.
	Fields map[string]string `json:"fields"`

	// Expiration is when the policy stops being accepted.
	Expiration time.Time `json:"expiration"`
}
