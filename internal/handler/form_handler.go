package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-formupload/internal/domain"
	"github.com/prn-tf/alexander-formupload/internal/form"
	"github.com/prn-tf/alexander-formupload/internal/resource"
	"github.com/prn-tf/alexander-formupload/internal/service"
)

// metaQueryPrefix marks metadata in GET query strings: ?meta.owner=alice.
const metaQueryPrefix = "meta."

// FormHandler serves signed upload forms.
type FormHandler struct {
	formService *service.FormService
	resolver    *resource.Resolver
	logger      zerolog.Logger
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(formService *service.FormService, resolver *resource.Resolver, logger zerolog.Logger) *FormHandler {
	return &FormHandler{
		formService: formService,
		resolver:    resolver,
		logger:      logger.With().Str("handler", "form").Logger(),
	}
}

// RegisterRoutes registers form routes.
func (h *FormHandler) RegisterRoutes(r chi.Router) {
	r.Route("/v1/forms", func(r chi.Router) {
		r.Post("/", h.CreateForm)
		r.Get("/issued/{id}", h.GetIssuance)
		r.Get("/{bucket}", h.GetForm)
	})
}

// CreateFormRequest is the JSON body of POST /v1/forms.
type CreateFormRequest struct {
	Bucket           string              `json:"bucket"`
	Key              string              `json:"key,omitempty"`
	KeyPrefix        string              `json:"key_prefix,omitempty"`
	ACL              string              `json:"acl,omitempty"`
	SuccessURL       string              `json:"success_url,omitempty"`
	Metadata         map[string][]string `json:"metadata,omitempty"`
	MinContentLength int64               `json:"min_content_length,omitempty"`
	MaxContentLength int64               `json:"max_content_length,omitempty"`
	ExpiresIn        int64               `json:"expires_in,omitempty"`
}

// Bind implements render.Binder.
func (req *CreateFormRequest) Bind(r *http.Request) error {
	if req.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidRequest)
	}
	if req.ExpiresIn < 0 {
		return fmt.Errorf("%w: expires_in must not be negative", ErrInvalidRequest)
	}
	if req.ExpiresIn > int64(service.MaxFormExpiry/time.Second) {
		return fmt.Errorf("%w: expires_in must be at most %d seconds", ErrInvalidRequest, int64(service.MaxFormExpiry/time.Second))
	}
	return nil
}

// CreateForm handles POST /v1/forms.
func (h *FormHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	req := &CreateFormRequest{}
	if err := render.Bind(r, req); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	h.buildForm(w, r, req)
}

// GetForm handles GET /v1/forms/{bucket}.
func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &CreateFormRequest{
		Bucket:     chi.URLParam(r, "bucket"),
		Key:        query.Get("key"),
		KeyPrefix:  query.Get("prefix"),
		ACL:        query.Get("acl"),
		SuccessURL: query.Get("success_url"),
	}

	var err error
	if req.MinContentLength, err = queryInt(query.Get("min_size")); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.MaxContentLength, err = queryInt(query.Get("max_size")); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ExpiresIn, err = queryInt(query.Get("expires_in")); err != nil {
		h.fail(w, r, err)
		return
	}

	for name, values := range query {
		if meta, ok := strings.CutPrefix(name, metaQueryPrefix); ok && meta != "" {
			if req.Metadata == nil {
				req.Metadata = make(map[string][]string)
			}
			req.Metadata[meta] = values
		}
	}

	if err := req.Bind(r); err != nil {
		h.fail(w, r, err)
		return
	}

	h.buildForm(w, r, req)
}

// GetIssuance handles GET /v1/forms/issued/{id}.
func (h *FormHandler) GetIssuance(w http.ResponseWriter, r *http.Request) {
	issuance, err := h.formService.GetIssuance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, issuance)
}

func (h *FormHandler) buildForm(w http.ResponseWriter, r *http.Request, req *CreateFormRequest) {
	input, err := h.uploadInput(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	uploadForm, err := h.formService.BuildSignedUploadForm(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := form.Render(w, uploadForm); err != nil {
			h.logger.Error().Err(err).Msg("failed to render upload form")
		}
		return
	}

	render.JSON(w, r, uploadForm)
}

// uploadInput resolves the request's bucket and key into service input.
func (h *FormHandler) uploadInput(req *CreateFormRequest) (service.UploadInput, error) {
	bucket, err := h.resolver.Bucket(req.Bucket)
	if err != nil {
		return service.UploadInput{}, err
	}

	input := service.UploadInput{
		Bucket:           bucket,
		KeyPrefix:        req.KeyPrefix,
		ACL:              domain.CannedACL(req.ACL),
		SuccessURL:       req.SuccessURL,
		Metadata:         req.Metadata,
		MinContentLength: req.MinContentLength,
		MaxContentLength: req.MaxContentLength,
		Expiry:           time.Duration(req.ExpiresIn) * time.Second,
	}

	if req.Key != "" {
		if input.Key, err = bucket.Key(req.Key); err != nil {
			return service.UploadInput{}, err
		}
	}

	return input, nil
}

// fail writes err as JSON, or as an HTML fragment when HTML was requested.
func (h *FormHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := NewAPIError(err)
	if apiErr.HTTPStatusCode >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to build upload form")
	} else {
		h.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected upload form request")
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(apiErr.HTTPStatusCode)
		_, _ = w.Write([]byte(form.String(nil, apiErr)))
		return
	}

	_ = render.Render(w, r, apiErr)
}

// wantsHTML reports whether the client asked for an HTML form.
func wantsHTML(r *http.Request) bool {
	if r.URL.Query().Get("format") == "html" {
		return true
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

func queryInt(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidRequest, value)
	}
	return n, nil
}
