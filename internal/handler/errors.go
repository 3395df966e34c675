package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/prn-tf/alexander-formupload/internal/auth"
	"github.com/prn-tf/alexander-formupload/internal/domain"
	"github.com/prn-tf/alexander-formupload/internal/policy"
	"github.com/prn-tf/alexander-formupload/internal/repository"
)

// ErrInvalidRequest indicates a request body or query that could not be parsed.
var ErrInvalidRequest = errors.New("invalid request")

// APIError is the JSON error body returned by the API.
type APIError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	HTTPStatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// Common API errors.
var (
	ErrMethodNotAllowed = &APIError{
		Code:           "MethodNotAllowed",
		Message:        "The specified method is not allowed against this resource.",
		HTTPStatusCode: http.StatusMethodNotAllowed,
	}

	ErrRouteNotFound = &APIError{
		Code:           "NotFound",
		Message:        "The requested resource does not exist.",
		HTTPStatusCode: http.StatusNotFound,
	}
)

// NewAPIError maps a service error to an API error.
func NewAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return &APIError{Code: "InvalidRequest", Message: err.Error(), HTTPStatusCode: http.StatusBadRequest}
	case errors.Is(err, domain.ErrConfiguration):
		return &APIError{Code: "ConfigurationError", Message: err.Error(), HTTPStatusCode: http.StatusBadRequest}
	case errors.Is(err, domain.ErrInvalidValue), errors.Is(err, policy.ErrInvalidRange):
		return &APIError{Code: "InvalidArgument", Message: err.Error(), HTTPStatusCode: http.StatusBadRequest}
	case errors.Is(err, repository.ErrIssuanceNotFound):
		return &APIError{Code: "NotFound", Message: err.Error(), HTTPStatusCode: http.StatusNotFound}
	case errors.Is(err, auth.ErrCryptoPrecondition):
		// The message may describe missing credentials; keep it generic.
		return &APIError{Code: "SigningUnavailable", Message: "The server cannot sign upload forms.", HTTPStatusCode: http.StatusInternalServerError}
	default:
		return &APIError{Code: "InternalError", Message: "We encountered an internal error. Please try again.", HTTPStatusCode: http.StatusInternalServerError}
	}
}

// writeError renders err as JSON.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	_ = render.Render(w, r, NewAPIError(err))
}
