package backend

import (
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/simon020286/promptchain/models"
	"google.golang.org/genai"
)

// classify wraps err in a BackendError. Rejected credentials become
// BackendAuthFailure, everything else BackendCallFailure.
func classify(backend string, err error) error {
	if err == nil {
		return nil
	}
	var be *models.BackendError
	if errors.As(err, &be) {
		return err
	}
	kind := models.BackendCallFailure
	if isAuthStatus(statusCode(err)) {
		kind = models.BackendAuthFailure
	}
	return &models.BackendError{Backend: backend, Kind: kind, Err: err}
}

func callFailure(backend string, err error) error {
	return &models.BackendError{Backend: backend, Kind: models.BackendCallFailure, Err: err}
}

func authFailure(backend string, err error) error {
	return &models.BackendError{Backend: backend, Kind: models.BackendAuthFailure, Err: err}
}

// statusCode extracts the HTTP status of a provider error, or 0
func statusCode(err error) int {
	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return oaErr.StatusCode
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil {
		return gErrPtr.Code
	}
	return 0
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
