package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/nexus/authorization"
	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/nasermirzaei89/nexus/identity"
)

const maxBodyBytes = 1 << 20

type InvalidBodyError struct {
	Err error
}

func (err InvalidBodyError) Error() string {
	return fmt.Sprintf("invalid request body: %v", err.Err)
}

func (err InvalidBodyError) Unwrap() error {
	return err.Err
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		return InvalidBodyError{Err: err}
	}

	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// errorStatus maps an error to its HTTP status and a stable code.
func errorStatus(r *http.Request, err error) (int, errorBody) {
	var (
		validationErr   discuss.ValidationError
		notFoundErr     discuss.NotFoundError
		unauthorizedErr discuss.UnauthorizedError
		accessDeniedErr authorization.AccessDeniedError
		invalidBodyErr  InvalidBodyError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorBody{Code: "invalid", Message: validationErr.Error(), Field: validationErr.Field}
	case errors.As(err, &invalidBodyErr):
		return http.StatusBadRequest, errorBody{Code: "invalid_body", Message: invalidBodyErr.Error()}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, errorBody{Code: "not_found", Message: notFoundErr.Error()}
	case errors.As(err, &unauthorizedErr):
		return http.StatusForbidden, errorBody{Code: "forbidden", Message: unauthorizedErr.Error()}
	case errors.As(err, &accessDeniedErr):
		if identity.IsAnonymous(r.Context()) {
			return http.StatusUnauthorized, errorBody{Code: "unauthenticated", Message: "authentication required"}
		}

		return http.StatusForbidden, errorBody{Code: "forbidden", Message: accessDeniedErr.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error occurred"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorStatus(r, err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "failed to handle request", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, r, status, errorResponse{Error: body})
}
