package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/calculations-api/internal/apperr"
	"github.com/rs/zerolog/hlog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrRouteNotFound is reported for paths no route matches.
var ErrRouteNotFound = apperr.New(apperr.CodeNotFound, "not found")

// APIError is the body of every error response.
type APIError struct {
	ErrorCode    apperr.Code `json:"error_code"`
	ErrorMessage string      `json:"error_message"`
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation, apperr.CodeDuplicateIdentity, apperr.CodeInvalidOperation:
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates err into an HTTP error response. Uncoded errors are
// logged and reported as a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := statusFor(code)

	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		code = apperr.CodeInternal
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	writeJSON(w, status, APIError{ErrorCode: code, ErrorMessage: apperr.MessageOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is empty")
		default:
			return apperr.Wrap(apperr.CodeValidation, "invalid request body", err)
		}
	}
	return nil
}
