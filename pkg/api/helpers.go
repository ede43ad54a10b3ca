// Package api provides standardized helper functions for HTTP API responses.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	appErrors "jirai-backend/pkg/errors"
)

// MaxBodyBytes bounds request bodies read by Decode.
const MaxBodyBytes = 4 << 20

// Success sends a standardized successful HTTP response with optional JSON data.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error sends a standardized error response with consistent JSON format.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Decode reads a JSON body into v. Malformed input is reported as a
// validation error.
func Decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return appErrors.NewValidation("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return appErrors.NewValidation("request body is required")
		}
		return appErrors.NewValidation("invalid JSON body: " + err.Error())
	}
	return nil
}
