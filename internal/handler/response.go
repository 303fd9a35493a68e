// Package handler contains the HTTP handlers for the ToneMirror API.
//
// Every handler speaks JSON. Handlers hold their service dependencies and
// register their own routes on the mux; the authenticated user, when
// present, is read from the request context via the auth package.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tonemirror/tonemirror/internal/domain"
)

// maxRequestBody caps JSON request bodies at 1MB. Analysis text tops out
// at 5000 characters, so anything near this limit is abuse.
const maxRequestBody = 1 << 20

// respondJSON writes v as the JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into dst. Returns a domain.EINVALID
// error for malformed bodies.
func decodeJSON(r *http.Request, dst any) error {
	const op = "handler.decode"

	body := io.LimitReader(r.Body, maxRequestBody)
	dec := json.NewDecoder(body)

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is required")
		case strings.Contains(err.Error(), "cannot unmarshal"):
			return domain.Invalid(op, "Request body has the wrong shape")
		default:
			return domain.Invalid(op, "Request body is not valid JSON")
		}
	}
	return nil
}

// parseID parses the {id} path value as a UUID.
func parseID(r *http.Request) (uuid.UUID, error) {
	const op = "handler.parse_id"

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, domain.Invalid(op, "Invalid ID")
	}
	return id, nil
}
