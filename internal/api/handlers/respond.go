package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks the struct tags on request DTOs. A single instance is safe
// for concurrent use.
var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

// parseID extracts a positive numeric id from a path parameter. Anything that
// is not a well-formed id cannot name an existing record, so callers treat a
// failure as not-found rather than a validation error.
func parseID(r *http.Request, key string) (int64, bool) {
	raw := strings.TrimSpace(pathParam(r, key))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
