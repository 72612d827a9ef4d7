package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/listing"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// actionError maps orchestrator errors onto HTTP status codes: refused
// preconditions are conflicts, missing rows are 404s, everything else
// is a server error.
func actionError(w http.ResponseWriter, err error) {
	var pre *listing.PreconditionError
	if errors.As(err, &pre) {
		apiError(w, pre.Reason, http.StatusConflict)
		return
	}
	if errors.Is(err, credit.ErrInsufficient) {
		apiError(w, err.Error(), http.StatusConflict)
		return
	}
	if strings.Contains(err.Error(), "not found") {
		apiError(w, err.Error(), http.StatusNotFound)
		return
	}
	apiError(w, err.Error(), http.StatusInternalServerError)
}

// reloadOnly reports whether err is just a failed post-action reload,
// meaning the mutation itself went through. Handlers treat it as
// success: the per-request orchestrator cache is discarded anyway.
func reloadOnly(err error) bool {
	var rerr *listing.ReloadError
	return errors.As(err, &rerr)
}
