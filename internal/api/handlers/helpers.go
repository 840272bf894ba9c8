// Package handlers implements the /api/v1 HTTP handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/tool"
)

// maxBodyBytes bounds a tool invocation request body.
const maxBodyBytes = 1 << 20

// writeJSON writes v as the response body with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {"error": {kind, message, details}} envelope with the
// status matching the error kind.
func writeError(w http.ResponseWriter, te *tool.Error) {
	writeJSON(w, statusForKind(te.Kind), map[string]*tool.Error{"error": te})
}

func statusForKind(k tool.Kind) int {
	switch k {
	case tool.KindInvalidParams:
		return http.StatusBadRequest
	case tool.KindAuth:
		return http.StatusUnauthorized
	case tool.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
