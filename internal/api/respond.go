// Package api binds the contribution and negotiation services to REST
// routes.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/server"
)

type errorBody struct {
	Type    domain.ErrorType `json:"type"`
	Message string           `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps any error to the canonical envelope. Every failure is
// reported with a distinguishable type; nothing fails silently.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	de := domain.AsError(err)
	server.AddError(r.Context(), err)
	writeJSON(w, de.HTTPStatusCode(), errorEnvelope{Error: errorBody{Type: de.Type, Message: de.Message}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, domain.ErrValidation("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}
