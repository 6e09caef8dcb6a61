package auth

import (
	"encoding/json"
	"net/http"
)

// errorBody is the uniform error response shape. Refresh failures in
// particular all render identically so a caller cannot distinguish theft
// detection from plain expiry.
type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}
