package server

import (
	"encoding/json"
	"net/http"
)

// CommandResponse is the uniform response envelope. A failed command is
// still a well-formed response: success false plus an error string.
type CommandResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeData writes a successful envelope.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, CommandResponse{Success: true, Data: data})
}

// writeFailure writes a failed envelope.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, CommandResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// decodeBody decodes a JSON request body into v, writing a failure
// envelope and returning false when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
