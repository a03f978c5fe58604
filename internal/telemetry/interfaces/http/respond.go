package http

import (
	"encoding/json"
	"net/http"
)

type dataEnvelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, dataEnvelope{Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	env := errorEnvelope{Message: message, Status: status}
	if err != nil {
		env.Error = err.Error()
	}
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
