package api

import (
	"encoding/json"
	"net/http"
)

type successEnvelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, data interface{}, p Pagination) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data, Pagination: &p})
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorEnvelope{Success: false, Error: code, Details: details})
}
