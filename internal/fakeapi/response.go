package fakeapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error("encoding response", "error", err)
	}
}

func success(w http.ResponseWriter, data any, log *slog.Logger) {
	writeEnvelope(w, http.StatusOK, envelope{Success: true, Data: data}, log)
}

func created(w http.ResponseWriter, data any, log *slog.Logger) {
	writeEnvelope(w, http.StatusCreated, envelope{Success: true, Data: data}, log)
}

func failure(w http.ResponseWriter, status int, code, message string, log *slog.Logger) {
	writeEnvelope(w, status, envelope{Error: &envelopeError{Code: code, Message: message}}, log)
}

func badRequest(w http.ResponseWriter, message string, log *slog.Logger) {
	failure(w, http.StatusBadRequest, "bad_request", message, log)
}

func unauthorized(w http.ResponseWriter, message string, log *slog.Logger) {
	failure(w, http.StatusUnauthorized, "unauthorized", message, log)
}

func notFound(w http.ResponseWriter, message string, log *slog.Logger) {
	failure(w, http.StatusNotFound, "not_found", message, log)
}

// decode reads a JSON request body into dst, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any, log *slog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "Invalid request body", log)
		return false
	}
	return true
}
