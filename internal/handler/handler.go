// Package handler provides HTTP request handlers for the todo API.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapp/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func writeError(logger *zap.Logger, w http.ResponseWriter, status int, message string) {
	writeJSON(logger, w, status, model.ErrorResponse{Error: message})
}

// NotFound returns a handler for unmatched routes, mirroring the JSON
// error shape of the API endpoints.
func NotFound(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(logger, w, http.StatusNotFound, "not found")
	})
}

// MethodNotAllowed returns a handler for routes matched with an
// unsupported HTTP method.
func MethodNotAllowed(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(logger, w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
