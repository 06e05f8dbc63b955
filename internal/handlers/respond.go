// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the SygaCMS API.
// Handlers are grouped by concern (posts, terms, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"sygacms/internal/args"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// respondError writes a JSON error body with the given status code.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondInternal logs the error and returns a generic 500.
func respondInternal(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// validationStatus maps a resolver error kind to an HTTP status code.
// NotFound refers to the record being edited; everything else is an
// unprocessable payload.
func validationStatus(kind args.ErrorKind) int {
	if kind == args.NotFound {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

// respondValidation writes the resolver's validation errors.
func respondValidation(w http.ResponseWriter, kind args.ErrorKind, errs []string) {
	respondJSON(w, validationStatus(kind), map[string]any{"errors": errs})
}
