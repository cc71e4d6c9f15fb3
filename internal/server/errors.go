// ABOUTME: Maps classified errors to HTTP statuses and JSON error bodies
// ABOUTME: Unclassified errors surface as 500 without leaking internals beyond the message
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/harper/docqa/internal/models"
)

// StatusClientClosedRequest is the nginx convention for a client that went away
const StatusClientClosedRequest = 499

// StatusFor maps an error kind to an HTTP status
func StatusFor(kind models.Kind) int {
	switch kind {
	case models.KindInvalidInput, models.KindInvalidMode:
		return http.StatusBadRequest
	case models.KindDuplicateIdentity:
		return http.StatusConflict
	case models.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case models.KindEmptyContent:
		return http.StatusUnprocessableEntity
	case models.KindCanceled:
		return StatusClientClosedRequest
	case models.KindEmbeddingFailure, models.KindGenerationFailure:
		return http.StatusBadGateway
	case models.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case models.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the failure shape for ingest and query endpoints
type errorBody struct {
	Detail string      `json:"detail"`
	Kind   models.Kind `json:"kind"`
}

// adminErrorBody is the failure shape for reset and listing endpoints
type adminErrorBody struct {
	Error string      `json:"error"`
	Kind  models.Kind `json:"kind"`
}

func reason(err error) string {
	var e *models.Error
	if errors.As(err, &e) {
		return e.Reason()
	}
	return err.Error()
}

// writeError responds with {detail, kind}
func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	respondJSON(w, status, errorBody{Detail: reason(err), Kind: kind})
}

// writeAdminError responds with {error, kind}
func writeAdminError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	respondJSON(w, status, adminErrorBody{Error: reason(err), Kind: kind})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}
