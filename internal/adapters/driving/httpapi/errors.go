package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// ErrMissingPort is returned when a required service is not provided.
var ErrMissingPort = errors.New("httpapi: chat, search, document and index services are required")

// Error kinds produced by the HTTP layer itself.
const (
	kindUnauthorized domain.ErrorKind = "unauthorized"
	kindForbidden    domain.ErrorKind = "forbidden"
)

type errorResponse struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidQuery, domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case domain.KindRetrievalUnavailable, domain.KindStoreUnavailable,
		domain.KindModelUnavailable, domain.KindModelTimeout, domain.KindTransient:
		return http.StatusServiceUnavailable
	case kindUnauthorized:
		return http.StatusUnauthorized
	case kindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error", "kind"}. Internal errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeKind(w http.ResponseWriter, kind domain.ErrorKind, msg string) {
	writeJSON(w, statusFor(kind), errorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug("write response: %v", err)
	}
}
