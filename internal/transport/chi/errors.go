package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Error response codes.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeNotFound            = "not_found"
	codeBadFormat           = "bad_format"
	codeRateLimited         = "rate_limited"
	codeEmbeddingProvider   = "embedding_provider_error"
	codeGenerationFailed    = "generation_failed"
	codeDatabaseUnavailable = "database_unavailable"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelStatus maps domain sentinels to HTTP responses.
var sentinelStatus = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed},
	{domain.ErrBadFormat, http.StatusBadRequest, codeBadFormat},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider},
	{domain.ErrGenerationFailed, http.StatusBadGateway, codeGenerationFailed},
	{domain.ErrDatabaseUnavailable, http.StatusServiceUnavailable, codeDatabaseUnavailable},
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	for _, m := range sentinelStatus {
		if errors.Is(err, m.sentinel) {
			return m.sentinel.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, m := range sentinelStatus {
		if errors.Is(err, m.sentinel) {
			s.logger.Warn("domain error", zap.Error(err))
			writeError(w, m.status, m.code, msg)
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
