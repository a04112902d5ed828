// Package chi is the HTTP API: document upload, processing status, and
// query answering.
package chi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/session"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
)

const processingMessage = "Your PDF is still being processed. Please wait a moment before asking questions."

// Timeout for the detached per-document pipeline run.
const ingestTimeout = 10 * time.Minute

// Ingester runs the document pipeline.
type Ingester interface {
	Ingest(ctx context.Context, doc domain.Document, data []byte) ([]domain.StageStatus, error)
}

// Answerer resolves queries to answers.
type Answerer interface {
	Answer(ctx context.Context, q domain.Query) domain.Answer
}

// Sessions reads and seeds processing state.
type Sessions interface {
	Put(ctx context.Context, st session.State) error
	Get(ctx context.Context, clientID string) (session.State, error)
	LinkDocument(ctx context.Context, documentID, clientID string) error
	GetByDocument(ctx context.Context, documentID string) (session.State, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	ingest   Ingester
	answer   Answerer
	sessions Sessions
	health   HealthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(ingest Ingester, answer Answerer, sessions Sessions, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		ingest:   ingest,
		answer:   answer,
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
}

// Routes registers all handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/documents", s.UploadDocument)
	r.Get("/v1/documents/{documentID}", s.GetDocumentStatus)
	r.Post("/v1/query", s.Query)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type uploadRequest struct {
	ClientID  string `json:"client_id"`
	PDFID     string `json:"pdf_id"`
	IsPDFChat bool   `json:"is_pdf_chat"`
	File      string `json:"file"` // base64-encoded PDF
}

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	ClientID   string `json:"client_id"`
	Status     string `json:"status"`
}

// UploadDocument handles POST /v1/documents: decodes the base64 body, seeds
// the session, and kicks off the pipeline in the background.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "client_id is required")
		return
	}
	if req.File == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "file is required")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "file must be valid base64")
		return
	}

	doc := domain.Document{
		ID:       req.PDFID,
		ClientID: req.ClientID,
		ChatMode: req.IsPDFChat,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	// Seed state before returning 202 so a status poll right after the
	// response never sees a missing document.
	if err := s.sessions.Put(r.Context(), session.NewState(doc)); err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.sessions.LinkDocument(r.Context(), doc.ID, doc.ClientID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	go s.runPipeline(doc, data)

	writeJSON(w, http.StatusAccepted, uploadResponse{
		DocumentID: doc.ID,
		ClientID:   doc.ClientID,
		Status:     "processing",
	})
}

// runPipeline executes ingestion detached from the request context.
func (s *Server) runPipeline(doc domain.Document, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if _, err := s.ingest.Ingest(ctx, doc, data); err != nil {
		// Already alerted by the pipeline; log for the request trail.
		s.logger.Error("pipeline run failed",
			zap.String("document_id", doc.ID),
			zap.Error(err))
	}
}

type statusResponse struct {
	DocumentID         string `json:"document_id"`
	ClientID           string `json:"client_id"`
	IsPDFChat          bool   `json:"is_pdf_chat"`
	ProcessingComplete bool   `json:"processing_complete"`
	Status             string `json:"status"`
}

// GetDocumentStatus handles GET /v1/documents/{documentID}.
func (s *Server) GetDocumentStatus(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	st, err := s.sessions.GetByDocument(r.Context(), documentID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := "processing"
	if st.Complete() {
		status = "ready"
	}
	writeJSON(w, http.StatusOK, statusResponse{
		DocumentID:         st.DocumentID,
		ClientID:           st.ClientID,
		IsPDFChat:          st.ChatModeOn(),
		ProcessingComplete: st.Complete(),
		Status:             status,
	})
}

type queryRequest struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
	ClientID   string `json:"client_id"`
}

type queryResponse struct {
	Answer    string `json:"answer"`
	SourceKey string `json:"source_key,omitempty"`
}

// Query handles POST /v1/query. Scope resolution: an explicit document_id
// wins; otherwise a chat-mode session is looked up by client_id. A chat
// session whose document is still processing gets the fixed wait message.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "text is required")
		return
	}

	scope := req.DocumentID
	if scope == "" && req.ClientID != "" {
		st, err := s.sessions.Get(r.Context(), req.ClientID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// No session: cross-document query.
		case err != nil:
			s.handleDomainError(w, err)
			return
		case st.ChatModeOn() && !st.Complete():
			writeJSON(w, http.StatusOK, queryResponse{Answer: processingMessage})
			return
		case st.ChatModeOn():
			scope = st.DocumentID
		}
	}

	ans := s.answer.Answer(r.Context(), domain.Query{Text: req.Text, Scope: scope})
	writeJSON(w, http.StatusOK, queryResponse{
		Answer:    ans.Text,
		SourceKey: ans.SourceKey,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
