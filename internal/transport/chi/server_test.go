package chi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/session"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
)

type mockIngester struct {
	mu      sync.Mutex
	docs    []domain.Document
	started chan struct{}
}

func newMockIngester() *mockIngester {
	return &mockIngester{started: make(chan struct{}, 8)}
}

func (m *mockIngester) Ingest(_ context.Context, doc domain.Document, _ []byte) ([]domain.StageStatus, error) {
	m.mu.Lock()
	m.docs = append(m.docs, doc)
	m.mu.Unlock()
	m.started <- struct{}{}
	return nil, nil
}

type mockAnswerer struct {
	lastQuery domain.Query
	answer    domain.Answer
}

func (m *mockAnswerer) Answer(_ context.Context, q domain.Query) domain.Answer {
	m.lastQuery = q
	return m.answer
}

type mockSessions struct {
	mu     sync.Mutex
	states map[string]session.State
	links  map[string]string
}

func newMockSessions() *mockSessions {
	return &mockSessions{
		states: make(map[string]session.State),
		links:  make(map[string]string),
	}
}

func (m *mockSessions) Put(_ context.Context, st session.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.ClientID] = st
	return nil
}

func (m *mockSessions) Get(_ context.Context, clientID string) (session.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[clientID]
	if !ok {
		return session.State{}, domain.ErrNotFound
	}
	return st, nil
}

func (m *mockSessions) LinkDocument(_ context.Context, documentID, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[documentID] = clientID
	return nil
}

func (m *mockSessions) GetByDocument(ctx context.Context, documentID string) (session.State, error) {
	m.mu.Lock()
	clientID, ok := m.links[documentID]
	m.mu.Unlock()
	if !ok {
		return session.State{}, domain.ErrNotFound
	}
	return m.Get(ctx, clientID)
}

type mockHealth struct{ report healthuc.Report }

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type fixture struct {
	ingest   *mockIngester
	answer   *mockAnswerer
	sessions *mockSessions
	health   *mockHealth
	router   *chi.Mux
}

func newFixture() *fixture {
	f := &fixture{
		ingest:   newMockIngester(),
		answer:   &mockAnswerer{answer: domain.Answer{Text: "grounded answer"}},
		sessions: newMockSessions(),
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
	srv := NewServer(f.ingest, f.answer, f.sessions, f.health, zap.NewNop())
	f.router = chi.NewRouter()
	srv.Routes(f.router)
	return f
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestUploadDocument_Accepted(t *testing.T) {
	f := newFixture()

	rr := postJSON(t, f.router, "/v1/documents", map[string]any{
		"client_id":   "client-1",
		"is_pdf_chat": true,
		"file":        base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake")),
	})

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.DocumentID == "" || resp.ClientID != "client-1" || resp.Status != "processing" {
		t.Errorf("response = %+v", resp)
	}

	// Session and document link seeded synchronously.
	st, err := f.sessions.GetByDocument(context.Background(), resp.DocumentID)
	if err != nil {
		t.Fatalf("status lookup after accept: %v", err)
	}
	if st.Complete() {
		t.Error("fresh upload should not be complete")
	}

	select {
	case <-f.ingest.started:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was not started")
	}
	if f.ingest.docs[0].ClientID != "client-1" || !f.ingest.docs[0].ChatMode {
		t.Errorf("pipeline document = %+v", f.ingest.docs[0])
	}
}

func TestUploadDocument_KeepsProvidedID(t *testing.T) {
	f := newFixture()

	rr := postJSON(t, f.router, "/v1/documents", map[string]any{
		"client_id": "client-1",
		"pdf_id":    "doc-42",
		"file":      base64.StdEncoding.EncodeToString([]byte("pdf")),
	})

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp uploadResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.DocumentID != "doc-42" {
		t.Errorf("document id = %q, want doc-42", resp.DocumentID)
	}
	<-f.ingest.started
}

func TestUploadDocument_Validation(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing client_id", map[string]any{"file": "aGk="}},
		{"missing file", map[string]any{"client_id": "c"}},
		{"bad base64", map[string]any{"client_id": "c", "file": "not-base64!!!"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, f.router, "/v1/documents", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestGetDocumentStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := domain.Document{ID: "doc-1", ClientID: "client-1", ChatMode: true}
	_ = f.sessions.Put(ctx, session.NewState(doc))
	_ = f.sessions.LinkDocument(ctx, "doc-1", "client-1")

	req := httptest.NewRequest("GET", "/v1/documents/doc-1", http.NoBody)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp statusResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Status != "processing" || resp.ProcessingComplete {
		t.Errorf("response = %+v", resp)
	}

	st := f.sessions.states["client-1"]
	st.ProcessingComplete = "true"
	f.sessions.states["client-1"] = st

	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/documents/doc-1", http.NoBody))
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Status != "ready" || !resp.ProcessingComplete {
		t.Errorf("response after completion = %+v", resp)
	}
}

func TestGetDocumentStatus_NotFound(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("GET", "/v1/documents/nope", http.NoBody)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestQuery_ExplicitScope(t *testing.T) {
	f := newFixture()

	rr := postJSON(t, f.router, "/v1/query", map[string]any{
		"text":        "what is chapter two about?",
		"document_id": "doc-1",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if f.answer.lastQuery.Scope != "doc-1" {
		t.Errorf("scope = %q, want doc-1", f.answer.lastQuery.Scope)
	}
	var resp queryResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Answer != "grounded answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestQuery_SessionScope(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	st := session.NewState(domain.Document{ID: "doc-9", ClientID: "client-1", ChatMode: true})
	st.ProcessingComplete = "true"
	_ = f.sessions.Put(ctx, st)

	rr := postJSON(t, f.router, "/v1/query", map[string]any{
		"text":      "question",
		"client_id": "client-1",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if f.answer.lastQuery.Scope != "doc-9" {
		t.Errorf("scope = %q, want doc-9 from session", f.answer.lastQuery.Scope)
	}
}

func TestQuery_StillProcessing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_ = f.sessions.Put(ctx, session.NewState(domain.Document{ID: "doc-9", ClientID: "client-1", ChatMode: true}))

	rr := postJSON(t, f.router, "/v1/query", map[string]any{
		"text":      "question",
		"client_id": "client-1",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp queryResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Answer != processingMessage {
		t.Errorf("answer = %q, want processing message", resp.Answer)
	}
	if f.answer.lastQuery.Text != "" {
		t.Error("answering service should not run while processing")
	}
}

func TestQuery_NoSessionIsCrossDocument(t *testing.T) {
	f := newFixture()

	rr := postJSON(t, f.router, "/v1/query", map[string]any{
		"text":      "question",
		"client_id": "nobody",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if f.answer.lastQuery.Scope != "" {
		t.Errorf("scope = %q, want empty for cross-document", f.answer.lastQuery.Scope)
	}
}

func TestQuery_MissingText(t *testing.T) {
	f := newFixture()

	rr := postJSON(t, f.router, "/v1/query", map[string]any{"client_id": "c"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	f.health.report = healthuc.Report{Status: healthuc.Unhealthy}
	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d, want 503", rr.Code)
	}
}
