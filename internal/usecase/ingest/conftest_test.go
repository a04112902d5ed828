package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/objstore"
	"github.com/kailas-cloud/pdfchat/internal/session"
)

// mockExtractor returns fixed pages or an error.
type mockExtractor struct {
	pages []string
	err   error
	calls int
}

func (m *mockExtractor) PageTexts(_ []byte) ([]string, error) {
	m.calls++
	return m.pages, m.err
}

// mockChunkStore keeps chunks and embeddings in memory with per-method
// error injection.
type mockChunkStore struct {
	mu         sync.Mutex
	chunks     map[string]objstore.ChunkObject
	embeddings map[string]objstore.EmbeddingObject
	getErr     error
	putEmbErr  error
}

func newMockChunkStore() *mockChunkStore {
	return &mockChunkStore{
		chunks:     make(map[string]objstore.ChunkObject),
		embeddings: make(map[string]objstore.EmbeddingObject),
	}
}

func (m *mockChunkStore) PutChunk(_ context.Context, doc domain.Document, chunk domain.Chunk) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("chunks/%s/chunk_%d.json", doc.ID, chunk.Index)
	m.chunks[key] = objstore.ChunkObject{
		Text:       chunk.Text,
		ChunkKey:   key,
		ChunkIndex: chunk.Index,
		DocumentID: doc.ID,
		ClientID:   doc.ClientID,
		ChatMode:   doc.ChatMode,
	}
	return key, nil
}

func (m *mockChunkStore) GetChunk(_ context.Context, key string) (objstore.ChunkObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return objstore.ChunkObject{}, m.getErr
	}
	obj, ok := m.chunks[key]
	if !ok {
		return objstore.ChunkObject{}, domain.ErrNotFound
	}
	return obj, nil
}

func (m *mockChunkStore) PutEmbedding(_ context.Context, chunkKey string, obj objstore.EmbeddingObject) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putEmbErr != nil {
		return "", m.putEmbErr
	}
	m.embeddings[chunkKey] = obj
	return chunkKey, nil
}

// mockEmbedder returns a fixed-size vector, optionally failing for texts
// matching failOn.
type mockEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn != "" && text == m.failOn {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: len(text)}, nil
}

// mockRecorder collects inserted records.
type mockRecorder struct {
	mu      sync.Mutex
	records []*domain.Record
	err     error
}

func (m *mockRecorder) Insert(_ context.Context, rec *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

// mockSessions tracks session writes.
type mockSessions struct {
	mu          sync.Mutex
	states      map[string]session.State
	putErr      error
	completeErr error
}

func newMockSessions() *mockSessions {
	return &mockSessions{states: make(map[string]session.State)}
}

func (m *mockSessions) Put(_ context.Context, st session.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.states[st.ClientID] = st
	return nil
}

func (m *mockSessions) MarkComplete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	st := m.states[clientID]
	st.ProcessingComplete = "true"
	m.states[clientID] = st
	return nil
}

func (m *mockSessions) complete(clientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[clientID].ProcessingComplete == "true"
}

// mockNotifier counts failure alerts.
type mockNotifier struct {
	mu     sync.Mutex
	calls  int
	lastID string
	cause  error
}

func (m *mockNotifier) NotifyFailure(_ context.Context, documentID, _ string, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastID = documentID
	m.cause = cause
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
