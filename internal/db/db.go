package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces (ISP).
type Store interface {
	Pinger
	KVStore
	VectorStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations. It backs object storage
// (chunk/embedding JSON snapshots) and session state.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// VectorStore provides the append-only record table and approximate
// nearest-neighbor search over it.
type VectorStore interface {
	// EnsureSchema creates the record table / index for the given vector
	// dimensionality. Idempotent.
	EnsureSchema(ctx context.Context, dim int) error
	// InsertRecord appends a row. No existence check is performed against
	// (document id, chunk index); repeated calls create duplicate rows.
	InsertRecord(ctx context.Context, row *RecordRow) error
	// SearchKNN returns up to K rows ordered by ascending distance to the
	// query vector. Ties are broken deterministically by insertion order.
	SearchKNN(ctx context.Context, q *KNNQuery) ([]Hit, error)
}

// RecordRow is one vector store row.
type RecordRow struct {
	DocumentID string
	ChunkIndex int
	SourceKey  string
	Content    string
	Vector     []float32
	ClientID   string
	ChatMode   bool
}

// KNNQuery is the input for vector similarity search. An empty
// ScopeDocumentID searches across all documents.
type KNNQuery struct {
	Vector          []float32
	ScopeDocumentID string
	K               int
}

// Hit is a single search result with cosine similarity in [0,1]
// (higher is closer).
type Hit struct {
	Row   RecordRow
	Score float64
}
