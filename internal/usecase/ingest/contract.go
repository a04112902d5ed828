package ingest

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/objstore"
	"github.com/kailas-cloud/pdfchat/internal/segment"
	"github.com/kailas-cloud/pdfchat/internal/session"
)

// Extractor turns a raw PDF into ordered page texts.
type Extractor interface {
	PageTexts(data []byte) ([]string, error)
}

// Segmenter splits page texts into persisted chunks and returns their keys.
type Segmenter interface {
	Segment(ctx context.Context, doc domain.Document, pages []string, sink segment.Sink) ([]string, error)
}

// ChunkStore reads and writes chunk and embedding snapshots.
type ChunkStore interface {
	PutChunk(ctx context.Context, doc domain.Document, chunk domain.Chunk) (string, error)
	GetChunk(ctx context.Context, key string) (objstore.ChunkObject, error)
	PutEmbedding(ctx context.Context, chunkKey string, obj objstore.EmbeddingObject) (string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Recorder persists embedding records for retrieval.
type Recorder interface {
	Insert(ctx context.Context, rec *domain.Record) error
}

// Sessions writes per-client processing state.
type Sessions interface {
	Put(ctx context.Context, st session.State) error
	MarkComplete(ctx context.Context, clientID string) error
}

// Notifier receives failure alerts.
type Notifier interface {
	NotifyFailure(ctx context.Context, documentID, clientID string, cause error)
}
