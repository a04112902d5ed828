// Package objstore persists chunk and embedding snapshots as UTF-8 JSON
// objects under a directory-plus-index naming convention, mirroring the
// upstream object storage layout ({dir}chunk_{index}.json).
package objstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// ChunkObject is the stored form of one chunk.
type ChunkObject struct {
	Text       string `json:"text"`
	ChunkKey   string `json:"chunk_key"`
	ChunkIndex int    `json:"chunk_index"`
	DocumentID string `json:"document_id"`
	ClientID   string `json:"client_id"`
	ChatMode   bool   `json:"is_pdf_chat"`
}

// EmbeddingObject is the stored form of one chunk's embedding.
type EmbeddingObject struct {
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	ClientID   string    `json:"client_id"`
	ChatMode   bool      `json:"is_pdf_chat"`
}

// ChunksDir returns the chunk directory for a document.
func ChunksDir(documentID string) string {
	return domain.KeyPrefix + "docs/" + documentID + "/chunks/"
}

// EmbeddingsDir returns the embedding directory for a document.
func EmbeddingsDir(documentID string) string {
	return domain.KeyPrefix + "docs/" + documentID + "/embeddings/"
}

// ChunkKey builds the storage key for a chunk index.
func ChunkKey(dir string, index int) string {
	return fmt.Sprintf("%schunk_%d.json", dir, index)
}

// EmbeddingKeyFor derives the embedding key from a chunk key, swapping the
// directory and filename prefix.
func EmbeddingKeyFor(chunkKey string) string {
	key := strings.Replace(chunkKey, "/chunks/", "/embeddings/", 1)
	return strings.Replace(key, "chunk_", "embedding_", 1)
}

// Store writes and reads JSON objects on a db.KVStore backend.
type Store struct {
	kv db.KVStore
}

// New creates an object store.
func New(kv db.KVStore) *Store {
	return &Store{kv: kv}
}

// PutChunk writes the chunk snapshot and returns its storage key.
func (s *Store) PutChunk(ctx context.Context, doc domain.Document, chunk domain.Chunk) (string, error) {
	key := ChunkKey(ChunksDir(doc.ID), chunk.Index)
	obj := ChunkObject{
		Text:       chunk.Text,
		ChunkKey:   key,
		ChunkIndex: chunk.Index,
		DocumentID: doc.ID,
		ClientID:   doc.ClientID,
		ChatMode:   doc.ChatMode,
	}
	if err := s.put(ctx, key, obj); err != nil {
		return "", err
	}
	return key, nil
}

// GetChunk reads a chunk snapshot by key.
func (s *Store) GetChunk(ctx context.Context, key string) (ChunkObject, error) {
	var obj ChunkObject
	if err := s.get(ctx, key, &obj); err != nil {
		return ChunkObject{}, err
	}
	return obj, nil
}

// PutEmbedding writes the embedding snapshot for a chunk and returns its key.
func (s *Store) PutEmbedding(ctx context.Context, chunkKey string, obj EmbeddingObject) (string, error) {
	key := EmbeddingKeyFor(chunkKey)
	if err := s.put(ctx, key, obj); err != nil {
		return "", err
	}
	return key, nil
}

// GetEmbedding reads an embedding snapshot by key.
func (s *Store) GetEmbedding(ctx context.Context, key string) (EmbeddingObject, error) {
	var obj EmbeddingObject
	if err := s.get(ctx, key, &obj); err != nil {
		return EmbeddingObject{}, err
	}
	return obj, nil
}

func (s *Store) put(ctx context.Context, key string, obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w: %w", key, err, domain.ErrDatabaseUnavailable)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, obj any) error {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
		}
		return fmt.Errorf("get %s: %w: %w", key, err, domain.ErrDatabaseUnavailable)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("unmarshal %s: %w: %w", key, err, domain.ErrBadFormat)
	}
	return nil
}
