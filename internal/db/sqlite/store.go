// Package sqlite implements db.Store on a single-file relational database:
// one append-only record table with a fixed-width vector column, searched by
// brute-force cosine similarity. It is the driver of choice for single-node
// deployments without a Redis search module.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/pdfchat/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store wraps a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database file at path. Pass ":memory:" for
// an in-memory database (used by tests).
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent chunk
	// fan-out; WAL keeps reads fast while the pipeline writes.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	return &Store{db: sqlDB}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// EnsureSchema creates the record and kv tables. Idempotent. The vector
// column width is enforced by the caller; SQLite stores the raw blob.
func (s *Store) EnsureSchema(ctx context.Context, _ int) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS pdf_chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	source_key TEXT,
	content TEXT,
	vector BLOB NOT NULL,
	client_id TEXT,
	chat_mode INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS pdf_chunks_document_idx ON pdf_chunks(document_id);
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return &db.Error{Op: db.OpSchema, Err: err}
	}
	return nil
}

// InsertRecord appends a row. No conflict handling on (document_id,
// chunk_index): retries create duplicate rows by design.
func (s *Store) InsertRecord(ctx context.Context, row *db.RecordRow) error {
	chatMode := 0
	if row.ChatMode {
		chatMode = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pdf_chunks (document_id, chunk_index, source_key, content, vector, client_id, chat_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.DocumentID, row.ChunkIndex, row.SourceKey, row.Content,
		encodeVector(row.Vector), row.ClientID, chatMode,
	)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

type scoredRow struct {
	id  int64
	hit db.Hit
}

// SearchKNN scans candidate rows and ranks them by cosine similarity.
// Ties are broken by ascending serial id, i.e. insertion order.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	query := `SELECT id, document_id, chunk_index, source_key, content, vector, client_id, chat_mode
		FROM pdf_chunks`
	var args []any
	if q.ScopeDocumentID != "" {
		query += ` WHERE document_id = ?`
		args = append(args, q.ScopeDocumentID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	queryNorm := norm(q.Vector)
	if queryNorm == 0 {
		return nil, nil
	}

	var scored []scoredRow
	for rows.Next() {
		var (
			sr       scoredRow
			blob     []byte
			chatMode int
		)
		if err := rows.Scan(
			&sr.id, &sr.hit.Row.DocumentID, &sr.hit.Row.ChunkIndex, &sr.hit.Row.SourceKey,
			&sr.hit.Row.Content, &blob, &sr.hit.Row.ClientID, &chatMode,
		); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		sr.hit.Row.ChatMode = chatMode != 0
		sr.hit.Row.Vector = decodeVector(blob)
		sr.hit.Score = cosine(q.Vector, sr.hit.Row.Vector, queryNorm)
		scored = append(scored, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].hit.Score != scored[j].hit.Score {
			return scored[i].hit.Score > scored[j].hit.Score
		}
		return scored[i].id < scored[j].id
	})

	if len(scored) > q.K {
		scored = scored[:q.K]
	}
	hits := make([]db.Hit, len(scored))
	for i, sr := range scored {
		hits[i] = sr.hit
	}
	return hits, nil
}

// Get retrieves a kv value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// Set stores a kv value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes a kv value.
func (s *Store) Del(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

func encodeVector(v []float32) []byte {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity given a precomputed query norm.
func cosine(q, v []float32, queryNorm float64) float64 {
	if len(q) != len(v) {
		return 0
	}
	var dot, vSum float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
		vSum += float64(v[i]) * float64(v[i])
	}
	vNorm := math.Sqrt(vSum)
	if vNorm == 0 {
		return 0
	}
	return dot / (queryNorm * vNorm)
}
