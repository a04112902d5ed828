// Package record is the vector store gateway: append-only embedding records
// plus nearest-neighbor retrieval over them.
package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// store is the consumer interface for record operations (ISP).
type store interface {
	InsertRecord(ctx context.Context, row *db.RecordRow) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error)
}

// Repo persists embedding records and serves similarity lookups.
type Repo struct {
	store     store
	vectorDim int
}

// New creates a record repository enforcing the given vector dimensionality.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim}
}

// Insert appends one record. Text is cleaned of null bytes before insert
// (some extractors leak them and they corrupt text columns). There is
// deliberately no existence check on (document id, chunk index): a retried
// chunk produces a duplicate row, which retrieval tolerates.
func (r *Repo) Insert(ctx context.Context, rec *domain.Record) error {
	if len(rec.Vector) != r.vectorDim {
		return fmt.Errorf(
			"vector dimension mismatch: got %d, want %d: %w",
			len(rec.Vector), r.vectorDim, domain.ErrVectorDimMismatch,
		)
	}

	row := &db.RecordRow{
		DocumentID: rec.DocumentID,
		ChunkIndex: rec.ChunkIndex,
		SourceKey:  rec.SourceKey,
		Content:    strings.ReplaceAll(rec.Text, "\x00", ""),
		Vector:     rec.Vector,
		ClientID:   rec.ClientID,
		ChatMode:   rec.ChatMode,
	}
	if err := r.store.InsertRecord(ctx, row); err != nil {
		return fmt.Errorf("insert record %s/%d: %w: %w",
			rec.DocumentID, rec.ChunkIndex, err, domain.ErrDatabaseUnavailable)
	}
	return nil
}

// Nearest returns up to limit records ordered by ascending distance to the
// query vector. A non-empty scopeDocumentID restricts retrieval to that
// document; records from other documents are never returned.
func (r *Repo) Nearest(
	ctx context.Context, vector []float32, scopeDocumentID string, limit int,
) ([]domain.Match, error) {
	hits, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		Vector:          vector,
		ScopeDocumentID: scopeDocumentID,
		K:               limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w: %w", err, domain.ErrDatabaseUnavailable)
	}

	matches := make([]domain.Match, 0, len(hits))
	for _, h := range hits {
		if scopeDocumentID != "" && h.Row.DocumentID != scopeDocumentID {
			// The driver filter already guarantees this; drop anything that
			// slips through rather than leak another document's text.
			continue
		}
		matches = append(matches, domain.Match{
			Record: domain.Record{
				DocumentID: h.Row.DocumentID,
				ChunkIndex: h.Row.ChunkIndex,
				SourceKey:  h.Row.SourceKey,
				Text:       h.Row.Content,
				Vector:     h.Row.Vector,
				ClientID:   h.Row.ClientID,
				ChatMode:   h.Row.ChatMode,
			},
			Score: h.Score,
		})
	}
	return matches, nil
}
