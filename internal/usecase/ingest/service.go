// Package ingest orchestrates the document processing pipeline:
// extract, segment, embed-store, finalize.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/objstore"
	"github.com/kailas-cloud/pdfchat/internal/session"
)

const defaultWorkers = 4

// Service runs the ingestion pipeline for one document at a time.
type Service struct {
	extract  Extractor
	segment  Segmenter
	chunks   ChunkStore
	embed    Embedder
	records  Recorder
	sessions Sessions
	notify   Notifier
	workers  int
	logger   *zap.Logger
}

// New creates an ingestion service. workers bounds embed-store concurrency.
func New(
	extract Extractor, seg Segmenter, chunks ChunkStore, embed Embedder,
	records Recorder, sessions Sessions, notify Notifier,
	workers int, logger *zap.Logger,
) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		extract:  extract,
		segment:  seg,
		chunks:   chunks,
		embed:    embed,
		records:  records,
		sessions: sessions,
		notify:   notify,
		workers:  workers,
		logger:   logger,
	}
}

// chunkSink adapts the chunk store to the segmenter's persistence hook,
// binding the document identity each chunk is stored under.
type chunkSink struct {
	chunks ChunkStore
	doc    domain.Document
}

func (c chunkSink) Put(ctx context.Context, chunk domain.Chunk) (string, error) {
	return c.chunks.PutChunk(ctx, c.doc, chunk)
}

// Ingest runs the full pipeline for a document. On any stage failure the
// notifier fires exactly once, the session is never marked complete, and the
// statuses of the stages that ran are returned alongside the error. A
// successful run marks the client session queryable.
func (s *Service) Ingest(ctx context.Context, doc domain.Document, data []byte) ([]domain.StageStatus, error) {
	start := time.Now()
	var statuses []domain.StageStatus

	ok := func(stage string) {
		statuses = append(statuses, domain.StageStatus{Stage: stage, Outcome: domain.OutcomeSucceeded})
		metrics.PipelineStagesTotal.WithLabelValues(stage, string(domain.OutcomeSucceeded)).Inc()
	}
	fail := func(stage string, err error) ([]domain.StageStatus, error) {
		statuses = append(statuses, domain.StageStatus{
			Stage:   stage,
			Outcome: domain.OutcomeFailed,
			Message: err.Error(),
		})
		metrics.PipelineStagesTotal.WithLabelValues(stage, string(domain.OutcomeFailed)).Inc()
		metrics.PipelineDocumentDuration.WithLabelValues(string(domain.OutcomeFailed)).Observe(time.Since(start).Seconds())
		s.notify.NotifyFailure(ctx, doc.ID, doc.ClientID, err)
		return statuses, fmt.Errorf("%s stage: %w", stage, err)
	}

	if err := s.sessions.Put(ctx, session.NewState(doc)); err != nil {
		return fail(domain.StageInit, fmt.Errorf("init session: %w", err))
	}

	pages, err := s.extract.PageTexts(data)
	if err != nil {
		return fail(domain.StageExtract, err)
	}
	ok(domain.StageExtract)

	keys, err := s.segment.Segment(ctx, doc, pages, chunkSink{chunks: s.chunks, doc: doc})
	if err != nil {
		return fail(domain.StageSegment, err)
	}
	ok(domain.StageSegment)
	s.logger.Info("document segmented",
		zap.String("document_id", doc.ID),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(keys)))

	if err := s.embedAndStore(ctx, keys); err != nil {
		return fail(domain.StageEmbed, err)
	}
	ok(domain.StageEmbed)

	if err := s.sessions.MarkComplete(ctx, doc.ClientID); err != nil {
		return fail(domain.StageFinalize, err)
	}
	ok(domain.StageFinalize)

	metrics.PipelineDocumentDuration.WithLabelValues(string(domain.OutcomeSucceeded)).Observe(time.Since(start).Seconds())
	s.logger.Info("document ingestion complete",
		zap.String("document_id", doc.ID),
		zap.String("client_id", doc.ClientID),
		zap.Int("chunks", len(keys)),
		zap.Duration("took", time.Since(start)))

	return statuses, nil
}

// embedAndStore fans chunk work out over a bounded worker pool. Every chunk
// is attempted even after a failure (best-effort barrier); Wait surfaces the
// first error.
func (s *Service) embedAndStore(ctx context.Context, keys []string) error {
	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := s.processChunk(ctx, key); err != nil {
				metrics.PipelineChunksTotal.WithLabelValues(string(domain.OutcomeFailed)).Inc()
				s.logger.Error("chunk processing failed",
					zap.String("chunk_key", key),
					zap.Error(err))
				return err
			}
			metrics.PipelineChunksTotal.WithLabelValues(string(domain.OutcomeSucceeded)).Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	return nil
}

func (s *Service) processChunk(ctx context.Context, key string) error {
	chunk, err := s.chunks.GetChunk(ctx, key)
	if err != nil {
		return fmt.Errorf("load chunk: %w", err)
	}

	result, err := s.embed.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("embed chunk: %w", err)
	}

	if _, err := s.chunks.PutEmbedding(ctx, key, objstore.EmbeddingObject{
		Text:       chunk.Text,
		Embedding:  result.Embedding,
		DocumentID: chunk.DocumentID,
		ChunkIndex: chunk.ChunkIndex,
		ClientID:   chunk.ClientID,
		ChatMode:   chunk.ChatMode,
	}); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}

	if err := s.records.Insert(ctx, &domain.Record{
		DocumentID: chunk.DocumentID,
		ChunkIndex: chunk.ChunkIndex,
		SourceKey:  key,
		Text:       chunk.Text,
		Vector:     result.Embedding,
		ClientID:   chunk.ClientID,
		ChatMode:   chunk.ChatMode,
	}); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}
