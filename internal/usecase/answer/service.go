// Package answer resolves a user query to a grounded response via
// embed, retrieve, generate. Every call terminates with a non-empty string;
// internal failures become fixed fallback texts and are never surfaced.
package answer

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Fallback texts. These are part of the user-facing contract: callers rely
// on Answer never erroring and never returning an empty string.
const (
	embedFallback      = "I apologize, but I'm having trouble understanding your question right now. Please try again later."
	noMatchFallback    = "I couldn't find any relevant information to answer your question."
	generationFallback = "I apologize, but I encountered an error while processing your query. Please try again later."
)

const defaultLimit = 1

// Service answers user queries against the ingested corpus.
type Service struct {
	embed    Embedder
	retrieve Retriever
	generate Generator
	limit    int
	logger   *zap.Logger
}

// New creates an answering service. limit caps retrieved context records;
// zero or negative means the single best match.
func New(embed Embedder, retrieve Retriever, generate Generator, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Service{
		embed:    embed,
		retrieve: retrieve,
		generate: generate,
		limit:    limit,
		logger:   logger,
	}
}

// Answer resolves one query. A non-empty Scope restricts retrieval to that
// document. Never returns an error and never an empty answer.
func (s *Service) Answer(ctx context.Context, q domain.Query) domain.Answer {
	res, err := s.embed.Embed(ctx, q.Text)
	if err != nil || len(res.Embedding) == 0 {
		s.logger.Warn("query embedding unavailable",
			zap.String("scope", q.Scope),
			zap.Error(err))
		return domain.Answer{Text: embedFallback}
	}

	matches, err := s.retrieve.Nearest(ctx, res.Embedding, q.Scope, s.limit)
	if err != nil {
		s.logger.Error("retrieval failed",
			zap.String("scope", q.Scope),
			zap.Error(err))
		return domain.Answer{Text: generationFallback}
	}
	if len(matches) == 0 {
		return domain.Answer{Text: noMatchFallback}
	}

	prompt := buildPrompt(q.Text, matches, q.Scope != "")
	text, err := s.generate.Generate(ctx, prompt)
	if err != nil || text == "" {
		s.logger.Error("generation failed",
			zap.String("scope", q.Scope),
			zap.Error(err))
		return domain.Answer{Text: generationFallback}
	}

	return domain.Answer{Text: text, SourceKey: matches[0].SourceKey}
}
