package segment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Sink persists a completed chunk and returns its storage key.
type Sink interface {
	Put(ctx context.Context, chunk domain.Chunk) (string, error)
}

var (
	// listItemRe matches numbered, lettered, or bulleted line prefixes.
	listItemRe = regexp.MustCompile(`^(\d+[.)]|\*|•|-)\s`)
	// sentenceEndRe marks sentence boundaries: terminal punctuation followed
	// by whitespace. The whitespace run is consumed by the split.
	sentenceEndRe = regexp.MustCompile(`[.!?] +`)
)

// Segmenter splits ordered page texts into bounded chunks in a single
// deterministic pass. A list-item line is an atomic unit; any other line is
// split into sentences, and each unit is appended to the current accumulator
// if it fits within ChunkSize, otherwise the accumulator is flushed first.
// A unit that alone exceeds ChunkSize is emitted as its own oversized chunk
// rather than split mid-unit.
type Segmenter struct {
	chunkSize int
	overlap   int
}

// New creates a Segmenter. Overlap is accepted for interface parity with the
// upload request but chunks stay disjoint; see DESIGN.md.
func New(chunkSize, overlap int) (*Segmenter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", chunkSize, domain.ErrInvalidInput)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d: %w", overlap, domain.ErrInvalidInput)
	}
	return &Segmenter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Segment processes pages in order, persisting each completed chunk through
// the sink as a side effect. Chunk indices are assigned sequentially from 0.
// The ordered list of storage keys is the primary return value.
func (s *Segmenter) Segment(
	ctx context.Context, doc domain.Document, pages []string, sink Sink,
) ([]string, error) {
	var (
		current strings.Builder
		keys    []string
	)

	flush := func() error {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text == "" {
			return nil
		}
		key, err := sink.Put(ctx, domain.Chunk{
			DocumentID: doc.ID,
			Index:      len(keys),
			Text:       text,
		})
		if err != nil {
			return fmt.Errorf("persist chunk %d: %w", len(keys), err)
		}
		keys = append(keys, key)
		return nil
	}

	// fits-or-flush: append the unit if the accumulator stays within the
	// bound, otherwise flush first and start over with the unit.
	append_ := func(unit, sep string) error {
		if current.Len()+len(unit) > s.chunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
		current.WriteString(unit)
		current.WriteString(sep)
		return nil
	}

	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if listItemRe.MatchString(strings.TrimSpace(line)) {
				if err := append_(line, "\n"); err != nil {
					return nil, err
				}
				continue
			}
			for _, sentence := range splitSentences(line) {
				if err := append_(sentence, " "); err != nil {
					return nil, err
				}
			}
		}
	}

	// A non-empty remainder becomes the final chunk; a blank one is dropped.
	if err := flush(); err != nil {
		return nil, err
	}
	return keys, nil
}

// splitSentences splits a line after terminal punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence and
// consuming the whitespace run. Always returns at least one element.
func splitSentences(line string) []string {
	matches := sentenceEndRe.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return []string{line}
	}
	sentences := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		sentences = append(sentences, line[start:m[0]+1])
		start = m[1]
	}
	return append(sentences, line[start:])
}
