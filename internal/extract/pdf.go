// Package extract turns raw PDF bytes into ordered page texts.
package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// PDF extracts page texts using ledongthuc/pdf.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF { return &PDF{} }

// PageTexts returns the plain text of every page in source order.
// Unreadable or malformed content reports domain.ErrBadFormat; the failure is
// stage-fatal and not retryable.
func (e *PDF) PageTexts(data []byte) (pages []string, err error) {
	// The pdf library panics on some malformed xref tables instead of
	// returning an error; fold those into ErrBadFormat too.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf: %v: %w", r, domain.ErrBadFormat)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf content: %w", domain.ErrBadFormat)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w: %w", err, domain.ErrBadFormat)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w: %w", i, err, domain.ErrBadFormat)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
