package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

const (
	singleDocMode = "The context comes from the user's uploaded document."
	crossDocMode  = "The context comes from a shared document library."
)

// buildPrompt assembles the grounding prompt: query, retrieved context, a
// single-document vs. cross-document mode line, and the bullet format rule.
func buildPrompt(query string, matches []domain.Match, scoped bool) string {
	var contexts []string
	for _, m := range matches {
		contexts = append(contexts, m.Text)
	}

	mode := crossDocMode
	if scoped {
		mode = singleDocMode
	}

	return fmt.Sprintf(`Answer the question using only the provided context.

Question: %s

Context:
%s

%s
Respond with at most four bullet points. Separate bullet points with the '|' character. Do not put a '|' after the last bullet point.`,
		query, strings.Join(contexts, "\n\n"), mode)
}
