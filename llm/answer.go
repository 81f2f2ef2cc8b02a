package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/docuquery/docuquery/model"
)

// DefaultContextChars caps the assembled context string so prompts
// stay within typical model windows.
const DefaultContextChars = 12000

const answerSystemPrompt = "You are a document assistant. Answer the question using only the provided document excerpts. Cite the page number of every excerpt you use. If the excerpts do not contain the answer, say so."

// Answerer generates answers from ranked chunks
type Answerer struct {
	provider     Provider
	contextChars int
}

// NewAnswerer creates an answerer around a provider
func NewAnswerer(provider Provider) (*Answerer, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is nil")
	}

	return &Answerer{
		provider:     provider,
		contextChars: DefaultContextChars,
	}, nil
}

// BuildContext assembles the prompt context from ranked chunks,
// highest score first, truncated to maxChars. Zero maxChars means no
// limit.
func BuildContext(results []model.ChunkResult, maxChars int) string {
	var b strings.Builder
	for _, result := range results {
		excerpt := fmt.Sprintf("[%s, page %d]\n%s\n\n", result.DocumentInfo.Title, result.PageNumber, result.Content)
		if maxChars > 0 && b.Len()+len(excerpt) > maxChars {
			break
		}
		b.WriteString(excerpt)
	}
	return strings.TrimSpace(b.String())
}

// Answer generates an answer to the query grounded in the given
// ranked chunks.
func (a *Answerer) Answer(ctx context.Context, query string, results []model.ChunkResult) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query is empty")
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no chunks to answer from")
	}

	contextText := BuildContext(results, a.contextChars)

	response, err := a.provider.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Document excerpts:\n\n%s\n\nQuestion: %s", contextText, query)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return response.Content, nil
}
