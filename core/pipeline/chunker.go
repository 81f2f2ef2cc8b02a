package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/docuquery/docuquery/model"
)

// FallbackContent is the placeholder content of the single chunk
// synthesized for a page without extractable text.
const FallbackContent = "No text could be extracted from this page"

// FallbackTokenCount is the fixed token count of the fallback chunk
const FallbackTokenCount = 5

// Chunker splits page text into token bounded chunks
type Chunker struct {
	Budget  int
	Counter TokenCountFunc
}

// NewChunker creates a chunker with the given token budget
func NewChunker(budget int, counter TokenCountFunc) (*Chunker, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("token budget must be positive, got %d", budget)
	}
	if counter == nil {
		return nil, fmt.Errorf("token counter is nil")
	}

	return &Chunker{
		Budget:  budget,
		Counter: counter,
	}, nil
}

// ChunkPage splits one page's text into chunks. Words are
// accumulated greedily until adding the next word would exceed the
// token budget, then the buffer is flushed as one chunk. A single
// word over the budget still becomes its own chunk. Chunk indexes
// continue from startIndex so they stay contiguous per document.
//
// A page without extractable text yields exactly one fallback chunk
// with reduced importance. First page chunks carry a fixed
// importance bias.
func (c *Chunker) ChunkPage(documentID uuid.UUID, page PageText, startIndex int) []*model.Chunk {
	importance := model.ImportanceDefault
	if page.Number == 1 {
		importance = model.ImportanceFirstPage
	}

	words := strings.Fields(page.Text)
	if len(words) == 0 {
		return []*model.Chunk{{
			ID:          uuid.New(),
			DocumentID:  documentID,
			PageNumber:  page.Number,
			ChunkIndex:  startIndex,
			Content:     FallbackContent,
			ContentType: model.ContentTypeText,
			SectionPath: []string{fmt.Sprintf("Page %d", page.Number)},
			TokenCount:  FallbackTokenCount,
			Importance:  model.ImportanceFallback,
		}}
	}

	contentType := model.ContentTypeText
	if page.HasTable {
		contentType = model.ContentTypeTable
	}

	var chunks []*model.Chunk
	var buffer []string
	bufferTokens := 0
	index := startIndex

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		chunks = append(chunks, &model.Chunk{
			ID:          uuid.New(),
			DocumentID:  documentID,
			PageNumber:  page.Number,
			ChunkIndex:  index,
			Content:     strings.Join(buffer, " "),
			ContentType: contentType,
			SectionPath: page.SectionPath,
			TokenCount:  bufferTokens,
			Importance:  importance,
		})
		buffer = nil
		bufferTokens = 0
		index++
	}

	for _, word := range words {
		wordTokens := c.Counter(word)
		if bufferTokens+wordTokens > c.Budget {
			flush()
		}
		buffer = append(buffer, word)
		bufferTokens += wordTokens
	}
	flush()

	return chunks
}
