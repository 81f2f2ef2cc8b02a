package pipeline

// TokenCountFunc counts the tokens of a text in the embedding
// model's vocabulary.
type TokenCountFunc func(text string) int

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// Mention is one named entity span detected in a chunk's content
type Mention struct {
	Text  string
	Label string
	Start int
	End   int
}

// RecognizeFunc detects named entity mentions in text
type RecognizeFunc func(text string) ([]Mention, error)

// PageText is the parsed input of the pipeline for one page
type PageText struct {
	Number      int // 1-based
	Text        string
	HasTable    bool
	SectionPath []string
}
