package pipeline

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter creates a token counter backed by the cl100k_base
// encoding.
func TiktokenCounter() (TokenCountFunc, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load cl100k_base encoding: %w", err)
	}

	return func(text string) int {
		return len(encoding.Encode(text, nil, nil))
	}, nil
}

// EstimateCounter creates a counter that approximates token counts
// from character length. Useful when no encoding data is available.
func EstimateCounter() TokenCountFunc {
	return func(text string) int {
		count := len(text) / 4
		if count == 0 && len(text) > 0 {
			count = 1
		}
		return count
	}
}
