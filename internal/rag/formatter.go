package rag

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Assemble joins the retrieved document texts, closest first, one per line.
func Assemble(result RetrievalResult) string {
	return strings.Join(result.Texts(), "\n")
}

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens reports the o200k_base token count of text, falling back to
// a word count when the encoding is unavailable.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	codecOnce.Do(func() {
		enc, err := tokenizer.Get(tokenizer.O200kBase)
		if err == nil {
			codec = enc
		}
	})
	if codec != nil {
		if ids, _, err := codec.Encode(text); err == nil {
			return len(ids)
		}
	}
	return estimateTokens(text)
}

func estimateTokens(text string) int {
	return len(strings.Fields(text))
}
