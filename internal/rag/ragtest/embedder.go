// Package ragtest provides test doubles for the retrieval pipeline.
package ragtest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
)

// Dims is the vector width produced by KeywordEmbedder.
const Dims = 256

// KeywordEmbedder hashes lower-cased words into a fixed number of buckets,
// so texts sharing words end up close together. Set Err to make every call fail.
type KeywordEmbedder struct {
	mu    sync.Mutex
	calls int
	Err   error
}

func (e *KeywordEmbedder) Name() string { return "fake:keywords" }

func (e *KeywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.Err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, Dims)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,:;!?")
			if word == "" {
				continue
			}
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			vec[h.Sum32()%Dims]++
		}
		vec[Dims-1] += 0.01
		out[i] = vec
	}
	return out, nil
}

// Calls returns how many times Embed has been called.
func (e *KeywordEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
