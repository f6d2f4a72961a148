package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestOllamaEmbedderEmbedsEachText(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "paraphrase-multilingual" {
			t.Errorf("unexpected model %s", body.Model)
		}
		requests.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{float64(len(body.Prompt)), 1}})
	}))
	defer server.Close()

	emb := NewOllamaEmbedder(server.URL+"/", "paraphrase-multilingual", 5*time.Second, 2)
	vectors, err := emb.Embed(context.Background(), []string{"a", "bbb", "cc"})
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if requests.Load() != 3 {
		t.Fatalf("expected 3 requests, got %d", requests.Load())
	}
	want := []float32{1, 3, 2}
	for i, vec := range vectors {
		if vec[0] != want[i] {
			t.Fatalf("vector %d out of order: %v", i, vec)
		}
	}
	if emb.Name() != "ollama:paraphrase-multilingual" {
		t.Fatalf("unexpected name %s", emb.Name())
	}
}

func TestOllamaEmbedderSurfacesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	emb := NewOllamaEmbedder(server.URL, "missing", time.Second, 1)
	_, err := emb.Embed(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected error with body, got %v", err)
	}
}

func TestOpenAIEmbedderPlacesResultsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			]
		}`))
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("sk-test", server.URL+"/v1", "")
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder error: %v", err)
	}
	vectors, err := emb.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors not placed by index: %v", vectors)
	}
	if emb.Name() != "openai:text-embedding-3-small" {
		t.Fatalf("unexpected name %s", emb.Name())
	}
}

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder("", "", ""); err == nil {
		t.Fatal("expected error without API key")
	}
}
