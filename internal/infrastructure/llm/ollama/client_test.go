package ollama

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

func TestGeneratorSendsSystemAndPrompt(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  What is the governing law?  "}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", "sim", Options{})
	gen := NewGenerator(client)
	out, err := gen.GenerateFromPrompt(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("GenerateFromPrompt() error = %v", err)
	}
	if out != "What is the governing law?" {
		t.Fatalf("response not trimmed: %q", out)
	}
	if captured["system"] != "system text" || captured["prompt"] != "user text" {
		t.Fatalf("unexpected payload: %v", captured)
	}
	if captured["model"] != "gen" {
		t.Fatalf("generation must use the gen model, got %v", captured["model"])
	}
}

func TestSynthesizerIncludesDocumentBlocks(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"answer"}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", "sim", Options{})
	synth := NewSynthesizer(client)
	docs := domain.RankedList{
		{Document: domain.Document{Content: "Clause 5.2 text"}, Score: 0.9},
	}
	if _, err := synth.Synthesize(context.Background(), "what does clause 5.2 say?", docs); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !strings.Contains(capturedPrompt, "what does clause 5.2 say?") || !strings.Contains(capturedPrompt, "Clause 5.2 text") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "<Documents>") {
		t.Fatalf("documents not wrapped in tags:\n%s", capturedPrompt)
	}
}

func TestSimilarityUsesDedicatedModel(t *testing.T) {
	var capturedModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedModel, _ = payload["model"].(string)
		_, _ = w.Write([]byte(`{"embeddings":[[1,0],[0.6,0.8]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", "sim", Options{})
	scorer := NewSimilarityScorer(client)
	score, err := scorer.Similarity(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Similarity() error = %v", err)
	}
	if capturedModel != "sim" {
		t.Fatalf("similarity must use its own model, got %q", capturedModel)
	}
	// float32 vectors carry ~1e-8 of representation error through cosine.
	if math.Abs(score-0.6) > 1e-6 {
		t.Fatalf("cosine = %f, want 0.6", score)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", "sim", Options{})
	embedder := NewEmbedder(client)
	_, err := embedder.EmbedQuery(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("502 must be wrapped as temporary, got %v", err)
	}
}

func TestBadRequestIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", "sim", Options{})
	gen := NewGenerator(client)
	_, err := gen.GenerateFromPrompt(context.Background(), "s", "u")
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("400 must not be wrapped as temporary: %v", err)
	}
}
