package reranker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

func TestScorePairsRestoresInputOrder(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"results":[{"index":1,"score":0.9},{"index":0,"score":0.2}]}`))
	}))
	defer server.Close()

	client, err := New(server.URL, domain.RerankerCrossEncoder, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	scores, err := client.ScorePairs(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("ScorePairs() error = %v", err)
	}
	if scores[0] != 0.2 || scores[1] != 0.9 {
		t.Fatalf("scores not restored to input order: %v", scores)
	}
	if captured["model"] != string(domain.RerankerCrossEncoder) {
		t.Fatalf("model not forwarded: %v", captured["model"])
	}
	if captured["query"] != "q" {
		t.Fatalf("query not forwarded: %v", captured["query"])
	}
}

func TestScorePairsLengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"index":0,"score":0.5}]}`))
	}))
	defer server.Close()

	client, err := New(server.URL, domain.RerankerFlag, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.ScorePairs(context.Background(), "q", []string{"a", "b"}); err == nil {
		t.Fatalf("expected error on score count mismatch")
	}
}

func TestScorePairsEmptyInput(t *testing.T) {
	client, err := New("http://reranker", domain.RerankerLLM, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	scores, err := client.ScorePairs(context.Background(), "q", nil)
	if err != nil || scores != nil {
		t.Fatalf("empty input should be a no-op, got %v %v", scores, err)
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New("http://reranker", domain.RerankerType("bogus"), Options{})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("New() error = %v, want ErrConfiguration", err)
	}
}
