package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearchByVectorPushesThreshold(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/legal/points/search" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"text":"Article 3","metadata":{"source":"code.pdf","chunk_index":7}}},
			{"score":0.72,"payload":{"page_content":"Article 9"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "legal", Options{})
	hits, err := client.SearchByVector(context.Background(), []float32{0.1, 0.2}, 5, 0.7)
	if err != nil {
		t.Fatalf("SearchByVector() error = %v", err)
	}

	if captured["score_threshold"] != 0.7 {
		t.Fatalf("score_threshold not forwarded: %v", captured)
	}
	if captured["limit"] != float64(5) {
		t.Fatalf("limit not forwarded: %v", captured)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Document.Content != "Article 3" || hits[0].Score != 0.91 {
		t.Fatalf("first hit = %+v", hits[0])
	}
	if hits[0].Document.Metadata["source"] != "code.pdf" {
		t.Fatalf("string metadata not mapped: %+v", hits[0].Document.Metadata)
	}
	if hits[1].Document.Content != "Article 9" {
		t.Fatalf("page_content fallback not applied: %+v", hits[1])
	}
}

func TestFetchCorpusScrollsAllPages(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/legal/points/scroll" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		pages++
		switch pages {
		case 1:
			if _, ok := payload["offset"]; ok {
				t.Fatalf("first page must not carry an offset")
			}
			_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"text":"doc-1"}},{"payload":{"text":"doc-2"}}],"next_page_offset":"p2"}}`))
		case 2:
			if payload["offset"] != "p2" {
				t.Fatalf("second page offset = %v, want p2", payload["offset"])
			}
			_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"text":"doc-3"}}],"next_page_offset":null}}`))
		default:
			t.Fatalf("unexpected extra page request")
		}
	}))
	defer server.Close()

	client := New(server.URL, "legal", Options{ScrollPageSize: 2})
	corpus, err := client.FetchCorpus(context.Background())
	if err != nil {
		t.Fatalf("FetchCorpus() error = %v", err)
	}
	if len(corpus) != 3 {
		t.Fatalf("corpus size = %d, want 3", len(corpus))
	}
	want := []string{"doc-1", "doc-2", "doc-3"}
	for i, doc := range corpus {
		if doc.Content != want[i] {
			t.Fatalf("corpus[%d] = %q, want %q", i, doc.Content, want[i])
		}
	}
}

func TestSearchByVectorStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "legal", Options{})
	_, err := client.SearchByVector(context.Background(), []float32{0.1}, 3, 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "collection not found") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
