package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

type fakeCorpus struct {
	docs    []domain.Document
	err     error
	fetches int
}

func (f *fakeCorpus) FetchCorpus(context.Context) ([]domain.Document, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeVectorBackend struct {
	hits domain.RankedList
	err  error
}

func (f *fakeVectorBackend) SearchByVector(context.Context, []float32, int, float64) (domain.RankedList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func testEngine(corpus *fakeCorpus, backend *fakeVectorBackend, cfg domain.RetrievalConfig, ttl time.Duration) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	semantic := NewSemanticRanker(&fakeEmbedder{vector: []float32{0.1, 0.2}}, backend)
	return NewEngine(corpus, NewLexicalRanker(false), semantic, nil, cfg, ttl, logger, nil)
}

func hit(content string, score float64) domain.RankedDocument {
	return domain.RankedDocument{Document: domain.Document{Content: content}, Score: score}
}

func TestRetrieveSemanticFailureKeepsLexicalOrder(t *testing.T) {
	corpus := &fakeCorpus{docs: []domain.Document{
		doc("severance pay accrues on termination without cause"),
		doc("notice period for lease termination"),
		doc("unrelated maritime salvage rules"),
	}}
	backend := &fakeVectorBackend{err: fmt.Errorf("qdrant unreachable")}
	engine := testEngine(corpus, backend, domain.RetrievalConfig{TopK: 3}, 0)

	got, err := engine.Retrieve(context.Background(), "severance pay termination")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	want := engine.lexical.Score(corpus.docs, "severance pay termination", 3, 0)
	if len(got) != len(want) {
		t.Fatalf("degraded result length = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Document.Content != want[i].Document.Content || got[i].Score != want[i].Score {
			t.Fatalf("degraded result at %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRetrieveDegradationNotifiesHook(t *testing.T) {
	corpus := &fakeCorpus{docs: []domain.Document{
		doc("severance pay accrues on termination without cause"),
	}}
	backend := &fakeVectorBackend{err: fmt.Errorf("qdrant unreachable")}

	var degraded []string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	semantic := NewSemanticRanker(&fakeEmbedder{vector: []float32{0.1, 0.2}}, backend)
	engine := NewEngine(corpus, NewLexicalRanker(false), semantic, nil, domain.RetrievalConfig{TopK: 3}, 0, logger, func(ranker string) {
		degraded = append(degraded, ranker)
	})

	if _, err := engine.Retrieve(context.Background(), "severance pay"); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(degraded) != 1 || degraded[0] != "semantic" {
		t.Fatalf("degradation hook calls = %v, want [semantic]", degraded)
	}
}

func TestRetrieveBothRankersFailing(t *testing.T) {
	corpus := &fakeCorpus{err: fmt.Errorf("store offline")}
	backend := &fakeVectorBackend{err: fmt.Errorf("qdrant unreachable")}
	engine := testEngine(corpus, backend, domain.RetrievalConfig{TopK: 3}, 0)

	_, err := engine.Retrieve(context.Background(), "anything")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("Retrieve() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestRetrieveEmptyResultIsSentinel(t *testing.T) {
	corpus := &fakeCorpus{}
	backend := &fakeVectorBackend{}
	engine := testEngine(corpus, backend, domain.RetrievalConfig{TopK: 3}, 0)

	_, err := engine.Retrieve(context.Background(), "query with no match")
	if !errors.Is(err, domain.ErrNoRelevantResults) {
		t.Fatalf("Retrieve() error = %v, want ErrNoRelevantResults", err)
	}
}

func TestRetrieveDeterministicAcrossCalls(t *testing.T) {
	corpus := &fakeCorpus{docs: []domain.Document{
		doc("contract formation requires offer and acceptance"),
		doc("acceptance must mirror the offer"),
		doc("consideration distinguishes contracts from gifts"),
	}}
	backend := &fakeVectorBackend{hits: domain.RankedList{
		hit("consideration distinguishes contracts from gifts", 0.81),
		hit("acceptance must mirror the offer", 0.74),
	}}
	engine := testEngine(corpus, backend, domain.RetrievalConfig{TopK: 3}, 0)

	first, err := engine.Retrieve(context.Background(), "offer acceptance contract")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	for run := 0; run < 10; run++ {
		again, err := engine.Retrieve(context.Background(), "offer acceptance contract")
		if err != nil {
			t.Fatalf("Retrieve() run %d error = %v", run, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged from first result", run)
		}
	}
}

func TestRetrieveSnapshotTTLCachesCorpus(t *testing.T) {
	corpus := &fakeCorpus{docs: []domain.Document{doc("lis pendens suspends registration")}}
	backend := &fakeVectorBackend{hits: domain.RankedList{hit("lis pendens suspends registration", 0.9)}}
	engine := testEngine(corpus, backend, domain.RetrievalConfig{TopK: 2}, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := engine.Retrieve(context.Background(), "lis pendens"); err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
	}
	if corpus.fetches != 1 {
		t.Fatalf("corpus fetched %d times, want 1 with warm snapshot", corpus.fetches)
	}
}

func TestRetrieveNoSnapshotRebuildsPerQuery(t *testing.T) {
	corpus := &fakeCorpus{docs: []domain.Document{doc("estoppel bars contradictory claims")}}
	backend := &fakeVectorBackend{hits: domain.RankedList{hit("estoppel bars contradictory claims", 0.9)}}
	engine := testEngine(corpus, backend, domain.RetrievalConfig{TopK: 2}, 0)

	for i := 0; i < 3; i++ {
		if _, err := engine.Retrieve(context.Background(), "estoppel"); err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
	}
	if corpus.fetches != 3 {
		t.Fatalf("corpus fetched %d times, want one fetch per query", corpus.fetches)
	}
}
