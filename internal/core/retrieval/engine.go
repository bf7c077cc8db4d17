package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/ports"
)

// Engine composes the lexical ranker, the semantic ranker, rank fusion and
// the optional reranker into one retrieve contract. The two rankers run
// concurrently; fusion is the join barrier.
// DegradationHook is notified when a query is served with one ranker
// unavailable. The ranker name is "lexical" or "semantic".
type DegradationHook func(ranker string)

type Engine struct {
	corpus     ports.CorpusProvider
	lexical    *LexicalRanker
	semantic   *SemanticRanker
	reranker   *Reranker
	cfg        domain.RetrievalConfig
	logger     *slog.Logger
	onDegraded DegradationHook

	// The source system rebuilds the lexical corpus from the vector store on
	// every hybrid query. A short TTL snapshot cache bounds that cost; TTL 0
	// keeps the per-query rebuild.
	snapshotTTL time.Duration
	snapMu      sync.Mutex
	snapshot    []domain.Document
	snapTaken   time.Time
}

func NewEngine(
	corpus ports.CorpusProvider,
	lexical *LexicalRanker,
	semantic *SemanticRanker,
	reranker *Reranker,
	cfg domain.RetrievalConfig,
	snapshotTTL time.Duration,
	logger *slog.Logger,
	onDegraded DegradationHook,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		corpus:      corpus,
		lexical:     lexical,
		semantic:    semantic,
		reranker:    reranker,
		cfg:         cfg.Normalize(),
		snapshotTTL: snapshotTTL,
		logger:      logger,
		onDegraded:  onDegraded,
	}
}

type rankerResult struct {
	list domain.RankedList
	err  error
}

// Retrieve runs the hybrid pipeline for one query. If one ranker fails the
// surviving list passes through fusion unmodified; if both fail the error is
// ErrBackendUnavailable. An empty final candidate set is reported as
// ErrNoRelevantResults, never as a valid empty answer.
func (e *Engine) Retrieve(ctx context.Context, query string) (domain.RankedList, error) {
	lexCh := make(chan rankerResult, 1)
	semCh := make(chan rankerResult, 1)

	go func() {
		corpus, err := e.corpusSnapshot(ctx)
		if err != nil {
			lexCh <- rankerResult{err: fmt.Errorf("corpus snapshot: %w", err)}
			return
		}
		lexCh <- rankerResult{list: e.lexical.Score(corpus, query, e.cfg.TopK, e.cfg.SimilarityThreshold)}
	}()
	go func() {
		list, err := e.semantic.Score(ctx, query, e.cfg.TopK, e.cfg.SimilarityThreshold)
		semCh <- rankerResult{list: list, err: err}
	}()

	lex := <-lexCh
	sem := <-semCh

	fused, err := e.fuseResults(query, lex, sem)
	if err != nil {
		return nil, err
	}

	reranked, err := e.reranker.Rerank(ctx, query, fused)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	if len(reranked) == 0 {
		return nil, domain.WrapError(domain.ErrNoRelevantResults, "retrieve", fmt.Errorf("no documents above thresholds for query"))
	}
	return reranked, nil
}

func (e *Engine) fuseResults(query string, lex, sem rankerResult) (domain.RankedList, error) {
	switch {
	case lex.err != nil && sem.err != nil:
		return nil, domain.WrapError(
			domain.ErrBackendUnavailable,
			"retrieve",
			fmt.Errorf("lexical: %v; semantic: %v", lex.err, sem.err),
		)
	case lex.err != nil:
		e.logger.Warn("lexical_ranker_degraded", "query_len", len(query), "error", lex.err)
		e.notifyDegraded("lexical")
		return truncate(sem.list, e.cfg.TopK), nil
	case sem.err != nil:
		e.logger.Warn("semantic_ranker_degraded", "query_len", len(query), "error", sem.err)
		e.notifyDegraded("semantic")
		return truncate(lex.list, e.cfg.TopK), nil
	default:
		return Fuse(lex.list, sem.list, e.cfg.BM25Weight, e.cfg.VectorWeight, e.cfg.TopK), nil
	}
}

func (e *Engine) notifyDegraded(ranker string) {
	if e.onDegraded != nil {
		e.onDegraded(ranker)
	}
}

func (e *Engine) corpusSnapshot(ctx context.Context) ([]domain.Document, error) {
	e.snapMu.Lock()
	if e.snapshotTTL > 0 && e.snapshot != nil && time.Since(e.snapTaken) < e.snapshotTTL {
		snap := e.snapshot
		e.snapMu.Unlock()
		return snap, nil
	}
	e.snapMu.Unlock()

	corpus, err := e.corpus.FetchCorpus(ctx)
	if err != nil {
		return nil, err
	}

	if e.snapshotTTL > 0 {
		e.snapMu.Lock()
		e.snapshot = corpus
		e.snapTaken = time.Now()
		e.snapMu.Unlock()
	}
	return corpus, nil
}
