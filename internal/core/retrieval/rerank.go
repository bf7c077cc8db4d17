package retrieval

import (
	"context"
	"sort"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/ports"
)

// Reranker re-scores the fused candidate set with a pairwise relevance
// model. Only original spans of source material are eligible: synthetic
// ancestor/descendant context wrappers are filtered out before scoring.
type Reranker struct {
	scorer    ports.PairScorer
	topK      int
	threshold float64
}

func NewReranker(scorer ports.PairScorer, topK int, threshold float64) *Reranker {
	return &Reranker{scorer: scorer, topK: topK, threshold: threshold}
}

// Rerank returns the reranked top-k. A nil reranker or scorer is a
// pass-through of the fused top-k; a scorer failure degrades the same way.
// If the original-span filter removes every candidate, the result is an
// explicit empty list.
func (r *Reranker) Rerank(ctx context.Context, query string, fused domain.RankedList) (domain.RankedList, error) {
	if r == nil || r.scorer == nil {
		return truncate(fused, r.passthroughLimit()), nil
	}
	if len(fused) == 0 {
		return domain.RankedList{}, nil
	}

	eligible := make(domain.RankedList, 0, len(fused))
	for _, rd := range fused {
		if rd.Document.IsOriginalSpan() {
			eligible = append(eligible, rd)
		}
	}
	if len(eligible) == 0 {
		return domain.RankedList{}, nil
	}

	texts := make([]string, 0, len(eligible))
	for _, rd := range eligible {
		texts = append(texts, rd.Document.Content)
	}

	scores, err := r.scorer.ScorePairs(ctx, query, texts)
	if err != nil || len(scores) != len(eligible) {
		// Degrade to the un-reranked fused top-k rather than failing retrieval.
		return truncate(fused, r.topK), nil
	}

	out := make(domain.RankedList, 0, len(eligible))
	for i, rd := range eligible {
		if r.threshold > 0 && scores[i] < r.threshold {
			continue
		}
		doc := rd.Document.WithMeta(domain.MetaRerankScore, formatScore(scores[i]))
		out = append(out, domain.RankedDocument{Document: doc, Score: scores[i]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return truncate(out, r.topK), nil
}

func (r *Reranker) passthroughLimit() int {
	if r == nil {
		return 0
	}
	return r.topK
}

func truncate(list domain.RankedList, limit int) domain.RankedList {
	if limit <= 0 || len(list) <= limit {
		return list
	}
	return list[:limit]
}
