package retrieval

import (
	"context"
	"fmt"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/ports"
)

// SemanticRanker embeds the query and delegates nearest-neighbour search to
// the vector backend. It owns only the query-time ranking contract, not
// storage.
type SemanticRanker struct {
	embedder ports.Embedder
	backend  ports.VectorBackend
}

func NewSemanticRanker(embedder ports.Embedder, backend ports.VectorBackend) *SemanticRanker {
	return &SemanticRanker{embedder: embedder, backend: backend}
}

func (r *SemanticRanker) Score(ctx context.Context, query string, topK int, threshold float64) (domain.RankedList, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("embed query: empty vector")
	}

	hits, err := r.backend.SearchByVector(ctx, vector, topK, threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make(domain.RankedList, 0, len(hits))
	for _, hit := range hits {
		if hit.Score <= threshold {
			continue
		}
		tagged := hit.Document.
			WithMeta(domain.MetaRetrieverTag, "vectordb_retriever").
			WithMeta(domain.MetaVectorScore, formatScore(hit.Score))
		out = append(out, domain.RankedDocument{Document: tagged, Score: hit.Score})
	}
	return out, nil
}
