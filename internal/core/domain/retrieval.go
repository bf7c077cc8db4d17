package domain

// RerankerType selects the pairwise relevance backend at construction time.
type RerankerType string

const (
	RerankerCrossEncoder RerankerType = "cross-encoder"
	RerankerFlag         RerankerType = "flag-reranker"
	RerankerLLM          RerankerType = "llm-reranker"
)

func (t RerankerType) Valid() bool {
	switch t {
	case RerankerCrossEncoder, RerankerFlag, RerankerLLM:
		return true
	default:
		return false
	}
}

// RetrievalConfig is the recognized tuning surface of the hybrid engine.
type RetrievalConfig struct {
	TopK                int     `json:"top_k" yaml:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
	BM25Weight          float64 `json:"bm25_weight" yaml:"bm25_weight"`
	VectorWeight        float64 `json:"vector_weight" yaml:"vector_weight"`
	BM25Sigmoid         bool    `json:"bm25_sigmoid" yaml:"bm25_sigmoid"`

	UseReranker                 bool         `json:"use_reranker" yaml:"use_reranker"`
	RerankerType                RerankerType `json:"reranker_type" yaml:"reranker_type"`
	RerankerTopK                int          `json:"reranker_top_k" yaml:"reranker_top_k"`
	RerankerSimilarityThreshold float64      `json:"reranker_similarity_threshold" yaml:"reranker_similarity_threshold"`
}

func (c RetrievalConfig) Normalize() RetrievalConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.BM25Weight <= 0 && out.VectorWeight <= 0 {
		out.BM25Weight = 0.5
		out.VectorWeight = 0.5
	}
	if out.RerankerTopK <= 0 {
		out.RerankerTopK = out.TopK
	}
	if out.UseReranker && !out.RerankerType.Valid() {
		out.RerankerType = RerankerCrossEncoder
	}
	return out
}

// Evidence is a synthesized answer together with the ranked documents that
// ground it.
type Evidence struct {
	Text    string     `json:"text"`
	Sources RankedList `json:"sources"`
}
