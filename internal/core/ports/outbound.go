package ports

import (
	"context"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

// CorpusProvider exposes a read snapshot of the indexed documents for
// lexical scoring. Index maintenance belongs to an external collaborator;
// a snapshot must not change ordering mid-query.
type CorpusProvider interface {
	FetchCorpus(ctx context.Context) ([]domain.Document, error)
}

// VectorBackend performs query-time semantic search over precomputed
// document embeddings.
type VectorBackend interface {
	SearchByVector(ctx context.Context, vector []float32, k int, threshold float64) (domain.RankedList, error)
}

// Embedder builds vectors for query text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SimilarityScorer computes sentence similarity for the termination check.
// It is never used for retrieval.
type SimilarityScorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// PairScorer scores (query, document) pairs jointly for reranking.
type PairScorer interface {
	ScorePairs(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Generator produces free text from a prompt: questions, reports,
// conclusions.
type Generator interface {
	GenerateFromPrompt(ctx context.Context, system, user string) (string, error)
}

// Synthesizer turns retrieved evidence into prose. Opaque to the core.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, docs domain.RankedList) (string, error)
}

// SessionStore persists interrogation sessions and their outcomes.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, errMessage string) error
	SaveOutcome(ctx context.Context, session *domain.Session) error
}

// JobQueue publishes/consumes pending interrogation session IDs.
type JobQueue interface {
	PublishSessionSubmitted(ctx context.Context, sessionID string) error
	SubscribeSessionSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}
