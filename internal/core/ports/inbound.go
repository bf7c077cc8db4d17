package ports

import (
	"context"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

// RetrievalService is the composed hybrid+rerank pipeline.
type RetrievalService interface {
	Retrieve(ctx context.Context, query string) (domain.RankedList, error)
}

// Researcher answers a single question with evidence-grounded prose.
type Researcher interface {
	Answer(ctx context.Context, question string) (*domain.Evidence, error)
}

// Interrogator runs a bounded question/answer session against the corpus.
type Interrogator interface {
	Run(ctx context.Context, req domain.InterrogationRequest) (*domain.InterrogationResult, error)
}

// SessionSubmitter persists a pending session and enqueues it for a worker.
type SessionSubmitter interface {
	Submit(ctx context.Context, req domain.InterrogationRequest) (*domain.Session, error)
}

// SessionProcessor executes a persisted pending session. Used by the worker.
type SessionProcessor interface {
	ProcessByID(ctx context.Context, sessionID string) error
}

// SessionReader is the read model for session state.
type SessionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
}
