package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/ports"
)

// ResearchUseCase answers a single question with evidence from the corpus.
// It is the interrogation loop's view of the document database.
type ResearchUseCase struct {
	retrieval   ports.RetrievalService
	synthesizer ports.Synthesizer
}

func NewResearchUseCase(retrieval ports.RetrievalService, synthesizer ports.Synthesizer) *ResearchUseCase {
	return &ResearchUseCase{
		retrieval:   retrieval,
		synthesizer: synthesizer,
	}
}

func (uc *ResearchUseCase) Answer(ctx context.Context, question string) (*domain.Evidence, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "research", fmt.Errorf("empty question"))
	}

	docs, err := uc.retrieval.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}

	text, err := uc.synthesizer.Synthesize(ctx, question, docs)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	return &domain.Evidence{
		Text:    text,
		Sources: docs,
	}, nil
}
