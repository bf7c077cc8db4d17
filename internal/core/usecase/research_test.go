package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

type fakeRetrieval struct {
	docs domain.RankedList
	err  error
}

func (f *fakeRetrieval) Retrieve(context.Context, string) (domain.RankedList, error) {
	return f.docs, f.err
}

type fakeSynthesizer struct {
	text string
	err  error
}

func (f *fakeSynthesizer) Synthesize(context.Context, string, domain.RankedList) (string, error) {
	return f.text, f.err
}

func TestResearchAnswerReturnsEvidence(t *testing.T) {
	docs := domain.RankedList{
		{Document: domain.Document{Content: "Article 5"}, Score: 0.9},
	}
	uc := NewResearchUseCase(&fakeRetrieval{docs: docs}, &fakeSynthesizer{text: "The article provides..."})

	evidence, err := uc.Answer(context.Background(), "What does article 5 say?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if evidence.Text != "The article provides..." {
		t.Fatalf("evidence text = %q", evidence.Text)
	}
	if len(evidence.Sources) != 1 || evidence.Sources[0].Document.Content != "Article 5" {
		t.Fatalf("sources not propagated: %+v", evidence.Sources)
	}
}

func TestResearchAnswerRejectsEmptyQuestion(t *testing.T) {
	uc := NewResearchUseCase(&fakeRetrieval{}, &fakeSynthesizer{})

	_, err := uc.Answer(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Answer() error = %v, want ErrInvalidInput", err)
	}
}

func TestResearchAnswerPropagatesRetrievalFailure(t *testing.T) {
	cause := domain.WrapError(domain.ErrNoRelevantResults, "retrieve", fmt.Errorf("nothing above thresholds"))
	uc := NewResearchUseCase(&fakeRetrieval{err: cause}, &fakeSynthesizer{})

	_, err := uc.Answer(context.Background(), "anything in the corpus?")
	if !errors.Is(err, domain.ErrNoRelevantResults) {
		t.Fatalf("Answer() error = %v, want ErrNoRelevantResults", err)
	}
}
