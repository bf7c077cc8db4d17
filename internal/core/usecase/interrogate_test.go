package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/interrogation"
)

type fakeSessionStore struct {
	sessions  map[string]*domain.Session
	statuses  []domain.SessionStatus
	outcomes  int
	createErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*domain.Session{}}
}

func (f *fakeSessionStore) Create(_ context.Context, s *domain.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id))
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) UpdateStatus(_ context.Context, id string, status domain.SessionStatus, errMessage string) error {
	f.statuses = append(f.statuses, status)
	if s, ok := f.sessions[id]; ok {
		s.Status = status
		s.Error = errMessage
	}
	return nil
}

func (f *fakeSessionStore) SaveOutcome(_ context.Context, s *domain.Session) error {
	f.outcomes++
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishSessionSubmitted(_ context.Context, sessionID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, sessionID)
	return nil
}

func (f *fakeQueue) SubscribeSessionSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

// confidentGenerator immediately emits the termination phrase, so a session
// runs zero turns and goes straight to the conclusion.
type confidentGenerator struct{ err error }

func (g confidentGenerator) GenerateFromPrompt(context.Context, string, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return interrogation.TerminationPhrase, nil
}

type noopResearcher struct{}

func (noopResearcher) Answer(context.Context, string) (*domain.Evidence, error) {
	return &domain.Evidence{Text: "answer"}, nil
}

func testMachine(gen confidentGenerator) *interrogation.Machine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return interrogation.NewMachine(gen, noopResearcher{}, interrogation.NewTerminationChecker(nil, 0, logger), logger)
}

func TestRunCompletesAndPersistsOutcome(t *testing.T) {
	store := newFakeSessionStore()
	queue := &fakeQueue{}
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), store, queue, 0)

	result, err := uc.Run(context.Background(), domain.InterrogationRequest{UserQuery: "Is the clause valid?"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stored, err := store.GetByID(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if stored.Status != domain.SessionCompleted {
		t.Fatalf("stored status = %s, want completed", stored.Status)
	}
	if result.Conclusion == "" {
		t.Fatalf("expected a conclusion in the result")
	}
	if len(queue.published) != 0 {
		t.Fatalf("synchronous run must not touch the queue")
	}
}

func TestRunDefaultsTurnBudget(t *testing.T) {
	store := newFakeSessionStore()
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), store, &fakeQueue{}, 0)

	result, err := uc.Run(context.Background(), domain.InterrogationRequest{UserQuery: "q"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	stored, _ := store.GetByID(context.Background(), result.SessionID)
	if stored.TurnBudget != DefaultTurnBudget {
		t.Fatalf("turn budget = %d, want default %d", stored.TurnBudget, DefaultTurnBudget)
	}
}

func TestRunHonorsConfiguredDefaultBudget(t *testing.T) {
	store := newFakeSessionStore()
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), store, &fakeQueue{}, 4)

	result, err := uc.Run(context.Background(), domain.InterrogationRequest{UserQuery: "q"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	stored, _ := store.GetByID(context.Background(), result.SessionID)
	if stored.TurnBudget != 4 {
		t.Fatalf("turn budget = %d, want configured default 4", stored.TurnBudget)
	}
}

func TestRunRejectsEmptyQuery(t *testing.T) {
	store := newFakeSessionStore()
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), store, &fakeQueue{}, 0)

	_, err := uc.Run(context.Background(), domain.InterrogationRequest{UserQuery: "  "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Run() error = %v, want ErrInvalidInput", err)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("invalid request must not create a session")
	}
}

func TestRunRejectsExcessiveBudget(t *testing.T) {
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), newFakeSessionStore(), &fakeQueue{}, 0)

	_, err := uc.Run(context.Background(), domain.InterrogationRequest{UserQuery: "q", TurnBudget: MaxTurnBudget + 1})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Run() error = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitEnqueuesPendingSession(t *testing.T) {
	store := newFakeSessionStore()
	queue := &fakeQueue{}
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), store, queue, 0)

	s, err := uc.Submit(context.Background(), domain.InterrogationRequest{UserQuery: "Is the clause valid?", TurnBudget: 3})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if s.Status != domain.SessionPending {
		t.Fatalf("submitted status = %s, want pending", s.Status)
	}
	if len(queue.published) != 1 || queue.published[0] != s.ID {
		t.Fatalf("session id not enqueued: %v", queue.published)
	}
}

func TestProcessByIDRunsQueuedSession(t *testing.T) {
	store := newFakeSessionStore()
	queue := &fakeQueue{}
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), store, queue, 0)

	s, err := uc.Submit(context.Background(), domain.InterrogationRequest{UserQuery: "Is the clause valid?"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := uc.ProcessByID(context.Background(), s.ID); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if len(store.statuses) == 0 || store.statuses[0] != domain.SessionRunning {
		t.Fatalf("session must transition through running, got %v", store.statuses)
	}
	stored, _ := store.GetByID(context.Background(), s.ID)
	if stored.Status != domain.SessionCompleted {
		t.Fatalf("final status = %s, want completed", stored.Status)
	}
	if store.outcomes != 1 {
		t.Fatalf("outcome saved %d times, want 1", store.outcomes)
	}
}

func TestProcessByIDMarksFailure(t *testing.T) {
	store := newFakeSessionStore()
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{err: fmt.Errorf("llm offline")}), store, &fakeQueue{}, 0)

	s, err := uc.Submit(context.Background(), domain.InterrogationRequest{UserQuery: "q"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := uc.ProcessByID(context.Background(), s.ID); err == nil {
		t.Fatalf("ProcessByID() expected error")
	}
	stored, _ := store.GetByID(context.Background(), s.ID)
	if stored.Status != domain.SessionFailed {
		t.Fatalf("final status = %s, want failed", stored.Status)
	}
	if stored.Error == "" {
		t.Fatalf("failure message must be recorded")
	}
}

func TestProcessByIDUnknownSession(t *testing.T) {
	uc := NewInterrogateUseCase(testMachine(confidentGenerator{}), newFakeSessionStore(), &fakeQueue{}, 0)

	err := uc.ProcessByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("ProcessByID() error = %v, want ErrSessionNotFound", err)
	}
}
