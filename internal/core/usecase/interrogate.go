package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/interrogation"
	"github.com/corpusjuris/interrogator/internal/core/ports"
)

// DefaultTurnBudget applies when a request does not set one.
const DefaultTurnBudget = 1

// MaxTurnBudget caps what a caller may request for one session.
const MaxTurnBudget = 20

// InterrogateUseCase owns the session lifecycle: synchronous runs, async
// submission to the queue, and worker-side execution of queued sessions.
type InterrogateUseCase struct {
	machine       *interrogation.Machine
	store         ports.SessionStore
	queue         ports.JobQueue
	defaultBudget int
}

// NewInterrogateUseCase builds the session lifecycle service. A
// non-positive defaultBudget falls back to DefaultTurnBudget.
func NewInterrogateUseCase(machine *interrogation.Machine, store ports.SessionStore, queue ports.JobQueue, defaultBudget int) *InterrogateUseCase {
	if defaultBudget <= 0 || defaultBudget > MaxTurnBudget {
		defaultBudget = DefaultTurnBudget
	}
	return &InterrogateUseCase{
		machine:       machine,
		store:         store,
		queue:         queue,
		defaultBudget: defaultBudget,
	}
}

// Run executes a session synchronously. The session is persisted before and
// after the loop so a crash mid-run leaves an inspectable record.
func (uc *InterrogateUseCase) Run(ctx context.Context, req domain.InterrogationRequest) (*domain.InterrogationResult, error) {
	s, err := uc.createSession(ctx, req, domain.SessionRunning)
	if err != nil {
		return nil, err
	}

	if err := uc.machine.Run(ctx, s); err != nil {
		if failErr := uc.markFailed(ctx, s.ID, err); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return nil, err
	}

	if err := uc.saveOutcome(ctx, s); err != nil {
		return nil, err
	}

	return &domain.InterrogationResult{
		SessionID:  s.ID,
		Report:     s.Report,
		Conclusion: s.Conclusion,
		Transcript: s.Interrogation,
		TurnsUsed:  s.TurnsUsed,
	}, nil
}

// Submit persists a pending session and enqueues it for a worker.
func (uc *InterrogateUseCase) Submit(ctx context.Context, req domain.InterrogationRequest) (*domain.Session, error) {
	s, err := uc.createSession(ctx, req, domain.SessionPending)
	if err != nil {
		return nil, err
	}

	if err := uc.queue.PublishSessionSubmitted(ctx, s.ID); err != nil {
		return nil, fmt.Errorf("publish session event: %w", err)
	}

	return s, nil
}

// ProcessByID runs a previously submitted session. Used by the worker.
func (uc *InterrogateUseCase) ProcessByID(ctx context.Context, sessionID string) error {
	s, err := uc.store.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("fetch session by id: %w", err)
	}

	if err := uc.store.UpdateStatus(ctx, s.ID, domain.SessionRunning, ""); err != nil {
		return fmt.Errorf("set status=running: %w", err)
	}

	if err := uc.machine.Run(ctx, s); err != nil {
		if failErr := uc.markFailed(ctx, s.ID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	return uc.saveOutcome(ctx, s)
}

func (uc *InterrogateUseCase) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s, err := uc.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch session by id: %w", err)
	}
	return s, nil
}

func (uc *InterrogateUseCase) createSession(ctx context.Context, req domain.InterrogationRequest, status domain.SessionStatus) (*domain.Session, error) {
	query := strings.TrimSpace(req.UserQuery)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create session", fmt.Errorf("user query is required"))
	}
	budget := req.TurnBudget
	if budget == 0 {
		budget = uc.defaultBudget
	}
	if budget < 0 || budget > MaxTurnBudget {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create session", fmt.Errorf("turn budget %d outside [1, %d]", budget, MaxTurnBudget))
	}

	now := time.Now().UTC()
	s := &domain.Session{
		ID:               uuid.NewString(),
		UserQuery:        query,
		UserContext:      req.UserContext,
		UserInstructions: req.UserInstructions,
		TurnBudget:       budget,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session record: %w", err)
	}
	return s, nil
}

func (uc *InterrogateUseCase) saveOutcome(ctx context.Context, s *domain.Session) error {
	s.Status = domain.SessionCompleted
	s.UpdatedAt = time.Now().UTC()
	if err := uc.store.SaveOutcome(ctx, s); err != nil {
		return fmt.Errorf("save session outcome: %w", err)
	}
	return nil
}

func (uc *InterrogateUseCase) markFailed(ctx context.Context, id string, cause error) error {
	return uc.store.UpdateStatus(ctx, id, domain.SessionFailed, cause.Error())
}
