package interrogation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/ports"
)

// State names the phases of one interrogation session.
type State string

const (
	StateAskQuestion     State = "ask_question"
	StateGetAnswer       State = "get_answer"
	StateRefineReport    State = "refine_report"
	StateSaveTranscript  State = "save_transcript"
	StateWriteConclusion State = "write_conclusion"
	StateDone            State = "done"
)

// degradedAnswer stands in when the researcher cannot produce a response.
// The loop keeps going so the report still reflects the questions asked.
const degradedAnswer = "No response generated"

type sessionInput struct {
	UserQuery        string
	UserContext      string
	UserInstructions string
}

// Machine drives one session through the question/answer/refine cycle
// until the turn budget runs out or the interrogator signals confidence.
// It mutates the session in place; persistence is the caller's concern.
type Machine struct {
	generator   ports.Generator
	researcher  ports.Researcher
	termination *TerminationChecker
	logger      *slog.Logger
}

func NewMachine(generator ports.Generator, researcher ports.Researcher, termination *TerminationChecker, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		generator:   generator,
		researcher:  researcher,
		termination: termination,
		logger:      logger,
	}
}

// Run executes the session to completion. On return the session carries the
// transcript, the refined report, the formatted interrogation and the
// conclusion. Generator failures abort the run; researcher failures degrade
// the single turn and the loop continues.
func (m *Machine) Run(ctx context.Context, s *domain.Session) error {
	if s.TurnBudget <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "interrogation", fmt.Errorf("turn budget must be positive, got %d", s.TurnBudget))
	}

	var (
		state    = StateAskQuestion
		question string
		closing  string
	)
	for state != StateDone {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch state {
		case StateAskQuestion:
			next, terminal, err := m.nextQuestion(ctx, s)
			if err != nil {
				return err
			}
			if terminal || m.termination.IsTerminal(ctx, next) {
				closing = next
				state = StateSaveTranscript
				continue
			}
			question = next
			state = StateGetAnswer

		case StateGetAnswer:
			answer := m.answer(ctx, s.ID, question)
			s.Transcript = append(s.Transcript, domain.Turn{Question: question, Answer: answer})
			s.TurnsUsed++
			state = StateRefineReport

		case StateRefineReport:
			if err := m.refineReport(ctx, s); err != nil {
				return err
			}
			state = StateAskQuestion

		case StateSaveTranscript:
			s.Interrogation = FormatTranscript(s.Transcript, closing)
			state = StateWriteConclusion

		case StateWriteConclusion:
			conclusion, err := m.generator.GenerateFromPrompt(ctx,
				conclusionWriterSystemPrompt,
				render(conclusionWriterUserPrompt, map[string]string{
					"userQuery":            s.UserQuery,
					"userContext":          s.UserContext,
					"report":               s.Report,
					"interrogationSummary": closing,
				}),
			)
			if err != nil {
				return fmt.Errorf("write conclusion: %w", err)
			}
			s.Conclusion = conclusion
			state = StateDone
		}
	}
	return nil
}

// nextQuestion picks the prompt pair by position in the session. The final
// round does not ask anything: it produces the interrogator's closing
// summary, so terminal is true.
func (m *Machine) nextQuestion(ctx context.Context, s *domain.Session) (message string, terminal bool, err error) {
	remaining := s.TurnBudget - s.TurnsUsed
	vars := sessionVars(sessionInput{
		UserQuery:        s.UserQuery,
		UserContext:      s.UserContext,
		UserInstructions: s.UserInstructions,
	}, remaining)

	switch {
	case s.Report == "":
		message, err = m.generator.GenerateFromPrompt(ctx,
			render(firstQuestionSystemPrompt, vars),
			render(firstQuestionUserPrompt, vars),
		)
		if err != nil {
			err = fmt.Errorf("generate first question: %w", err)
		}
		return message, false, err

	case remaining <= 0:
		vars["report"] = s.Report
		vars["questions"] = questionList(s.Transcript)
		message, err = m.generator.GenerateFromPrompt(ctx,
			render(finalQuestionSystemPrompt, vars),
			render(finalQuestionUserPrompt, vars),
		)
		if err != nil {
			err = fmt.Errorf("generate final summary: %w", err)
		}
		return message, true, err

	default:
		vars["report"] = s.Report
		vars["questions"] = questionList(s.Transcript)
		message, err = m.generator.GenerateFromPrompt(ctx,
			render(followUpSystemPrompt, vars),
			render(followUpUserPrompt, vars),
		)
		if err != nil {
			err = fmt.Errorf("generate follow-up question: %w", err)
		}
		return message, false, err
	}
}

func (m *Machine) answer(ctx context.Context, sessionID, question string) string {
	evidence, err := m.researcher.Answer(ctx, question)
	if err != nil {
		m.logger.Warn("researcher_degraded", "session_id", sessionID, "error", err)
		return degradedAnswer
	}
	return evidence.Text
}

// refineReport creates the report from the whole conversation on the first
// turn; afterwards only the latest exchange is folded into the existing
// report, so refinement cost does not grow with transcript length.
func (m *Machine) refineReport(ctx context.Context, s *domain.Session) error {
	if s.Report == "" {
		report, err := m.generator.GenerateFromPrompt(ctx,
			reportWriterSystemPrompt,
			render(reportWriterUserPrompt, map[string]string{
				"userQuery":    s.UserQuery,
				"userContext":  s.UserContext,
				"conversation": FormatTranscript(s.Transcript, ""),
			}),
		)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		s.Report = report
		return nil
	}

	latest := s.Transcript[len(s.Transcript)-1]
	refined, err := m.generator.GenerateFromPrompt(ctx,
		reportRefinerSystemPrompt,
		render(reportRefinerUserPrompt, map[string]string{
			"userQuery":      s.UserQuery,
			"userContext":    s.UserContext,
			"conversation":   FormatTurn(latest),
			"existingReport": s.Report,
		}),
	)
	if err != nil {
		return fmt.Errorf("refine report: %w", err)
	}
	s.Report = refined
	return nil
}
