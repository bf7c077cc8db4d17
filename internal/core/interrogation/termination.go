package interrogation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corpusjuris/interrogator/internal/core/ports"
)

// TerminationPhrase is the confidence statement the interrogator emits when
// it decides no further questions are needed. The wording is part of the
// contract with the question prompts and must not drift.
const TerminationPhrase = "Thank you, I am now in a position to answer the question with confidence."

// DefaultTerminationSimilarity catches paraphrases of the phrase that a
// substring match misses.
const DefaultTerminationSimilarity = 0.9

// TerminationChecker decides whether an interrogator message ends the
// session early. Literal containment of the phrase always terminates;
// otherwise a sentence-similarity score against the phrase is compared to
// the threshold.
type TerminationChecker struct {
	scorer    ports.SimilarityScorer
	threshold float64
	logger    *slog.Logger
}

func NewTerminationChecker(scorer ports.SimilarityScorer, threshold float64, logger *slog.Logger) *TerminationChecker {
	if threshold <= 0 {
		threshold = DefaultTerminationSimilarity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TerminationChecker{scorer: scorer, threshold: threshold, logger: logger}
}

// IsTerminal reports whether the message signals confident completion. A
// similarity backend failure is logged and treated as non-terminal, so the
// session falls back to running out its turn budget.
func (c *TerminationChecker) IsTerminal(ctx context.Context, message string) bool {
	if strings.Contains(message, TerminationPhrase) {
		return true
	}
	if c == nil || c.scorer == nil {
		return false
	}
	score, err := c.scorer.Similarity(ctx, message, TerminationPhrase)
	if err != nil {
		c.logger.Warn("termination_similarity_unavailable", "error", err)
		return false
	}
	return score >= c.threshold
}
