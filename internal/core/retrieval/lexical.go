package retrieval

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalRanker scores documents with Okapi BM25 over an in-memory corpus
// snapshot. Raw BM25 scores are unbounded; with sigmoid enabled they are
// squashed to (0,1) so they stay comparable to cosine scores before fusion.
type LexicalRanker struct {
	sigmoid bool
}

func NewLexicalRanker(sigmoid bool) *LexicalRanker {
	return &LexicalRanker{sigmoid: sigmoid}
}

// Score ranks the corpus against the query, drops documents scoring at or
// below threshold and truncates to topK. An empty corpus yields an empty
// list rather than an error.
func (r *LexicalRanker) Score(corpus []domain.Document, query string, topK int, threshold float64) domain.RankedList {
	if len(corpus) == 0 {
		return domain.RankedList{}
	}

	tokenized := make([][]string, len(corpus))
	totalLen := 0
	for i, doc := range corpus {
		tokenized[i] = tokenizeAlphaNumLower(doc.Content)
		totalLen += len(tokenized[i])
	}
	avgLen := float64(totalLen) / float64(len(corpus))
	if avgLen <= 0 {
		avgLen = 1
	}

	// Document frequency per term.
	df := make(map[string]int, 256)
	for _, tokens := range tokenized {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	queryTokens := tokenizeAlphaNumLower(query)
	n := float64(len(corpus))

	scored := make(domain.RankedList, 0, len(corpus))
	for i, doc := range corpus {
		tf := make(map[string]int, len(tokenized[i]))
		for _, tok := range tokenized[i] {
			tf[tok]++
		}
		docLen := float64(len(tokenized[i]))

		score := 0.0
		for _, tok := range queryTokens {
			freq := float64(tf[tok])
			if freq == 0 {
				continue
			}
			idf := math.Log(1.0 + (n-float64(df[tok])+0.5)/(float64(df[tok])+0.5))
			norm := freq * (bm25K1 + 1.0) / (freq + bm25K1*(1.0-bm25B+bm25B*docLen/avgLen))
			score += idf * norm
		}
		if r.sigmoid {
			score = sigmoid(score)
		}
		if score <= threshold {
			continue
		}

		tagged := doc.
			WithMeta(domain.MetaRetrieverTag, "bm25_retriever").
			WithMeta(domain.MetaLexicalScore, formatScore(score))
		scored = append(scored, domain.RankedDocument{Document: tagged, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.6f", score)
}

func tokenizeAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
