package interrogation

import (
	"strconv"
	"strings"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

const (
	interrogatorRole = "Legal Interrogator"
	researcherRole   = "Legal Researcher"

	turnSeparator = "\n\n---\n\n"
)

// FormatTranscript renders the question/answer exchange with role headings.
// A non-empty closing statement (the interrogator's final summary) is
// appended as a trailing interrogator block.
func FormatTranscript(turns []domain.Turn, closing string) string {
	blocks := make([]string, 0, len(turns)*2+1)
	for _, turn := range turns {
		blocks = append(blocks, "**"+interrogatorRole+":**\n"+turn.Question)
		blocks = append(blocks, "**"+researcherRole+":**\n"+turn.Answer)
	}
	if closing != "" {
		blocks = append(blocks, "**"+interrogatorRole+":**\n"+closing)
	}
	return strings.Join(blocks, turnSeparator)
}

// FormatTurn renders a single exchange, used for report refinement where
// only the latest turn is new information.
func FormatTurn(turn domain.Turn) string {
	return FormatTranscript([]domain.Turn{turn}, "")
}

// FormatDocuments wraps retrieved documents in <Document> tags with their
// locating metadata as attributes, for inclusion in researcher prompts.
func FormatDocuments(docs domain.RankedList) string {
	if len(docs) == 0 {
		return "No documents were retrieved."
	}

	var b strings.Builder
	b.WriteString("<Documents>\n")
	for i, rd := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		meta := rd.Document.Metadata

		b.WriteString(`<Document index="`)
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('"')
		href := meta["source"]
		if href == "" {
			href = meta["url"]
		}
		if href != "" {
			b.WriteString(` href="` + href + `"`)
		}
		if title := meta["title"]; title != "" {
			b.WriteString(` title="` + title + `"`)
		}
		retriever := meta[domain.MetaRetrieverTag]
		if retriever == "" {
			retriever = "unknown"
		}
		b.WriteString(` retriever="` + retriever + `"`)
		b.WriteString("/>\n")

		b.WriteString(rd.Document.Content)
		b.WriteString("\n</Document>")
	}
	b.WriteString("\n</Documents>")
	return b.String()
}

func questionList(turns []domain.Turn) string {
	questions := make([]string, 0, len(turns))
	for _, turn := range turns {
		questions = append(questions, turn.Question)
	}
	return strings.Join(questions, "\n")
}
