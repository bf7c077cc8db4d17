package ollama

import (
	"strings"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/interrogation"
)

const researcherSystemPrompt = `You are a legal researcher, responsible for providing accurate, well-supported legal information based strictly on the retrieved context.

### Guidelines for Answering:
1. Strictly use the provided context. Do not introduce external information or make assumptions beyond what is explicitly stated.
2. If the context includes sources, cite them using numbered references [1], [2], etc.
3. Whenever possible, include direct quotes from the original context in your references to justify your claim. Enclose these quotes in quotation marks ("").
4. For each reference, specify how to locate the relevant information in the original text: clause number, page number, section name, or any other locating indicator.
5. At the end of your response, list all cited sources in a structured format.
6. Use Markdown formatting to structure your response clearly.
7. Acknowledge limitations of the information provided. If the context is insufficient to answer, say so explicitly.
8. When there are conflicting legal perspectives, present both sides and indicate their implications.
9. Only assert what the context supports. No extrapolation or speculation.`

func buildResearchPrompt(question string, docs domain.RankedList) string {
	var b strings.Builder
	b.WriteString("You have been asked to assist in answering a legal question by providing research-based information.\n\n")
	b.WriteString("### Legal Question:\n<question>\n")
	b.WriteString(question)
	b.WriteString("\n</question>\n\n")
	b.WriteString("### Available Context:\nBelow is the relevant legal context retrieved from authoritative sources to assist in answering this question.\n\n")
	b.WriteString("<context>\n")
	b.WriteString(interrogation.FormatDocuments(docs))
	b.WriteString("\n</context>\n\n")
	b.WriteString("### Instructions for Your Response:\n")
	b.WriteString("- Use only the provided context to formulate your answer.\n")
	b.WriteString("- Provide a well-structured legal response, including reasoning, legal principles, and relevant citations.\n")
	b.WriteString("- If the context includes legal sources, cite them using [1], [2], etc., and include a source list at the end.\n")
	b.WriteString("- If the context lacks sufficient detail to answer conclusively, state this and suggest areas for further inquiry.\n\n")
	b.WriteString("Now, please provide your response based on the available context.")
	return b.String()
}
