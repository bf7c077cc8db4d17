package domain

import (
	"sort"
	"strings"
)

// OriginalSpanMarker tags chunks that carry unmodified source text. Chunks
// built as ancestor/descendant context wrappers do not carry it and are
// never eligible for reranking.
const OriginalSpanMarker = "--- ORIGINAL SPAN OF THE DOCUMENT ---"

// Metadata keys attached to a ranked document during a single query's
// lifetime. They are never written back to the index.
const (
	MetaLexicalScore = "lexical_score"
	MetaVectorScore  = "vector_score"
	MetaFusedScore   = "fused_score"
	MetaRerankScore  = "rerank_score"
	MetaRetrieverTag = "retriever_tag"
)

type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsOriginalSpan reports whether the document content is an original,
// unsynthesized span of source material.
func (d Document) IsOriginalSpan() bool {
	return strings.Contains(d.Content, OriginalSpanMarker)
}

// DedupKey identifies a document across ranked lists: content plus metadata
// minus the transient scoring fields.
func (d Document) DedupKey() string {
	if len(d.Metadata) == 0 {
		return d.Content
	}

	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		if isScoringField(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(d.Content)
	for _, k := range keys {
		b.WriteString("\x1f")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(d.Metadata[k])
	}
	return b.String()
}

func isScoringField(key string) bool {
	switch key {
	case MetaLexicalScore, MetaVectorScore, MetaFusedScore, MetaRerankScore, MetaRetrieverTag:
		return true
	default:
		return false
	}
}

// WithMeta returns a copy of the document with one transient metadata field set.
func (d Document) WithMeta(key, value string) Document {
	meta := make(map[string]string, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[key] = value
	return Document{Content: d.Content, Metadata: meta}
}

// RankedDocument pairs a document with a backend-local, non-negative score.
type RankedDocument struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// RankedList is ordered by descending score; ties keep first-seen order so
// downstream fusion stays deterministic.
type RankedList []RankedDocument

func (l RankedList) Documents() []Document {
	out := make([]Document, 0, len(l))
	for _, rd := range l {
		out = append(out, rd.Document)
	}
	return out
}
