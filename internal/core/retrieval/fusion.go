package retrieval

import (
	"math"
	"sort"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

type fusedCandidate struct {
	doc      domain.Document
	score    float64
	bestRank int
	order    int
}

// Fuse merges two backend-local ranked lists into one deduplicated candidate
// set. Each list contributes weight*sqrt(L-rank) for a document at 0-based
// rank in a list of length L; a document absent from a list contributes zero
// from it. The concave reward favours documents ranked well in both lists
// over documents excellent in one and poor in the other. Ties are broken by
// the earliest rank position across either input list, then by first-seen
// order (the lexical list is walked first).
func Fuse(lexical, semantic domain.RankedList, lexWeight, vecWeight float64, topK int) domain.RankedList {
	acc := make(map[string]*fusedCandidate, len(lexical)+len(semantic))
	order := 0

	addList := func(list domain.RankedList, weight float64) {
		length := len(list)
		for rank, rd := range list {
			key := rd.Document.DedupKey()
			cand, ok := acc[key]
			if !ok {
				cand = &fusedCandidate{doc: rd.Document, bestRank: rank, order: order}
				order++
				acc[key] = cand
			} else {
				cand.doc = mergeMetadata(cand.doc, rd.Document)
				if rank < cand.bestRank {
					cand.bestRank = rank
				}
			}
			cand.score += weight * math.Sqrt(float64(length-rank))
		}
	}

	addList(lexical, lexWeight)
	addList(semantic, vecWeight)

	out := make([]*fusedCandidate, 0, len(acc))
	for _, cand := range acc {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].bestRank != out[j].bestRank {
			return out[i].bestRank < out[j].bestRank
		}
		return out[i].order < out[j].order
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}

	fused := make(domain.RankedList, 0, len(out))
	for _, cand := range out {
		doc := cand.doc.WithMeta(domain.MetaFusedScore, formatScore(cand.score))
		fused = append(fused, domain.RankedDocument{Document: doc, Score: cand.score})
	}
	return fused
}

// mergeMetadata keeps the first-seen document and fills in transient scoring
// fields contributed by the other list.
func mergeMetadata(current, candidate domain.Document) domain.Document {
	for _, key := range []string{domain.MetaLexicalScore, domain.MetaVectorScore} {
		if v, ok := candidate.Metadata[key]; ok {
			if _, exists := current.Metadata[key]; !exists {
				current = current.WithMeta(key, v)
			}
		}
	}
	return current
}
