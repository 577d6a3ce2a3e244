package retrieval

import (
	"sort"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

// fuse merges the two retrieval signals into deduplicated candidates.
// Scores are min-max normalized within each signal's returned set, so
// the weights compare relative standing, not raw scales: cosine
// similarity and BM25 are not commensurable. A chunk absent from one
// signal contributes 0 for it.
func fuse(vectorHits []storage.VectorHit, keywordHits []storage.KeywordHit, vectorWeight, keywordWeight float64) []core.Candidate {
	byChunk := make(map[core.ChunkID]*core.Candidate, len(vectorHits)+len(keywordHits))

	vectorLo, vectorHi := scoreRange(len(vectorHits), func(i int) float64 { return vectorHits[i].Score })
	for _, hit := range vectorHits {
		byChunk[hit.Chunk] = &core.Candidate{
			Chunk:       hit.Chunk,
			Document:    hit.Document,
			Ordinal:     hit.Ordinal,
			Section:     hit.Section,
			Text:        hit.Text,
			TokenCount:  hit.TokenCount,
			VectorScore: normalizeScore(hit.Score, vectorLo, vectorHi),
		}
	}

	keywordLo, keywordHi := scoreRange(len(keywordHits), func(i int) float64 { return keywordHits[i].Score })
	for _, hit := range keywordHits {
		score := normalizeScore(hit.Score, keywordLo, keywordHi)
		if existing, ok := byChunk[hit.Chunk]; ok {
			existing.KeywordScore = score
			continue
		}
		byChunk[hit.Chunk] = &core.Candidate{
			Chunk:        hit.Chunk,
			Document:     hit.Document,
			Ordinal:      hit.Ordinal,
			Section:      hit.Section,
			Text:         hit.Text,
			TokenCount:   hit.TokenCount,
			KeywordScore: score,
		}
	}

	candidates := make([]core.Candidate, 0, len(byChunk))
	for _, candidate := range byChunk {
		candidate.FusedScore = vectorWeight*candidate.VectorScore + keywordWeight*candidate.KeywordScore
		candidates = append(candidates, *candidate)
	}
	return candidates
}

func scoreRange(n int, at func(int) float64) (lo, hi float64) {
	if n == 0 {
		return 0, 0
	}
	lo, hi = at(0), at(0)
	for i := 1; i < n; i++ {
		score := at(i)
		if score < lo {
			lo = score
		}
		if score > hi {
			hi = score
		}
	}
	return lo, hi
}

// normalizeScore maps a raw score into [0, 1] within its signal's set.
// A degenerate set, single element or all-equal scores, normalizes to 1
// so the signal still contributes its full weight.
func normalizeScore(score, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return (score - lo) / (hi - lo)
}

// sortCandidates orders by fused score descending, then document
// ingestion time descending, then chunk ID ascending. The full chain is
// deterministic for any input.
func sortCandidates(candidates []core.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}
		if !candidates[i].IngestedAt.Equal(candidates[j].IngestedAt) {
			return candidates[i].IngestedAt.After(candidates[j].IngestedAt)
		}
		return candidates[i].Chunk < candidates[j].Chunk
	})
}

// governingScore is the score the threshold gate and context assembly
// judge a candidate by.
func governingScore(c core.Candidate) float64 {
	if c.Reranked {
		return c.RerankScore
	}
	return c.FusedScore
}
