package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

func TestFuseMergesSignals(t *testing.T) {
	doc := core.NewDocumentID()
	vectorHits := []storage.VectorHit{
		{Chunk: 1, Document: doc, Text: "alpha", Score: 0.9},
		{Chunk: 2, Document: doc, Text: "beta", Score: 0.5},
	}
	keywordHits := []storage.KeywordHit{
		{Chunk: 2, Document: doc, Text: "beta", Score: 4.0},
		{Chunk: 3, Document: doc, Text: "gamma", Score: 2.0},
	}

	candidates := fuse(vectorHits, keywordHits, 0.7, 0.3)
	require.Len(t, candidates, 3)

	byChunk := make(map[core.ChunkID]core.Candidate)
	for _, c := range candidates {
		byChunk[c.Chunk] = c
	}

	// Chunk 1: top of the vector set, absent from keywords.
	assert.InDelta(t, 1.0, byChunk[1].VectorScore, 1e-9)
	assert.InDelta(t, 0.0, byChunk[1].KeywordScore, 1e-9)
	assert.InDelta(t, 0.7, byChunk[1].FusedScore, 1e-9)

	// Chunk 2: bottom of the vector set, top of the keyword set.
	assert.InDelta(t, 0.0, byChunk[2].VectorScore, 1e-9)
	assert.InDelta(t, 1.0, byChunk[2].KeywordScore, 1e-9)
	assert.InDelta(t, 0.3, byChunk[2].FusedScore, 1e-9)

	// Chunk 3: keyword-only, bottom of its set.
	assert.InDelta(t, 0.0, byChunk[3].FusedScore, 1e-9)
}

func TestFuseDegenerateSetNormalizesToOne(t *testing.T) {
	doc := core.NewDocumentID()

	// Single-element set: the lone hit takes the full signal weight.
	candidates := fuse([]storage.VectorHit{{Chunk: 1, Document: doc, Score: 0.123}}, nil, 0.7, 0.3)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 1.0, candidates[0].VectorScore, 1e-9)
	assert.InDelta(t, 0.7, candidates[0].FusedScore, 1e-9)

	// All-equal scores normalize to 1 as well.
	candidates = fuse(nil, []storage.KeywordHit{
		{Chunk: 1, Document: doc, Score: 2.5},
		{Chunk: 2, Document: doc, Score: 2.5},
	}, 0.7, 0.3)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.InDelta(t, 0.3, c.FusedScore, 1e-9)
	}
}

func TestFuseWeightBoundaries(t *testing.T) {
	doc := core.NewDocumentID()
	vectorHits := []storage.VectorHit{{Chunk: 1, Document: doc, Score: 0.9}}
	keywordHits := []storage.KeywordHit{{Chunk: 2, Document: doc, Score: 3.0}}

	// All weight on the vector signal: keyword-only hits score zero.
	candidates := fuse(vectorHits, keywordHits, 1.0, 0.0)
	byChunk := make(map[core.ChunkID]core.Candidate)
	for _, c := range candidates {
		byChunk[c.Chunk] = c
	}
	assert.InDelta(t, 1.0, byChunk[1].FusedScore, 1e-9)
	assert.InDelta(t, 0.0, byChunk[2].FusedScore, 1e-9)

	// And the mirror case.
	candidates = fuse(vectorHits, keywordHits, 0.0, 1.0)
	byChunk = make(map[core.ChunkID]core.Candidate)
	for _, c := range candidates {
		byChunk[c.Chunk] = c
	}
	assert.InDelta(t, 0.0, byChunk[1].FusedScore, 1e-9)
	assert.InDelta(t, 1.0, byChunk[2].FusedScore, 1e-9)
}

func TestFuseKeywordHitKeepsAttribution(t *testing.T) {
	doc := core.NewDocumentID()
	keywordHits := []storage.KeywordHit{
		{Chunk: 7, Document: doc, Ordinal: 3, Section: "Refunds", Text: "refund text", TokenCount: 42, Score: 1.0},
	}

	candidates := fuse(nil, keywordHits, 0.7, 0.3)
	require.Len(t, candidates, 1)
	assert.Equal(t, doc, candidates[0].Document)
	assert.Equal(t, 3, candidates[0].Ordinal)
	assert.Equal(t, "Refunds", candidates[0].Section)
	assert.Equal(t, "refund text", candidates[0].Text)
	assert.Equal(t, 42, candidates[0].TokenCount)
}

func TestSortCandidatesTieBreaks(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	candidates := []core.Candidate{
		{Chunk: 4, FusedScore: 0.5, IngestedAt: older},
		{Chunk: 3, FusedScore: 0.5, IngestedAt: newer},
		{Chunk: 2, FusedScore: 0.5, IngestedAt: newer},
		{Chunk: 1, FusedScore: 0.9, IngestedAt: older},
	}
	sortCandidates(candidates)

	// Fused first, then fresher documents, then chunk ID.
	assert.Equal(t, core.ChunkID(1), candidates[0].Chunk)
	assert.Equal(t, core.ChunkID(2), candidates[1].Chunk)
	assert.Equal(t, core.ChunkID(3), candidates[2].Chunk)
	assert.Equal(t, core.ChunkID(4), candidates[3].Chunk)
}

func TestGoverningScore(t *testing.T) {
	assert.Equal(t, 0.4, governingScore(core.Candidate{FusedScore: 0.4}))
	assert.Equal(t, 0.9, governingScore(core.Candidate{FusedScore: 0.4, RerankScore: 0.9, Reranked: true}))
}
