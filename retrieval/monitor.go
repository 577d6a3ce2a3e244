package retrieval

import (
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during retrieval.
type RetrievalMonitor interface {
	Start(query string)
	AfterVectorSearch(hits []storage.VectorHit)
	AfterKeywordSearch(hits []storage.KeywordHit)
	SignalDegraded(reason string, err error)
	AfterFusion(candidates []core.Candidate)
	AfterRerank(candidates []core.Candidate, skipped bool)
	AfterThreshold(kept []core.Candidate)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) AfterVectorSearch(_ []storage.VectorHit)       {}
func (n *noopMonitor) AfterKeywordSearch(_ []storage.KeywordHit)     {}
func (n *noopMonitor) SignalDegraded(_ string, _ error)              {}
func (n *noopMonitor) AfterFusion(_ []core.Candidate)                {}
func (n *noopMonitor) AfterRerank(_ []core.Candidate, _ bool)        {}
func (n *noopMonitor) AfterThreshold(_ []core.Candidate)             {}
func (n *noopMonitor) Finish(_ *Result)                              {}
