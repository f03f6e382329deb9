package search

import (
	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/storage"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(matches []storage.ScoredChunk)
	AfterDeduplication(results []*core.SearchResult)
	AfterRerank(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterVectorSearch(_ []storage.ScoredChunk)   {}
func (n *noopMonitor) AfterDeduplication(_ []*core.SearchResult)   {}
func (n *noopMonitor) AfterRerank(_ []*core.SearchResult)          {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)               {}
