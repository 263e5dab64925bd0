package search

import (
	"github.com/poiesic/lexis/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// All hooks are called from the goroutine that called Search.
type SearchMonitor interface {
	Start(query *core.Query)
	AfterSemanticSearch(ids []string)
	AfterKeywordSearch(ids []string)
	StrategyFailed(strategy core.Strategy, err error)
	AfterRanking(results []*core.SearchResult)
	Finish(response *core.SearchResponse)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.Query)                     {}
func (n *noopMonitor) AfterSemanticSearch(_ []string)          {}
func (n *noopMonitor) AfterKeywordSearch(_ []string)           {}
func (n *noopMonitor) StrategyFailed(_ core.Strategy, _ error) {}
func (n *noopMonitor) AfterRanking(_ []*core.SearchResult)     {}
func (n *noopMonitor) Finish(_ *core.SearchResponse)           {}
