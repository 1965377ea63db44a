package retrieval

import (
	"crypto/sha256"
	"sort"

	"github.com/smallnest/ragroute"
)

// merge deduplicates results by content hash, truncates to maxItems dropping
// the least useful items first, then applies the token budget in order.
// Input order is connector registration order and is preserved for the
// survivors. Merging is idempotent: merging an already merged set changes
// nothing.
func (o *Orchestrator) merge(results []ragroute.RetrievalResult) ragroute.MergedContext {
	deduped := dedupe(results)
	truncated := o.truncate(deduped)
	budgeted := o.applyTokenBudget(truncated)
	return ragroute.MergedContext{Results: budgeted}
}

// dedupe keeps the first occurrence of each content hash. Scores are not
// compared across duplicates; the earlier source wins.
func dedupe(results []ragroute.RetrievalResult) []ragroute.RetrievalResult {
	seen := make(map[[sha256.Size]byte]bool, len(results))
	out := make([]ragroute.RetrievalResult, 0, len(results))
	for _, r := range results {
		hash := sha256.Sum256([]byte(r.Content))
		if seen[hash] {
			continue
		}
		seen[hash] = true
		out = append(out, r)
	}
	return out
}

// truncate keeps at most maxItems results. Scored items are kept over
// unscored ones, higher scores over lower; among ties the earlier item
// wins. Scores are source-local, so this comparison is a known
// simplification rather than a cross-source ranking.
func (o *Orchestrator) truncate(results []ragroute.RetrievalResult) []ragroute.RetrievalResult {
	if o.maxItems <= 0 || len(results) <= o.maxItems {
		return results
	}

	indices := make([]int, len(results))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return keepBefore(results[indices[a]], results[indices[b]])
	})

	kept := make(map[int]bool, o.maxItems)
	for _, idx := range indices[:o.maxItems] {
		kept[idx] = true
	}

	out := make([]ragroute.RetrievalResult, 0, o.maxItems)
	for i, r := range results {
		if kept[i] {
			out = append(out, r)
		}
	}
	return out
}

// keepBefore reports whether a survives truncation in preference to b.
func keepBefore(a, b ragroute.RetrievalResult) bool {
	switch {
	case a.Score == nil && b.Score == nil:
		return false // stable sort keeps the earlier item first
	case b.Score == nil:
		return true
	case a.Score == nil:
		return false
	default:
		return *a.Score > *b.Score
	}
}

// applyTokenBudget walks results in order and drops everything past the
// point where the accumulated token count would exceed the budget.
func (o *Orchestrator) applyTokenBudget(results []ragroute.RetrievalResult) []ragroute.RetrievalResult {
	if o.tokenBudget <= 0 || o.counter == nil {
		return results
	}

	used := 0
	for i, r := range results {
		used += o.counter.Count(r.Content)
		if used > o.tokenBudget {
			o.logger.Debug("token budget %d reached, keeping %d of %d results", o.tokenBudget, i, len(results))
			return results[:i]
		}
	}
	return results
}
