// Package retrieval fans a search query out to the selected source
// connectors and merges their results into one bounded context.
//
// The Orchestrator runs connectors concurrently with a per-source timeout
// inside an overall deadline, and always waits for every source. A source
// that errors or times out contributes nothing and is recorded as degraded;
// Retrieve itself never fails. Merging concatenates results in connector
// registration order, drops duplicate content by hash, and truncates to the
// configured item count and optional token budget.
package retrieval
