// Package router decides whether a query needs retrieval at all and, when it
// does, which source connectors to consult.
//
// The Classifier makes a single constrained LLM call emitting a source list
// ("none", "all", or comma-separated source names). Malformed output is
// reissued once; if the second attempt is also malformed the classifier fails
// open and routes to every source, so a flaky routing model costs extra
// retrieval work rather than a lost answer. Classify never returns an error.
//
// An optional Cache short-circuits the LLM call for queries that were
// classified recently. In-memory and Redis-backed implementations are
// provided.
package router
