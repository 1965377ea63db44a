// Package engine wires the full question answering pipeline: classify the
// query, rewrite it for search, fan out to the routed source connectors,
// and stream a synthesized answer with filtered citations.
//
// One query moves through the states received, classified, rewritten,
// retrieving, synthesizing, streaming and finally done or error; each
// transition is logged under a per-request id. A NO_RETRIEVAL decision
// jumps straight from classified to synthesizing with empty context.
package engine
