// Package rewrite turns raw user queries into retrieval-friendly search
// text. A single LLM call de-contextualizes pronouns against recent
// conversation history, strips presentation instructions and expands
// acronyms. Rewriting is strictly best-effort: on any model failure the raw
// query is used unchanged, so a broken rewriter degrades retrieval quality
// but never blocks the pipeline.
package rewrite
