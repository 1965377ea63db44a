// Package synthesize turns a merged retrieval context into a streamed
// answer. The Synthesizer packs context chunks into the model's token
// window, folds in recent conversation history, and streams the completion
// as delta events followed by a terminal citations event. A failure after
// streaming has begun is reported as a terminal error event; deltas already
// emitted stay emitted.
package synthesize
