// Package history persists conversation turns per session so follow-up
// queries can be rewritten and answered with context. Stores are append
// only; readers fetch the most recent N messages in chronological order.
// In-memory, Redis and SQLite implementations are provided.
package history
