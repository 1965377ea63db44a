// Package store provides vector store implementations for ragroute.
//
// Two implementations are included:
//
//   - MemoryStore: an in-memory cosine-similarity store, useful for tests,
//     examples and small corpora
//   - PgvectorStore: a PostgreSQL store using the pgvector extension
//
// Both satisfy ragroute.VectorStore. Embeddings are computed by a
// ragroute.Embedder, either at Add time (when documents carry no embedding)
// or by the caller.
//
// Example:
//
//	embedder := store.NewMockEmbedder(128)
//	vs := store.NewMemoryStore(embedder)
//	_ = vs.Add(ctx, []ragroute.Document{{ID: "d1", Content: "..."}})
//
//	queryEmb, _ := embedder.EmbedDocument(ctx, "what is ...?")
//	results, _ := vs.Search(ctx, queryEmb, 5)
package store
