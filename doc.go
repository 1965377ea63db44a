// ragroute - Query Routing and Multi-Source Retrieval for RAG in Go
//
// ragroute is a thin coordination library for Retrieval-Augmented Generation:
// it decides whether a user query needs retrieval at all, rewrites the query
// into a search-friendly form, fans it out concurrently to heterogeneous
// sources (vector stores, web search, answer engines), merges and truncates
// the results, and streams a cited answer from an LLM.
//
// The heavy lifting (vector indexing, similarity search, inference) stays in
// external services; ragroute only orchestrates the calls.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/ragroute
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/ragroute/engine"
//		"github.com/smallnest/ragroute/source"
//		"github.com/smallnest/ragroute/store"
//		"github.com/tmc/langchaingo/llms/openai"
//	)
//
//	func main() {
//		llm, _ := openai.New()
//
//		embedder := store.NewMockEmbedder(128)
//		vs := store.NewMemoryStore(embedder)
//		eng := engine.New(llm,
//			engine.WithConnectors(
//				source.NewVectorConnector("docs", vs, embedder, 5),
//			),
//		)
//
//		stream, _ := eng.Ask(context.Background(), engine.Request{
//			Query: "What is the capital of France?",
//		})
//		for ev := range stream.Events {
//			fmt.Print(ev.Delta)
//		}
//	}
//
// # Packages
//
//   - router: LLM-backed query classification (retrieve or not, which sources)
//   - rewrite: query rewriting for keyword search engines
//   - source: source connectors (vector store, Brave web search, answer engine)
//   - store: vector store implementations (in-memory, pgvector)
//   - retrieval: concurrent fan-out, merge, dedupe and truncation
//   - synthesize: streaming answer generation with citations
//   - engine: the end-to-end Ask pipeline
//   - history: conversation history stores (memory, Redis, SQLite)
//   - server: SSE chat endpoint over the engine
//   - llm/nim: NVIDIA NIM model and embedding client
//
// The root package holds the shared data model: conversation messages,
// retrieval results, merged context, citations and stream events.
package ragroute
