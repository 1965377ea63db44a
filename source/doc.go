// Package source provides the concrete source connectors ragroute retrieves
// from. Every connector implements ragroute.Connector: a name plus a single
// Retrieve call returning ranked results.
//
// Included connectors:
//
//   - VectorConnector: embeds the query and runs similarity search against a
//     ragroute.VectorStore (scores on the store's own scale)
//   - BraveConnector: the Brave web search REST API; results carry no score
//     because Brave reports rank order, not confidence
//   - AnswerConnector: an answer engine in the style of Perplexity, asking a
//     chat model to answer the search query directly and returning a single
//     result with a fixed mid-scale score
//
// Connectors never retry and never enforce their own deadlines beyond
// honoring ctx; the retrieval orchestrator owns per-source timeouts and
// treats a failed connector as degraded rather than fatal.
package source
