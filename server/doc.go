// Package server exposes the engine over HTTP. POST /ask streams the
// answer as server-sent events (delta frames, one citations frame, a
// [DONE] marker); with streaming disabled it returns a single JSON
// document, optionally with the answer rendered to HTML. Incoming text is
// sanitized before it reaches the pipeline.
package server
