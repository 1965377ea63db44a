// Package nim provides a langchaingo model and an embedder backed by the
// NVIDIA NIM inference endpoints, which expose an OpenAI-compatible API.
// One client serves chat completion (streaming and non-streaming) and text
// embedding; retrieval and synthesis can share it or use separate instances
// with different models.
package nim
