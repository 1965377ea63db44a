package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/engine"
	"github.com/smallnest/ragroute/log"
)

// Server serves the engine over HTTP.
type Server struct {
	engine    *engine.Engine
	sanitizer *bluemonday.Policy
	logger    log.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server around eng.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    eng,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// askRequest is the POST /ask body.
type askRequest struct {
	Query     string             `json:"query"`
	SessionID string             `json:"session_id,omitempty"`
	History   []ragroute.Message `json:"history,omitempty"`
	Sources   []string           `json:"sources,omitempty"`
	Threshold *float64           `json:"threshold,omitempty"`
	// Stream selects SSE output. Defaults to true.
	Stream *bool `json:"stream,omitempty"`
	// HTML requests a rendered HTML version of the answer in
	// non-streaming responses.
	HTML bool `json:"html,omitempty"`
}

// askResponse is the non-streaming POST /ask body.
type askResponse struct {
	Answer    string              `json:"answer"`
	HTML      string              `json:"html,omitempty"`
	Citations []ragroute.Citation `json:"citations"`
	Error     string              `json:"error,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	// Strip any markup from caller-supplied text before it reaches the
	// prompts.
	query := s.sanitizer.Sanitize(req.Query)
	history := make([]ragroute.Message, 0, len(req.History))
	for _, msg := range req.History {
		history = append(history, ragroute.Message{
			Role:    msg.Role,
			Content: s.sanitizer.Sanitize(msg.Content),
		})
	}
	if len(history) == 0 {
		history = nil
	}

	stream, err := s.engine.Ask(r.Context(), engine.Request{
		Query:       query,
		SessionID:   req.SessionID,
		History:     history,
		SourceHints: req.Sources,
		Threshold:   req.Threshold,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer stream.Cancel()

	if req.Stream == nil || *req.Stream {
		s.writeSSE(w, stream)
		return
	}
	s.writeJSON(w, stream, req.HTML)
}

// writeSSE relays stream events as data: frames, ending with [DONE].
func (s *Server) writeSSE(w http.ResponseWriter, stream *ragroute.Stream) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range stream.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to marshal event: %v", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// writeJSON drains the stream and responds once.
func (s *Server) writeJSON(w http.ResponseWriter, stream *ragroute.Stream, renderHTML bool) {
	answer, citations, errMsg := stream.Drain()
	if citations == nil {
		citations = []ragroute.Citation{}
	}

	resp := askResponse{
		Answer:    answer,
		Citations: citations,
		Error:     errMsg,
	}
	if renderHTML && answer != "" {
		resp.HTML = string(markdown.ToHTML([]byte(answer), nil, nil))
	}

	w.Header().Set("Content-Type", "application/json")
	if errMsg != "" {
		w.WriteHeader(http.StatusBadGateway)
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
