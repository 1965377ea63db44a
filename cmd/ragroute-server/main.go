// Command ragroute-server runs the HTTP front end: POST /ask streaming
// answers over SSE and GET /health. Sources are configured through the
// environment; with no source configured the server still answers, from
// the model alone.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kataras/golog"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/engine"
	"github.com/smallnest/ragroute/history"
	"github.com/smallnest/ragroute/llm/nim"
	"github.com/smallnest/ragroute/log"
	"github.com/smallnest/ragroute/server"
	"github.com/smallnest/ragroute/source"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "listen address")
		threshold   = flag.Float64("threshold", 0.5, "citation confidence threshold")
		historyPath = flag.String("history", "", "SQLite path for conversation history, empty for in-memory")
	)
	flag.Parse()

	logger := log.NewGologLogger(golog.Default)
	log.SetDefaultLogger(logger)

	llm, err := nim.New()
	if err != nil {
		logger.Error("failed to create NIM client: %v", err)
		os.Exit(1)
	}

	var connectors []ragroute.Connector
	if os.Getenv("BRAVE_API_KEY") != "" {
		brave, err := source.NewBraveConnector("")
		if err != nil {
			logger.Error("failed to create brave connector: %v", err)
			os.Exit(1)
		}
		connectors = append(connectors, brave)
		logger.Info("web search source enabled")
	}

	var histories history.Store = history.NewMemoryStore()
	if *historyPath != "" {
		sqlite, err := history.NewSqliteStore(history.SqliteOptions{Path: *historyPath})
		if err != nil {
			logger.Error("failed to open history database: %v", err)
			os.Exit(1)
		}
		defer sqlite.Close()
		histories = sqlite
	}

	eng := engine.New(llm,
		engine.WithConnectors(connectors...),
		engine.WithThreshold(*threshold),
		engine.WithHistoryStore(histories),
	)

	srv := &http.Server{
		Addr:    *addr,
		Handler: server.New(eng).Handler(),
	}

	go func() {
		logger.Info("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed: %v", err)
	}
}
