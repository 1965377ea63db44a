// Command ragroute is a small terminal chat over the routed retrieval
// engine. It answers from a local vector index seeded from a text file, the
// Brave web search API when BRAVE_API_KEY is set, and the configured NIM
// models for routing, rewriting and synthesis.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/engine"
	"github.com/smallnest/ragroute/history"
	"github.com/smallnest/ragroute/llm/nim"
	"github.com/smallnest/ragroute/source"
	"github.com/smallnest/ragroute/store"
)

var (
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	citationStyle = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func main() {
	var (
		docsPath  = flag.String("docs", "", "path to a text file indexed as the docs source (one chunk per paragraph)")
		threshold = flag.Float64("threshold", 0.5, "citation confidence threshold")
	)
	flag.Parse()

	if err := run(*docsPath, *threshold); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(docsPath string, threshold float64) error {
	llm, err := nim.New()
	if err != nil {
		return err
	}

	var connectors []ragroute.Connector
	if docsPath != "" {
		conn, err := buildDocsConnector(docsPath, llm)
		if err != nil {
			return err
		}
		connectors = append(connectors, conn)
	}
	if os.Getenv("BRAVE_API_KEY") != "" {
		brave, err := source.NewBraveConnector("")
		if err != nil {
			return err
		}
		connectors = append(connectors, brave)
	}
	if len(connectors) == 0 {
		fmt.Println(citationStyle.Render("no sources configured, answering from the model alone"))
	}

	eng := engine.New(llm,
		engine.WithConnectors(connectors...),
		engine.WithThreshold(threshold),
		engine.WithHistoryStore(history.NewMemoryStore()),
	)

	fmt.Println(promptStyle.Render("ragroute chat. Ctrl-D to quit."))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if err := askOnce(eng, query); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
		}
	}
	return scanner.Err()
}

func askOnce(eng *engine.Engine, query string) error {
	stream, err := eng.Ask(context.Background(), engine.Request{
		Query:     query,
		SessionID: "cli",
	})
	if err != nil {
		return err
	}
	defer stream.Cancel()

	for ev := range stream.Events {
		switch ev.Type {
		case ragroute.EventDelta:
			fmt.Print(answerStyle.Render(ev.Delta))
		case ragroute.EventCitations:
			fmt.Println()
			printCitations(ev.Citations)
		case ragroute.EventError:
			fmt.Println()
			return fmt.Errorf("%s", ev.Message)
		}
	}
	return nil
}

func printCitations(citations []ragroute.Citation) {
	if len(citations) == 0 {
		return
	}
	for i, c := range citations {
		label := c.Source
		if url, ok := c.Metadata["url"].(string); ok {
			label += " " + url
		}
		if c.Score != nil {
			label += fmt.Sprintf(" (%.2f)", *c.Score)
		}
		fmt.Println(citationStyle.Render(fmt.Sprintf("  [%d] %s", i+1, label)))
	}
}

// buildDocsConnector indexes the file's paragraphs into an in-memory vector
// store.
func buildDocsConnector(path string, embedder ragroute.Embedder) (ragroute.Connector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read docs file: %w", err)
	}

	var docs []ragroute.Document
	for i, para := range strings.Split(string(data), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		docs = append(docs, ragroute.Document{
			ID:       fmt.Sprintf("%s#%d", path, i),
			Content:  para,
			Metadata: map[string]any{"path": path},
		})
	}

	vs := store.NewMemoryStore(embedder)
	if err := vs.Add(context.Background(), docs); err != nil {
		return nil, fmt.Errorf("failed to index docs: %w", err)
	}
	fmt.Println(citationStyle.Render(fmt.Sprintf("indexed %d chunks from %s", len(docs), path)))

	return source.NewVectorConnector("docs", vs, embedder, 5), nil
}
