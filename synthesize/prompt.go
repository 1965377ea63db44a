package synthesize

import (
	"fmt"
	"strings"

	"github.com/smallnest/ragroute"
)

// systemPromptTemplate is filled with the packed context string, the
// rendered history and the user query.
const systemPromptTemplate = `You are a helpful agent. Follow all the instructions below EVERY TIME.
- Never start your answers with "As an AI language model" when responding to questions. Avoid writing a disclaimer.
- Keep the responses brief and to the point, avoid extra words and overly long explanations.
- If you don't know the answer, just say you don't know. Do NOT make up answers if they are not supported by data supplied to you.
- Your answers should be on point, succinct and useful. Each response should be written with maximum usefulness in mind rather than being polite.
- When creating a table, make sure to only include 1-2 sentences or less in each table cell.
- When creating a Markdown table, always make sure to use correct formatting.
- When date metadata like year or month is available, prefer to use information that is newer.
- AVOID creating large whitespace. Do NOT create excess whitespace.
- ONLY create a table if the user asks for one. Do NOT create a table if the user does not ask for one.

Here are the relevant documents for the context:

%s

Additionally, here is the previous conversation history with the user:

%s

Instruction: Based on the above documents and instructions, provide a detailed answer for the user question below or engage them in dialogue.

%s`

// buildPrompt assembles the final prompt. Context chunks are packed in
// merge order until the window would overflow, counting the prompt shell,
// the chunks so far and the generation reserve; remaining chunks are
// dropped whole.
func (s *Synthesizer) buildPrompt(query string, history []ragroute.Message, merged ragroute.MergedContext) string {
	historyStr := s.historyString(history)

	shell := fmt.Sprintf(systemPromptTemplate, "", historyStr, query)
	used := s.counter.Count(shell) + s.maxGenerated

	var context strings.Builder
	for i, r := range merged.Results {
		chunk := renderChunk(i, r)
		chunkTokens := s.counter.Count(chunk)
		if used+chunkTokens > s.contextWindow {
			s.logger.Debug("context window %d reached, dropping %d of %d chunks",
				s.contextWindow, len(merged.Results)-i, len(merged.Results))
			break
		}
		used += chunkTokens
		context.WriteString(chunk)
	}

	return fmt.Sprintf(systemPromptTemplate, context.String(), historyStr, query)
}

// renderChunk formats one retrieved result for the prompt.
func renderChunk(i int, r ragroute.RetrievalResult) string {
	source := r.Source
	if title, ok := r.Metadata["title"].(string); ok && title != "" {
		source = fmt.Sprintf("%s (%s)", source, title)
	}
	return fmt.Sprintf("[%d] Source: %s\n%s\n\n", i+1, source, r.Content)
}

// historyString renders the last historyTurns messages as "role: content"
// lines, oldest first.
func (s *Synthesizer) historyString(history []ragroute.Message) string {
	if len(history) > s.historyTurns {
		history = history[len(history)-s.historyTurns:]
	}
	var sb strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}
	if sb.Len() == 0 {
		return "(no previous conversation)"
	}
	return sb.String()
}
