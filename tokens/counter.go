package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens in text. The orchestrator and synthesizer use it for
// budget decisions only, so an approximate count is acceptable when no exact
// tokenizer is available.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens using a tiktoken BPE encoding.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the given encoding name, such as
// "cl100k_base". Loading the encoding may require the tiktoken data files to
// be available locally or downloadable.
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TiktokenCounter{encoding: enc}, nil
}

// Count returns the number of tokens in text
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// ApproxCounter estimates token counts from byte length. English text
// averages roughly four bytes per token, which is close enough for budget
// truncation.
type ApproxCounter struct{}

// Count returns an estimated token count for text
func (ApproxCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// NewCounter returns the best available counter: tiktoken's cl100k_base
// encoding when it can be loaded, otherwise the byte-length estimator.
func NewCounter() Counter {
	if c, err := NewTiktokenCounter("cl100k_base"); err == nil {
		return c
	}
	return ApproxCounter{}
}
