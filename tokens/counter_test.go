package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApproxCounter(t *testing.T) {
	c := ApproxCounter{}

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("hi")) // never zero for non-empty text
	assert.Equal(t, 11, c.Count("The quick brown fox jumps over the lazy dogic"))
}

func TestApproxCounterMonotonicInLength(t *testing.T) {
	c := ApproxCounter{}
	short := c.Count("hello world")
	long := c.Count("hello world, this is a much longer sentence about nothing in particular")
	assert.Greater(t, long, short)
}

func TestNewCounterNeverNil(t *testing.T) {
	// Regardless of whether tiktoken data is available, NewCounter must
	// return a usable counter.
	c := NewCounter()
	assert.NotNil(t, c)
	assert.Greater(t, c.Count("hello world"), 0)
}
