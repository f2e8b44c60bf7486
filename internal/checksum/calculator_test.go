package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRawDiffersOnAnyChange(t *testing.T) {
	c := New()

	a := c.CalculateRaw([]byte("id,name\n1,alice\n"))
	b := c.CalculateRaw([]byte("id,name\r\n1,alice\r\n"))

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA-256
}

func TestCalculateRawIsDeterministic(t *testing.T) {
	c := New()
	content := []byte("id,name\n1,alice\n2,bob\n")

	assert.Equal(t, c.CalculateRaw(content), c.CalculateRaw(content))
}

func TestCalculateNormalizedIgnoresLineEndings(t *testing.T) {
	c := New()

	unix := c.CalculateNormalized([]byte("id,name\n1,alice\n"))
	windows := c.CalculateNormalized([]byte("id,name\r\n1,alice\r\n"))

	assert.Equal(t, unix, windows)
}

func TestCalculateNormalizedIgnoresBOMAndTrailingNewlines(t *testing.T) {
	c := New()

	plain := c.CalculateNormalized([]byte("id,name\n1,alice"))
	withBOM := c.CalculateNormalized([]byte("\xEF\xBB\xBFid,name\n1,alice\n\n"))

	assert.Equal(t, plain, withBOM)
}

func TestCalculateNormalizedStillSeesDataChanges(t *testing.T) {
	c := New()

	a := c.CalculateNormalized([]byte("id,name\n1,alice\n"))
	b := c.CalculateNormalized([]byte("id,name\n1,bob\n"))

	assert.NotEqual(t, a, b)
}

func TestEmptyContent(t *testing.T) {
	c := New()

	assert.Len(t, c.CalculateRaw(nil), 64)
	assert.Equal(t, c.CalculateNormalized(nil), c.CalculateNormalized([]byte("\n")))
}
