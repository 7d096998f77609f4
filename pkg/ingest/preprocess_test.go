package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocess_PlainTextPassesThrough(t *testing.T) {
	raw := "MEMORANDUM FOR THE RECORD\nThis is a plain strategy memo with no markup."
	out, err := Preprocess(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestPreprocess_HTMLConvertsToMarkdownAndKeepsTableData(t *testing.T) {
	raw := `<html><body><p>Intro paragraph.</p>
<table><tr><th>Name</th><th>Rank</th></tr><tr><td>Alpha</td><td>1</td></tr></table>
</body></html>`
	out, err := Preprocess(raw)
	require.NoError(t, err)
	assert.Contains(t, out, "Intro paragraph")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "1")
}

func TestTruncateGraphemeSafe_ShorterThanLimitUnchanged(t *testing.T) {
	s := "hello world"
	assert.Equal(t, s, TruncateGraphemeSafe(s, 100))
}

func TestTruncateGraphemeSafe_TruncatesToExactGraphemeCount(t *testing.T) {
	s := strings.Repeat("a", 50)
	out := TruncateGraphemeSafe(s, 10)
	assert.Len(t, out, 10)
}

func TestTruncateGraphemeSafe_DoesNotSplitCombiningMarkSequence(t *testing.T) {
	// "e" + combining acute accent (U+0301) is one grapheme cluster.
	s := "café" + strings.Repeat("x", 20)
	out := TruncateGraphemeSafe(s, 4)
	assert.Equal(t, "café", out)
}
