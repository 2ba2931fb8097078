package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithFrontmatter(t *testing.T) {
	source := []byte("---\ntitle: Conditions générales\nlastUpdated: 2025-03-01\n---\n\n# Terms\n\nBe *kind* to chefs.\n")

	html, meta, err := NewParser().ParseWithFrontmatter(source)
	require.NoError(t, err)
	assert.Equal(t, "Conditions générales", meta["title"])
	assert.Contains(t, string(html), `<h1 id="terms">Terms</h1>`)
	assert.Contains(t, string(html), "<em>kind</em>")
	assert.NotContains(t, string(html), "lastUpdated")
}

func TestParseWithoutFrontmatter(t *testing.T) {
	html, meta, err := NewParser().ParseWithFrontmatter([]byte("plain"))
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.Contains(t, string(html), "plain")
}
