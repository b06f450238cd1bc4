package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/query"
)

const markYellow = `<mark class="search-highlight search-highlight-yellow">`

func TestHighlightCmd_Text(t *testing.T) {
	sandbox(t)

	// When: highlighting an argument
	res := run(t, "", "highlight", "-q", "go", "Go is fun")

	// Then: plain output brackets the match
	require.NoError(t, res.err)
	assert.Equal(t, "[Go] is fun\n", res.stdout)
}

func TestHighlightCmd_Stdin(t *testing.T) {
	sandbox(t)

	res := run(t, "learning Go\n", "highlight", "-q", "go", "-")

	require.NoError(t, res.err)
	assert.Equal(t, "learning [Go]\n", res.stdout)
}

func TestHighlightCmd_HTML(t *testing.T) {
	sandbox(t)

	res := run(t, "", "highlight", "-q", "go", "--format", "html", "Go <b>now</b>")

	require.NoError(t, res.err)
	assert.Equal(t, markYellow+"Go</mark> &lt;b&gt;now&lt;/b&gt;\n", res.stdout)
}

func TestHighlightCmd_JSONWithFlags(t *testing.T) {
	sandbox(t)
	text := strings.Repeat("word ", 20) + "go" + strings.Repeat(" tail", 10)

	// When: truncating without ellipsis, case-sensitively
	res := run(t, "", "highlight", "-q", "go", "--format", "json",
		"--max-length", "12", "--no-ellipsis", "--case-sensitive", text)

	// Then: the JSON result reflects every flag
	require.NoError(t, res.err)
	var got highlight.Result
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.True(t, got.Truncated)
	assert.False(t, strings.HasSuffix(got.HTML, highlight.Ellipsis))
	assert.Contains(t, got.HTML, "go</mark>", "window extends to the match")
	require.Len(t, got.Matches, 1)
	assert.Equal(t, 1, got.Matches[0].Count, "counted before truncation")
}

func TestHighlightCmd_FieldProfile(t *testing.T) {
	sandbox(t)

	res := run(t, "", "highlight", "-q", "rob", "-f", "author", "--format", "html", "Rob Pike")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "search-highlight--author")
}

func TestHighlightCmd_ConfigOverrides(t *testing.T) {
	work := sandbox(t)
	writeFile(t, filepath.Join(work, ".searchmark.yaml"), "highlight:\n  fields:\n    content:\n      variant: tag\n")

	res := run(t, "", "highlight", "-q", "go", "--format", "html", "go")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "search-highlight--tag")
}

func TestHighlightCmd_Errors(t *testing.T) {
	sandbox(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown field", []string{"highlight", "-q", "go", "-f", "body", "x"}, smerrors.ErrCodeInvalidField},
		{"unknown format", []string{"highlight", "-q", "go", "--format", "pdf", "x"}, smerrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, "", tt.args...)
			require.Error(t, res.err)
			assert.Equal(t, tt.code, smerrors.GetCode(res.err))
		})
	}

	t.Run("query is required", func(t *testing.T) {
		res := run(t, "", "highlight", "text")
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "query")
	})
}

func TestHighlightCmd_InputLimit(t *testing.T) {
	work := sandbox(t)
	writeFile(t, filepath.Join(work, ".searchmark.yaml"), "limits:\n  max_input_bytes: 8\n")

	res := run(t, "far more than eight bytes", "highlight", "-q", "go", "-")

	require.Error(t, res.err)
	assert.Equal(t, smerrors.ErrCodeFileTooLarge, smerrors.GetCode(res.err))
}

func TestParseCmd(t *testing.T) {
	sandbox(t)

	t.Run("json", func(t *testing.T) {
		res := run(t, "", "parse", "--json", `"error handling" AND go`)
		require.NoError(t, res.err)

		var p query.ParsedQuery
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &p))
		assert.Equal(t, query.QueryTypePhrase, p.QueryType)
		assert.Equal(t, []string{"error handling"}, p.PhraseParts)
		assert.Equal(t, []string{"AND"}, p.DetectedOperators)
	})

	t.Run("text", func(t *testing.T) {
		res := run(t, "", "parse", "go", "OR", "rust", "AND", "zig")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "type:")
		assert.Contains(t, res.stdout, "complex")
		assert.Contains(t, res.stdout, "OR AND")
	})
}

func TestTermsCmd(t *testing.T) {
	sandbox(t)

	res := run(t, "", "terms", `tutorial "machine learning"`)

	require.NoError(t, res.err)
	assert.Equal(t, "machine learning\nmachine\nlearning\ntutorial\n", res.stdout)
}

func TestSanitizeCmd(t *testing.T) {
	work := sandbox(t)
	path := writeFile(t, filepath.Join(work, "in.html"), `<script>x()</script>`+markYellow+`go</mark>`)

	res := run(t, "", "sanitize", path)

	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "<script")
	assert.Contains(t, res.stdout, markYellow+"go</mark>")

	missing := run(t, "", "sanitize", filepath.Join(work, "nope.html"))
	assert.Equal(t, smerrors.ErrCodeFileNotFound, smerrors.GetCode(missing.err))
}
