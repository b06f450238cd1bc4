package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func plain(buf *bytes.Buffer) *Writer { return New(buf, false, false) }

func TestWriter_StatusLines(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"status", func(w *Writer) { w.Status("*", "decoding") }, "* decoding\n"},
		{"indented", func(w *Writer) { w.Status("", "detail") }, "  detail\n"},
		{"statusf", func(w *Writer) { w.Statusf("*", "%d items", 3) }, "* 3 items\n"},
		{"success", func(w *Writer) { w.Successf("highlighted %d results", 12) }, "✓ highlighted 12 results\n"},
		{"warning", func(w *Writer) { w.Warning("2 fields fell back to plain text") }, "! 2 fields fell back to plain text\n"},
		{"error", func(w *Writer) { w.Errorf("bad %s", "input") }, "✗ bad input\n"},
		{"newline", func(w *Writer) { w.Newline() }, "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.write(plain(&buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Code(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).Code("searchmark config init\nsearchmark config show")
	assert.Equal(t, "\n  searchmark config init\n  searchmark config show\n\n", buf.String())
}

func TestWriter_Summary_AlignsKeys(t *testing.T) {
	// Given: rows with keys of different length
	var buf bytes.Buffer

	// When: printing a summary
	plain(&buf).Summary([]KV{{"queries", "12"}, {"zero-match", "3"}})

	// Then: values line up
	assert.Equal(t, "  queries:     12\n  zero-match:  3\n", buf.String())
}

func TestWriter_Progress_NonInteractive(t *testing.T) {
	var buf bytes.Buffer
	w := plain(&buf)

	w.Progress(1, 4, "highlighting")
	w.Progress(3, 4, "highlighting")
	assert.Empty(t, buf.String(), "intermediate frames are skipped off a terminal")

	w.Progress(4, 4, "highlighting")
	assert.Equal(t, "["+strings.Repeat("█", 30)+"] 100% highlighting\n", buf.String())
}

func TestWriter_Progress_Interactive(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, false, true)

	w.Progress(1, 2, "x")
	w.Progress(2, 2, "x")

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\r"))
	assert.True(t, strings.HasSuffix(out, "100% x\n"))
}

func TestWriter_Progress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false, true).Progress(0, 0, "nothing")
	assert.Empty(t, buf.String())
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		current, total, width int
		want                  string
	}{
		{0, 10, 10, "░░░░░░░░░░"},
		{5, 10, 10, "█████░░░░░"},
		{10, 10, 10, "██████████"},
		{15, 10, 10, "██████████"},
		{-1, 10, 10, "░░░░░░░░░░"},
		{1, 0, 4, "░░░░"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderProgressBar(tt.current, tt.total, tt.width))
	}
}
