// Package output formats searchmark's status lines, progress bars and
// key/value summaries. Results themselves are printed by package render;
// this package writes the chatter around them, normally to stderr.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const progressWidth = 30

// Writer provides formatted CLI output.
type Writer struct {
	out         io.Writer
	interactive bool

	ok, warn, fail, key lipgloss.Style
}

// New creates a Writer. color enables ANSI styling; interactive enables
// in-place progress redraws and should only be set for terminals.
func New(out io.Writer, color, interactive bool) *Writer {
	r := lipgloss.NewRenderer(out)
	w := &Writer{
		out:         out,
		interactive: interactive,
		ok:          r.NewStyle(),
		warn:        r.NewStyle(),
		fail:        r.NewStyle(),
		key:         r.NewStyle(),
	}
	if color {
		w.ok = w.ok.Foreground(lipgloss.Color("42"))
		w.warn = w.warn.Foreground(lipgloss.Color("220"))
		w.fail = w.fail.Foreground(lipgloss.Color("196")).Bold(true)
		w.key = w.key.Foreground(lipgloss.Color("245"))
	}
	return w
}

// Status prints msg after icon, or indented when icon is empty.
func (w *Writer) Status(icon, msg string) {
	if icon == "" {
		_, _ = fmt.Fprintf(w.out, "  %s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
}

// Statusf is Status with formatting.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (w *Writer) Success(msg string) { w.Status(w.ok.Render("✓"), msg) }

// Successf is Success with formatting.
func (w *Writer) Successf(format string, args ...any) { w.Success(fmt.Sprintf(format, args...)) }

// Warning prints a warning line.
func (w *Writer) Warning(msg string) { w.Status(w.warn.Render("!"), msg) }

// Warningf is Warning with formatting.
func (w *Writer) Warningf(format string, args ...any) { w.Warning(fmt.Sprintf(format, args...)) }

// Error prints an error line.
func (w *Writer) Error(msg string) { w.Status(w.fail.Render("✗"), msg) }

// Errorf is Error with formatting.
func (w *Writer) Errorf(format string, args ...any) { w.Error(fmt.Sprintf(format, args...)) }

// Code prints content indented between blank lines.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// KV is one row of a key/value summary.
type KV struct {
	Key   string
	Value string
}

// Summary prints rows with keys padded to a common width.
func (w *Writer) Summary(rows []KV) {
	width := 0
	for _, r := range rows {
		if n := len(r.Key); n > width {
			width = n
		}
	}
	for _, r := range rows {
		pad := strings.Repeat(" ", width-len(r.Key))
		_, _ = fmt.Fprintf(w.out, "  %s%s  %s\n", w.key.Render(r.Key+":"), pad, r.Value)
	}
}

// Progress draws a bar for current/total. Interactive writers redraw in
// place; others print only the final line.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}
	final := current >= total
	if !w.interactive && !final {
		return
	}

	pct := float64(current) / float64(total) * 100
	line := fmt.Sprintf("[%s] %3.0f%% %s", renderProgressBar(current, total, progressWidth), pct, msg)
	if w.interactive {
		_, _ = fmt.Fprint(w.out, "\r"+line)
		if final {
			_, _ = fmt.Fprintln(w.out)
		}
		return
	}
	_, _ = fmt.Fprintln(w.out, line)
}

func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := int(float64(current) / float64(total) * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
