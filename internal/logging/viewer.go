package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 100 * time.Millisecond
)

// Entry is one parsed JSON log record.
type Entry struct {
	Time    time.Time
	Level   string
	Msg     string
	RunID   string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// ViewerConfig filters and formats entries.
type ViewerConfig struct {
	// Level drops entries below this level.
	Level string
	// Pattern keeps entries whose raw line matches.
	Pattern *regexp.Regexp
	// RunID keeps entries from one batch run.
	RunID   string
	NoColor bool
}

// Viewer reads, filters and prints searchmark log files.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
	levels map[string]lipgloss.Style
	dim    lipgloss.Style
}

// NewViewer creates a viewer writing to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	r := lipgloss.NewRenderer(out)
	v := &Viewer{config: cfg, out: out, dim: r.NewStyle()}
	v.levels = map[string]lipgloss.Style{
		"DEBUG": r.NewStyle(),
		"INFO":  r.NewStyle(),
		"WARN":  r.NewStyle(),
		"ERROR": r.NewStyle(),
	}
	if !cfg.NoColor {
		v.dim = v.dim.Foreground(lipgloss.Color("245"))
		v.levels["DEBUG"] = v.levels["DEBUG"].Foreground(lipgloss.Color("245"))
		v.levels["INFO"] = v.levels["INFO"].Foreground(lipgloss.Color("42"))
		v.levels["WARN"] = v.levels["WARN"].Foreground(lipgloss.Color("220"))
		v.levels["ERROR"] = v.levels["ERROR"].Foreground(lipgloss.Color("196")).Bold(true)
	}
	return v
}

// Tail returns the matching entries among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, smerrors.New(smerrors.ErrCodeFileNotFound, "failed to open log file", err).
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	if n <= 0 {
		return nil, nil
	}

	// Ring of the last n lines.
	ring := make([]string, 0, n)
	next := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if len(ring) < n {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[next] = scanner.Text()
		next = (next + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, smerrors.IOError("failed to read log file", err)
	}

	lines := append(ring[next:len(ring):len(ring)], ring[:next]...)
	var entries []Entry
	for _, line := range lines {
		if e := ParseLine(line); v.matches(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Follow sends entries appended to path after the call until ctx is done.
func (v *Viewer) Follow(ctx context.Context, path string, out chan<- Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return smerrors.New(smerrors.ErrCodeFileNotFound, "failed to open log file", err).
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return smerrors.IOError("failed to seek log file", err)
	}

	reader := bufio.NewReader(f)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for {
			chunk, err := reader.ReadString('\n')
			if err != nil {
				// Keep an incomplete tail for the next tick.
				partial += chunk
				break
			}
			line := strings.TrimSuffix(partial+chunk, "\n")
			partial = ""
			if line == "" {
				continue
			}
			e := ParseLine(line)
			if !v.matches(e) {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// ParseLine parses a slog JSON line. Non-JSON lines come back with
// IsValid false and only Raw set.
func ParseLine(line string) Entry {
	e := Entry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return e
	}
	e.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			e.Time = parsed
		}
	}
	e.Level, _ = data["level"].(string)
	e.Msg, _ = data["msg"].(string)
	e.RunID, _ = data["run_id"].(string)

	e.Attrs = make(map[string]any, len(data))
	for k, val := range data {
		switch k {
		case "time", "level", "msg", "run_id":
		default:
			e.Attrs[k] = val
		}
	}
	return e
}

func (v *Viewer) matches(e Entry) bool {
	if v.config.Level != "" && e.IsValid {
		if LevelFromString(e.Level) < LevelFromString(v.config.Level) {
			return false
		}
	}
	if v.config.RunID != "" && e.RunID != v.config.RunID {
		return false
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(e.Raw) {
		return false
	}
	return true
}

// FormatEntry renders e as "15:04:05.000 LEVEL msg [run] k=v ..." with
// attributes in key order. Invalid entries are returned raw.
func (v *Viewer) FormatEntry(e Entry) string {
	if !e.IsValid {
		return e.Raw
	}

	level := strings.ToUpper(e.Level)
	if len(level) > 5 {
		level = level[:5]
	}
	padded := fmt.Sprintf("%-5s", level)
	if style, ok := v.levels[level]; ok {
		padded = style.Render(padded)
	}

	var b strings.Builder
	b.WriteString(v.dim.Render(e.Time.Format("15:04:05.000")))
	b.WriteByte(' ')
	b.WriteString(padded)
	b.WriteByte(' ')
	b.WriteString(e.Msg)
	if e.RunID != "" {
		short := e.RunID
		if len(short) > 8 {
			short = short[:8]
		}
		b.WriteString(" " + v.dim.Render("["+short+"]"))
	}

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}

// Print writes entries, one per line.
func (v *Viewer) Print(entries []Entry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(e))
	}
}
