// Package profiling wires the --profile-* flags of searchmark to
// runtime/pprof and runtime/trace.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

// Options names the output files of one profiling session. Empty paths
// are skipped.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != "" || o.Trace != ""
}

// Session is a running set of profiles started by Start.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins CPU profiling and tracing as requested. The heap profile
// is written by Stop so it reflects the whole command.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}

	if opts.CPU != "" {
		f, err := create(opts.CPU, "CPU profile")
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, smerrors.InternalError("failed to start CPU profile", err)
		}
		s.cpuFile = f
	}

	if opts.Trace != "" {
		f, err := create(opts.Trace, "trace")
		if err != nil {
			s.stopCPU()
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, smerrors.InternalError("failed to start trace", err)
		}
		s.traceFile = f
	}

	return s, nil
}

// Stop ends running profiles and writes the heap profile. It is safe to
// call more than once.
func (s *Session) Stop() error {
	s.stopCPU()
	if s.traceFile != nil {
		trace.Stop()
		_ = s.traceFile.Close()
		s.traceFile = nil
	}

	if s.opts.Mem == "" {
		return nil
	}
	path := s.opts.Mem
	s.opts.Mem = ""
	return WriteProfile("heap", path)
}

func (s *Session) stopCPU() {
	if s.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = s.cpuFile.Close()
	s.cpuFile = nil
}

// WriteProfile writes the named runtime profile (heap, allocs, goroutine,
// block) to path. Heap and allocs run a GC first.
func WriteProfile(name, path string) error {
	p := pprof.Lookup(name)
	if p == nil {
		return smerrors.New(smerrors.ErrCodeInvalidInput, "unknown profile", nil).WithDetail("profile", name)
	}

	f, err := create(path, name+" profile")
	if err != nil {
		return err
	}

	if name == "heap" || name == "allocs" {
		runtime.GC()
	}
	debug := 0
	if name == "goroutine" {
		debug = 1
	}
	werr := p.WriteTo(f, debug)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return smerrors.IOError("failed to write "+name+" profile", werr).WithDetail("path", path)
	}
	return nil
}

func create(path, what string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		code := smerrors.ErrCodeFilePermission
		if errors.Is(err, os.ErrNotExist) {
			code = smerrors.ErrCodeFileNotFound
		}
		return nil, smerrors.New(code, "failed to create "+what+" file", err).WithDetail("path", path)
	}
	return f, nil
}

// MemStats returns current memory statistics.
func MemStats() runtime.MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m
}

// FormatBytes formats a byte count with binary units.
func FormatBytes(bytes uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return formatUnit(bytes, gb, "GB")
	case bytes >= mb:
		return formatUnit(bytes, mb, "MB")
	case bytes >= kb:
		return formatUnit(bytes, kb, "KB")
	default:
		return formatUnit(bytes, 1, "B")
	}
}

func formatUnit(bytes, unit uint64, suffix string) string {
	if unit == 1 {
		return fmt.Sprintf("%d %s", bytes, suffix)
	}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(unit), suffix)
}
