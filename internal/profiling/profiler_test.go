package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestOptions_Enabled(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	assert.True(t, Options{Mem: "m.prof"}.Enabled())
}

func TestSession_AllProfiles(t *testing.T) {
	// Given: every profile requested
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.prof"),
		Mem:   filepath.Join(dir, "mem.prof"),
		Trace: filepath.Join(dir, "trace.out"),
	}

	// When: running some work inside a session
	s, err := Start(opts)
	require.NoError(t, err)
	sum := 0
	for i := 0; i < 1_000_000; i++ {
		sum += i
	}
	_ = sum
	require.NoError(t, s.Stop())

	// Then: all three files exist, and Stop is idempotent
	nonEmpty(t, opts.CPU)
	nonEmpty(t, opts.Mem)
	nonEmpty(t, opts.Trace)
	assert.NoError(t, s.Stop())
}

func TestStart_BadPath(t *testing.T) {
	_, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.prof")})
	require.Error(t, err)
	assert.Equal(t, smerrors.ErrCodeFileNotFound, smerrors.GetCode(err))
}

func TestStart_TraceFailureStopsCPU(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Options{CPU: filepath.Join(dir, "cpu.prof"), Trace: filepath.Join(dir, "no", "trace.out")})
	require.Error(t, err)

	// CPU profiling must have been released for a new session to start.
	s, err := Start(Options{CPU: filepath.Join(dir, "cpu2.prof")})
	require.NoError(t, err)
	require.NoError(t, s.Stop())
}

func TestWriteProfile(t *testing.T) {
	for _, name := range []string{"heap", "allocs", "goroutine", "block"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name+".prof")
			require.NoError(t, WriteProfile(name, path))
			nonEmpty(t, path)
		})
	}

	err := WriteProfile("nope", filepath.Join(t.TempDir(), "x"))
	assert.Equal(t, smerrors.ErrCodeInvalidInput, smerrors.GetCode(err))
}

func TestMemStats(t *testing.T) {
	assert.Positive(t, MemStats().Alloc)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}
