package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sandbox isolates HOME, config, logs and telemetry under temp dirs and
// moves into an empty working directory.
func sandbox(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("SEARCHMARK_LOG_FILE", filepath.Join(home, "logs", "searchmark.log"))
	t.Setenv("SEARCHMARK_TELEMETRY_DB", filepath.Join(home, "telemetry.db"))
	for _, env := range []string{
		"SEARCHMARK_LOG_LEVEL", "SEARCHMARK_WORKERS", "SEARCHMARK_CACHE_SIZE", "SEARCHMARK_TELEMETRY",
		"SEARCHMARK_CASE_SENSITIVE", "SEARCHMARK_COLOR", "SEARCHMARK_OUTPUT_FORMAT",
	} {
		t.Setenv(env, "")
	}
	work := t.TempDir()
	t.Chdir(work)
	return work
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command with args and stdin.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	a := newApp()
	a.stdin = strings.NewReader(stdin)

	cmd := newRootCmd(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	_ = a.stop()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
