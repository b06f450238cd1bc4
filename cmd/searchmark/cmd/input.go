package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
	"github.com/Aman-CERP/searchmark/internal/telemetry"
)

// readInput reads path, or stdin for "" and "-", refusing anything over
// limits.max_input_bytes.
func (a *app) readInput(path string) ([]byte, error) {
	var (
		r    io.Reader
		name = path
	)
	if path == "" || path == "-" {
		r, name = a.stdin, "stdin"
	} else {
		f, err := os.Open(path)
		if err != nil {
			code := smerrors.ErrCodeFilePermission
			if errors.Is(err, os.ErrNotExist) {
				code = smerrors.ErrCodeFileNotFound
			}
			return nil, smerrors.New(code, "cannot open input", err).WithDetail("path", path)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	limit := a.cfg.Limits.MaxInputBytes
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, smerrors.IOError("failed to read input", err).WithDetail("path", name)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, smerrors.New(smerrors.ErrCodeFileTooLarge,
			fmt.Sprintf("input exceeds %d bytes", limit), nil).
			WithDetail("path", name).
			WithSuggestion("Raise limits.max_input_bytes in the config, or split the input")
	}
	return data, nil
}

// openMetrics returns a collector persisting to the telemetry database, or
// nil when telemetry is off. A store that cannot be opened after retries
// is logged and skipped; highlighting never fails because of telemetry.
func (a *app) openMetrics(ctx context.Context, enabled bool) (*telemetry.HighlightMetrics, func()) {
	if !enabled {
		return nil, func() {}
	}

	store, err := smerrors.RetryWithResult(ctx, smerrors.DefaultRetryConfig(), func() (*telemetry.SQLiteMetricsStore, error) {
		return telemetry.OpenSQLiteMetricsStore(a.cfg.Telemetry.DBPath)
	})
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "telemetry_unavailable", smerrors.LogAttrs(err)...)
		return nil, func() {}
	}

	mcfg := telemetry.DefaultMetricsConfig()
	mcfg.FlushInterval = a.cfg.FlushInterval()
	m := telemetry.NewHighlightMetricsWithConfig(store, mcfg)

	return m, func() {
		if err := m.Close(); err != nil {
			a.logger.LogAttrs(ctx, slog.LevelWarn, "metrics_flush_failed", smerrors.LogAttrs(err)...)
		}
		_ = store.Close()
	}
}
