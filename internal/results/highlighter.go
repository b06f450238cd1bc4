package results

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/memo"
	"github.com/Aman-CERP/searchmark/internal/query"
	"github.com/Aman-CERP/searchmark/internal/telemetry"
)

// Config configures a Highlighter. Every field is optional.
type Config struct {
	// Workers bounds HighlightBatch concurrency (default: GOMAXPROCS).
	Workers int

	// Overrides are merged over each field's profile.
	Overrides map[highlight.FieldType]highlight.Options

	// Cache memoizes per-field results when set.
	Cache *memo.Cache

	// Metrics receives one event per highlighted result when set.
	Metrics *telemetry.HighlightMetrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Clock defaults to telemetry.SystemClock.
	Clock telemetry.Clock

	// Progress is called after each batch item with the number done so
	// far. Calls are serialized.
	Progress func(done, total int)
}

// Highlighter highlights whole search results. Safe for concurrent use.
type Highlighter struct {
	cfg    Config
	engine *highlight.Highlighter
	logger *slog.Logger
	clock  telemetry.Clock
}

// New creates a Highlighter.
func New(cfg Config) *Highlighter {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = telemetry.SystemClock
	}
	return &Highlighter{
		cfg:    cfg,
		engine: highlight.New(highlight.WithClock(clock)),
		logger: logger,
		clock:  clock,
	}
}

// Workers returns the batch concurrency limit.
func (h *Highlighter) Workers() int {
	return h.cfg.Workers
}

// Highlight highlights every field of r. An empty q falls back to the
// normalized query carried in r's search context. The only error is
// ctx's.
func (h *Highlighter) Highlight(ctx context.Context, r SearchResult, q string) (HighlightedResult, error) {
	if err := ctx.Err(); err != nil {
		return HighlightedResult{}, err
	}

	start := h.clock()
	if q == "" && r.SearchContext != nil {
		q = r.SearchContext.NormalizedQuery
	}

	primary, secondary, unknown := groupFields(r.MatchedFields)
	if len(unknown) > 0 {
		h.logger.Debug("unknown_matched_fields",
			slog.String("id", r.ID),
			slog.Any("fields", unknown))
	}

	out := HighlightedResult{
		ID:            r.ID,
		Title:         h.field(r.ID, r.Title, q, highlight.FieldTitle),
		Content:       h.field(r.ID, r.Content, q, highlight.FieldContent),
		Author:        h.field(r.ID, r.Author, q, highlight.FieldAuthor),
		Tags:          make([]highlight.Result, 0, len(r.Tags)),
		Primary:       primary,
		Secondary:     secondary,
		SearchContext: r.SearchContext,
	}
	for _, tag := range r.Tags {
		out.Tags = append(out.Tags, h.field(r.ID, tag, q, highlight.FieldTags))
	}

	if h.cfg.Metrics != nil {
		latency := h.clock().Sub(start)
		if latency < 0 {
			latency = 0
		}
		h.cfg.Metrics.Record(telemetry.HighlightEvent{
			Query:      q,
			QueryType:  query.ParseSearchQuery(q).QueryType.String(),
			Terms:      query.ExtractTerms(q),
			MatchCount: out.TotalMatches(),
			Truncated:  out.Truncated(),
			Latency:    latency,
			Timestamp:  start,
		})
	}

	return out, nil
}

func (h *Highlighter) field(id, text, q string, f highlight.FieldType) highlight.Result {
	override := h.cfg.Overrides[f]

	var res highlight.Result
	if h.cfg.Cache != nil {
		key := memo.Key(text, q, override, f)
		res, _ = h.cfg.Cache.GetOrCompute(key, func() highlight.Result {
			return h.engine.WithFieldContext(text, q, f, override)
		})
	} else {
		res = h.engine.WithFieldContext(text, q, f, override)
	}

	if res.Degraded {
		h.logger.Warn("highlight_sanitize_fallback",
			slog.String("id", id),
			slog.String("field", string(f)),
			slog.Int("content_length", res.Performance.ContentLength))
	}
	return res
}

// =============================================================================
// Batch
// =============================================================================

// Batch is the output of one HighlightBatch call.
type Batch struct {
	RunID     string              `json:"run_id" yaml:"run_id"`
	Query     string              `json:"query" yaml:"query"`
	Results   []HighlightedResult `json:"results" yaml:"results"`
	ElapsedMs float64             `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// HighlightBatch highlights items concurrently, keeping their order.
// Cancelling ctx stops outstanding work and returns ctx's error.
func (h *Highlighter) HighlightBatch(ctx context.Context, items []SearchResult, q string) (*Batch, error) {
	start := h.clock()
	runID := uuid.NewString()

	out := make([]HighlightedResult, len(items))

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		if h.cfg.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		h.cfg.Progress(done, len(items))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Workers)

	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := h.Highlight(gctx, items[i], q)
			if err != nil {
				return err
			}
			out[i] = res
			report()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.Warn("batch_cancelled",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elapsed := h.clock().Sub(start)
	h.logger.Info("batch_complete",
		slog.String("run_id", runID),
		slog.Int("items", len(items)),
		slog.Int("workers", h.cfg.Workers),
		slog.Duration("elapsed", elapsed))

	return &Batch{
		RunID:     runID,
		Query:     q,
		Results:   out,
		ElapsedMs: float64(elapsed) / float64(time.Millisecond),
	}, nil
}
