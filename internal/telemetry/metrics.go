package telemetry

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketLT1  LatencyBucket = "lt1ms"  // <1ms
	BucketLT5  LatencyBucket = "lt5ms"  // 1-5ms
	BucketLT10 LatencyBucket = "lt10ms" // 5-10ms
	BucketLT50 LatencyBucket = "lt50ms" // 10-50ms
	BucketSlow LatencyBucket = "ge50ms" // >=50ms
)

// LatencyBuckets lists the buckets fastest first.
var LatencyBuckets = []LatencyBucket{BucketLT1, BucketLT5, BucketLT10, BucketLT50, BucketSlow}

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketLT1
	case d < 5*time.Millisecond:
		return BucketLT5
	case d < 10*time.Millisecond:
		return BucketLT10
	case d < 50*time.Millisecond:
		return BucketLT50
	default:
		return BucketSlow
	}
}

// =============================================================================
// Events and snapshots
// =============================================================================

// HighlightEvent describes one highlight call.
type HighlightEvent struct {
	Query      string
	QueryType  string
	Terms      []string
	MatchCount int
	Truncated  bool
	Latency    time.Duration
	Timestamp  time.Time
}

// IsZeroMatch reports whether the query had terms but none of them matched.
func (e HighlightEvent) IsZeroMatch() bool {
	return e.MatchCount == 0 && len(e.Terms) > 0
}

// TermCount is a term and its frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Totals are the scalar counters of a metrics window.
type Totals struct {
	Highlights int64 `json:"highlights"`
	ZeroMatch  int64 `json:"zero_match"`
	Truncated  int64 `json:"truncated"`
}

// MetricsSnapshot is an immutable copy of the collected metrics.
type MetricsSnapshot struct {
	QueryTypeCounts     map[string]int64        `json:"query_type_counts"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroMatchQueries    []string                `json:"zero_match_queries"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	Totals              Totals                  `json:"totals"`
	Since               time.Time               `json:"since"`
}

// ZeroMatchPercentage returns the share of zero-match highlights.
func (s *MetricsSnapshot) ZeroMatchPercentage() float64 {
	if s.Totals.Highlights == 0 {
		return 0
	}
	return float64(s.Totals.ZeroMatch) / float64(s.Totals.Highlights) * 100
}

// =============================================================================
// Store interface
// =============================================================================

// MetricsStore persists aggregated metrics. Save and Upsert methods add to
// existing rows.
type MetricsStore interface {
	// SaveDelta adds every count in d atomically: all of it or none.
	SaveDelta(date string, d Delta) error

	SaveQueryTypeCounts(date string, counts map[string]int64) error
	GetQueryTypeCounts(from, to string) (map[string]int64, error)

	UpsertTermCounts(terms map[string]int64) error
	GetTopTerms(limit int) ([]TermCount, error)

	AddZeroMatchQuery(query string, timestamp time.Time) error
	GetZeroMatchQueries(limit int) ([]string, error)

	SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error
	GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error)

	SaveTotals(date string, totals Totals) error
	GetTotals(from, to string) (Totals, error)

	Close() error
}

// =============================================================================
// Configuration
// =============================================================================

const (
	DefaultTopTermsCapacity  = 100
	DefaultZeroMatchCapacity = 100
)

// MetricsConfig configures HighlightMetrics.
type MetricsConfig struct {
	TopTermsCapacity  int           // default 100
	ZeroMatchCapacity int           // default 100
	FlushInterval     time.Duration // 0 disables auto-flush
	Clock             Clock         // default SystemClock
}

// DefaultMetricsConfig returns the defaults.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		TopTermsCapacity:  DefaultTopTermsCapacity,
		ZeroMatchCapacity: DefaultZeroMatchCapacity,
		FlushInterval:     60 * time.Second,
		Clock:             SystemClock,
	}
}

// =============================================================================
// HighlightMetrics
// =============================================================================

// ZeroMatchQuery is a query whose terms matched nothing.
type ZeroMatchQuery struct {
	Query string
	At    time.Time
}

// Delta holds the counts recorded since the last flush.
type Delta struct {
	QueryTypes map[string]int64
	Terms      map[string]int64
	Latencies  map[LatencyBucket]int64
	ZeroMatch  []ZeroMatchQuery
	Totals     Totals
}

func newDelta() Delta {
	return Delta{
		QueryTypes: make(map[string]int64),
		Terms:      make(map[string]int64),
		Latencies:  make(map[LatencyBucket]int64),
	}
}

func (d *Delta) empty() bool {
	return d.Totals == (Totals{}) && len(d.Terms) == 0 && len(d.ZeroMatch) == 0
}

// merge adds o into d.
func (d *Delta) merge(o Delta) {
	for k, v := range o.QueryTypes {
		d.QueryTypes[k] += v
	}
	for k, v := range o.Terms {
		d.Terms[k] += v
	}
	for k, v := range o.Latencies {
		d.Latencies[k] += v
	}
	d.ZeroMatch = append(o.ZeroMatch, d.ZeroMatch...)
	d.Totals.Highlights += o.Totals.Highlights
	d.Totals.ZeroMatch += o.Totals.ZeroMatch
	d.Totals.Truncated += o.Totals.Truncated
}

// HighlightMetrics aggregates highlight events. Safe for concurrent use.
type HighlightMetrics struct {
	mu sync.Mutex

	queryTypes map[string]int64
	topTerms   *lru.Cache[string, int64]
	zeroMatch  *CircularBuffer[string]
	latencies  map[LatencyBucket]int64
	totals     Totals
	startTime  time.Time

	pending Delta

	store       MetricsStore
	clock       Clock
	breaker     *smerrors.CircuitBreaker
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closed      bool
}

// NewHighlightMetrics creates a collector with the default configuration.
// A nil store keeps metrics in memory only.
func NewHighlightMetrics(store MetricsStore) *HighlightMetrics {
	return NewHighlightMetricsWithConfig(store, DefaultMetricsConfig())
}

// NewHighlightMetricsWithConfig creates a collector.
func NewHighlightMetricsWithConfig(store MetricsStore, cfg MetricsConfig) *HighlightMetrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = DefaultTopTermsCapacity
	}
	if cfg.ZeroMatchCapacity <= 0 {
		cfg.ZeroMatchCapacity = DefaultZeroMatchCapacity
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	m := &HighlightMetrics{
		queryTypes: make(map[string]int64),
		topTerms:   topTerms,
		zeroMatch:  NewCircularBuffer[string](cfg.ZeroMatchCapacity),
		latencies:  make(map[LatencyBucket]int64),
		startTime:  cfg.Clock(),
		pending:    newDelta(),
		store:      store,
		clock:      cfg.Clock,
		breaker:    smerrors.NewCircuitBreaker("metrics_flush", smerrors.WithResetTimeout(5*time.Minute)),
		stopCh:     make(chan struct{}),
	}

	if cfg.FlushInterval > 0 && store != nil {
		m.flushTicker = time.NewTicker(cfg.FlushInterval)
		go m.flushLoop()
	}

	return m
}

func (m *HighlightMetrics) flushLoop() {
	for {
		select {
		case <-m.flushTicker.C:
			if err := m.breaker.Execute(m.Flush); err != nil {
				if errors.Is(err, smerrors.ErrCircuitOpen) {
					slog.Debug("metrics_flush_skipped", slog.String("breaker", m.breaker.State().String()))
					continue
				}
				slog.Warn("metrics_flush_failed",
					slog.String("error", err.Error()),
					slog.Int("consecutive_failures", m.breaker.Failures()))
			}
		case <-m.stopCh:
			return
		}
	}
}

// Record adds one highlight event.
func (m *HighlightMetrics) Record(event HighlightEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = m.clock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.queryTypes[event.QueryType]++
	m.pending.QueryTypes[event.QueryType]++

	for _, term := range event.Terms {
		key := strings.ToLower(term)
		count, _ := m.topTerms.Get(key)
		m.topTerms.Add(key, count+1)
		m.pending.Terms[key]++
	}

	bucket := LatencyToBucket(event.Latency)
	m.latencies[bucket]++
	m.pending.Latencies[bucket]++

	m.totals.Highlights++
	m.pending.Totals.Highlights++

	if event.IsZeroMatch() {
		m.zeroMatch.Add(event.Query)
		m.pending.ZeroMatch = append(m.pending.ZeroMatch, ZeroMatchQuery{Query: event.Query, At: event.Timestamp})
		m.totals.ZeroMatch++
		m.pending.Totals.ZeroMatch++
	}
	if event.Truncated {
		m.totals.Truncated++
		m.pending.Totals.Truncated++
	}
}

// Snapshot returns the metrics collected since creation.
func (m *HighlightMetrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	typeCounts := make(map[string]int64, len(m.queryTypes))
	for k, v := range m.queryTypes {
		typeCounts[k] = v
	}

	topTerms := make([]TermCount, 0, m.topTerms.Len())
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	sort.SliceStable(topTerms, func(i, j int) bool {
		if topTerms[i].Count != topTerms[j].Count {
			return topTerms[i].Count > topTerms[j].Count
		}
		return topTerms[i].Term < topTerms[j].Term
	})

	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	return &MetricsSnapshot{
		QueryTypeCounts:     typeCounts,
		TopTerms:            topTerms,
		ZeroMatchQueries:    m.zeroMatch.Items(),
		LatencyDistribution: latencies,
		Totals:              m.totals,
		Since:               m.startTime,
	}
}

// Flush writes the counts recorded since the previous flush to the store
// in one SaveDelta call. On failure the whole delta is kept for the next
// attempt, which relies on SaveDelta writing all of it or none of it.
func (m *HighlightMetrics) Flush() error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	d := m.pending
	m.pending = newDelta()
	today := m.clock().Format("2006-01-02")
	m.mu.Unlock()

	if d.empty() {
		return nil
	}

	if err := m.store.SaveDelta(today, d); err != nil {
		m.mu.Lock()
		m.pending.merge(d)
		m.mu.Unlock()
		return err
	}
	return nil
}

// Close stops auto-flush and performs a final flush. The store is not closed.
func (m *HighlightMetrics) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.flushTicker != nil {
		m.flushTicker.Stop()
		close(m.stopCh)
	}

	return m.Flush()
}
