package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport_Window(t *testing.T) {
	// Given: totals on three days, one outside a two-day window
	store := openTestStore(t)
	require.NoError(t, store.SaveTotals("2026-02-27", Totals{Highlights: 100}))
	require.NoError(t, store.SaveTotals("2026-02-28", Totals{Highlights: 3, ZeroMatch: 1}))
	require.NoError(t, store.SaveTotals("2026-03-01", Totals{Highlights: 1, Truncated: 1}))
	require.NoError(t, store.SaveQueryTypeCounts("2026-03-01", map[string]int64{"phrase": 2}))
	require.NoError(t, store.UpsertTermCounts(map[string]int64{"go": 3, "rust": 1}))

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// When: building a two-day report
	r, err := BuildReport(store, now, 2, 1)
	require.NoError(t, err)

	// Then: only the window is summed and lists respect the limit
	assert.Equal(t, "2026-02-28", r.From)
	assert.Equal(t, "2026-03-01", r.To)
	assert.Equal(t, Totals{Highlights: 4, ZeroMatch: 1, Truncated: 1}, r.Totals)
	assert.InDelta(t, 25.0, r.ZeroMatchPct, 0.001)
	assert.Equal(t, map[string]int64{"phrase": 2}, r.QueryTypeCounts)
	assert.Equal(t, []TermCount{{Term: "go", Count: 3}}, r.TopTerms)
}

func TestBuildReport_EmptyStore(t *testing.T) {
	r, err := BuildReport(openTestStore(t), time.Now(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, r.From, r.To, "days below one means today only")
	assert.Zero(t, r.ZeroMatchPct)
	assert.NotNil(t, r.QueryTypeCounts)
	assert.NotNil(t, r.LatencyDistribution)
	assert.NotNil(t, r.TopTerms)
	assert.NotNil(t, r.ZeroMatchQueries)
}
