package telemetry

import (
	"time"
)

const reportDateFormat = "2006-01-02"

// Report is a summary of persisted metrics over a window of days.
type Report struct {
	From                string                  `json:"from"`
	To                  string                  `json:"to"`
	Totals              Totals                  `json:"totals"`
	ZeroMatchPct        float64                 `json:"zero_match_pct"`
	QueryTypeCounts     map[string]int64        `json:"query_type_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroMatchQueries    []string                `json:"zero_match_queries"`
}

// BuildReport reads the last days days (including today) from store. Top
// terms and zero-match queries are all-time and capped at limit.
func BuildReport(store MetricsStore, now time.Time, days, limit int) (*Report, error) {
	if days < 1 {
		days = 1
	}
	if limit < 1 {
		limit = 10
	}
	to := now.Format(reportDateFormat)
	from := now.AddDate(0, 0, -(days - 1)).Format(reportDateFormat)

	totals, err := store.GetTotals(from, to)
	if err != nil {
		return nil, err
	}
	types, err := store.GetQueryTypeCounts(from, to)
	if err != nil {
		return nil, err
	}
	latencies, err := store.GetLatencyCounts(from, to)
	if err != nil {
		return nil, err
	}
	terms, err := store.GetTopTerms(limit)
	if err != nil {
		return nil, err
	}
	zero, err := store.GetZeroMatchQueries(limit)
	if err != nil {
		return nil, err
	}

	r := &Report{
		From:                from,
		To:                  to,
		Totals:              totals,
		QueryTypeCounts:     nonNil(types),
		LatencyDistribution: nonNil(latencies),
		TopTerms:            terms,
		ZeroMatchQueries:    zero,
	}
	if r.TopTerms == nil {
		r.TopTerms = []TermCount{}
	}
	if r.ZeroMatchQueries == nil {
		r.ZeroMatchQueries = []string{}
	}
	if totals.Highlights > 0 {
		r.ZeroMatchPct = float64(totals.ZeroMatch) / float64(totals.Highlights) * 100
	}
	return r, nil
}

func nonNil[K comparable](m map[K]int64) map[K]int64 {
	if m == nil {
		return map[K]int64{}
	}
	return m
}
