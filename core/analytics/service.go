// Package analytics builds filtered aggregates over the crime record store:
// totals, time buckets and regional breakdowns. It owns no state beyond the
// injected store and registry; every call is a request-scoped read.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"crimevision/core/regions"
	"crimevision/core/store"
)

// DefaultCrimeTypes is the fallback category list served when the store holds
// no records yet.
var DefaultCrimeTypes = []string{"Кража", "Грабёж", "Разбой", "Убийство", "Другое"}

const dateLayout = "2006-01-02"

// Filter is the optional (date_from, date_to, region) triple shared by the
// aggregate operations. Empty fields mean no constraint; all constraints are
// conjunctive.
type Filter struct {
	DateFrom string
	DateTo   string
	Region   string
}

// Timeline is a set of parallel arrays: one period label, incident count and
// average severity per bucket. Arrays are empty, never nil, when nothing
// matches.
type Timeline struct {
	Periods     []string  `json:"periods"`
	Counts      []int     `json:"counts"`
	AvgSeverity []float64 `json:"avg_severity"`
}

// Comparison ranks regions by incident count over a date range.
type Comparison struct {
	Regions     []string  `json:"regions"`
	Counts      []int     `json:"counts"`
	AvgSeverity []float64 `json:"avg_severity"`
}

type Service struct {
	store    store.CrimesStore
	registry *regions.Registry
}

func NewService(st store.CrimesStore, registry *regions.Registry) *Service {
	return &Service{store: st, registry: registry}
}

func (s *Service) Summary(ctx context.Context, filter Filter) (store.Summary, error) {
	sum, err := s.store.Summary(ctx, store.StatsFilter{
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		Region:   filter.Region,
	})
	if err != nil {
		return store.Summary{}, fmt.Errorf("analytics: summary: %w", err)
	}
	if sum.Total == 0 {
		sum.AvgSeverity = 0
	}
	if sum.CrimeTypes == nil {
		sum.CrimeTypes = []store.TypeCount{}
	}
	return sum, nil
}

// Timeline groups matching records into day, week or month buckets. Week
// labels use the strftime %W scheme: weeks start on Monday, days before the
// first Monday of the year fall into week 00, and the number is zero-padded
// ("2024-W07"). Unknown groupings fall back to daily buckets.
func (s *Service) Timeline(ctx context.Context, filter Filter, groupBy string) (Timeline, error) {
	daily, err := s.store.DailyCounts(ctx, store.StatsFilter{
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		Region:   filter.Region,
	})
	if err != nil {
		return Timeline{}, fmt.Errorf("analytics: timeline: %w", err)
	}

	tl := Timeline{Periods: []string{}, Counts: []int{}, AvgSeverity: []float64{}}
	var lastPeriod string
	var count, sevSum int
	flush := func() {
		if lastPeriod == "" {
			return
		}
		tl.Periods = append(tl.Periods, lastPeriod)
		tl.Counts = append(tl.Counts, count)
		tl.AvgSeverity = append(tl.AvgSeverity, store.Round2(float64(sevSum)/float64(count)))
	}
	for _, dc := range daily {
		period := periodLabel(dc.Date, groupBy)
		if period != lastPeriod {
			flush()
			lastPeriod = period
			count, sevSum = 0, 0
		}
		count += dc.Count
		sevSum += dc.SeveritySum
	}
	flush()
	return tl, nil
}

func (s *Service) RegionsComparison(ctx context.Context, dateFrom, dateTo string) (Comparison, error) {
	stats, err := s.store.RegionsComparison(ctx, dateFrom, dateTo)
	if err != nil {
		return Comparison{}, fmt.Errorf("analytics: regions comparison: %w", err)
	}
	cmp := Comparison{Regions: []string{}, Counts: []int{}, AvgSeverity: []float64{}}
	for _, rs := range stats {
		cmp.Regions = append(cmp.Regions, rs.Region)
		cmp.Counts = append(cmp.Counts, rs.Count)
		cmp.AvgSeverity = append(cmp.AvgSeverity, rs.AvgSeverity)
	}
	return cmp, nil
}

// DistinctRegions lists regions present in the store, or the full registry
// when the store is empty. Always sorted ascending.
func (s *Service) DistinctRegions(ctx context.Context) ([]string, error) {
	names, err := s.store.DistinctRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: distinct regions: %w", err)
	}
	if len(names) == 0 {
		return s.registry.Names(), nil
	}
	return names, nil
}

// DistinctCrimeTypes lists crime categories present in the store, or the
// default category list when the store is empty. Always sorted ascending.
func (s *Service) DistinctCrimeTypes(ctx context.Context) ([]string, error) {
	types, err := s.store.DistinctCrimeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: distinct crime types: %w", err)
	}
	if len(types) == 0 {
		out := make([]string, len(DefaultCrimeTypes))
		copy(out, DefaultCrimeTypes)
		sort.Strings(out)
		return out, nil
	}
	return types, nil
}

func periodLabel(date, groupBy string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	switch groupBy {
	case "month":
		return t.Format("2006-01")
	case "week":
		return fmt.Sprintf("%04d-W%02d", t.Year(), weekOfYear(t))
	default:
		return date
	}
}

// weekOfYear computes the strftime %W week number: Monday-first, 00..53.
func weekOfYear(t time.Time) int {
	monday := (int(t.Weekday()) + 6) % 7
	return (t.YearDay() - 1 + 7 - monday) / 7
}
