// Package forecast fits a linear trend to daily incident counts and projects
// future monthly values. It always returns a usable result: when history is
// too thin or the store fails, a flat default projection is served instead of
// an error.
package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"crimevision/core/store"
	"crimevision/core/utils"
)

const (
	// StatusFitted marks a forecast produced by the regression.
	StatusFitted = "success"
	// StatusDefault marks the flat fallback projection.
	StatusDefault = "default"

	historyLimit    = 10000
	defaultMonths   = 3
	maxMonths       = 36
	horizonStepDays = 30
	defaultDaily    = 50.0

	dateLayout = "2006-01-02"

	labelAllRegions = "Все регионы"
	labelAllTypes   = "Все типы"

	insufficientDataNote = "Прогноз на основе средних значений (недостаточно данных)"
)

// Result carries the projection plus a status discriminant so callers and
// tests can tell a fitted forecast from the fallback without inspecting
// values.
type Result struct {
	Status        string    `json:"status"`
	Dates         []string  `json:"dates"`
	Values        []float64 `json:"values"`
	Region        string    `json:"region"`
	CrimeType     string    `json:"crime_type"`
	HistoricalAvg float64   `json:"historical_avg"`
	Note          string    `json:"note,omitempty"`
}

type Engine struct {
	store  store.CrimesStore
	clock  clockwork.Clock
	logger *utils.Logger
}

func NewEngine(st store.CrimesStore, clock clockwork.Clock, logger *utils.Logger) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{store: st, clock: clock, logger: logger}
}

// Forecast projects incident counts for the requested number of months.
// Both region and crime type narrow the underlying history query. Months
// outside [1, 36] are normalized: non-positive falls back to 3, larger
// values are capped.
func (e *Engine) Forecast(ctx context.Context, region, crimeType string, months int) Result {
	if months <= 0 {
		months = defaultMonths
	}
	if months > maxMonths {
		months = maxMonths
	}

	crimes, err := e.store.ListCrimes(ctx, store.CrimeFilter{
		Region:    region,
		CrimeType: crimeType,
		Limit:     historyLimit,
	})
	if err != nil {
		e.logger.Warnf("forecast: history fetch failed, serving default: %v", err)
		return e.defaultResult(region, crimeType, months)
	}

	daily := map[string]int{}
	for _, c := range crimes {
		daily[c.Date]++
	}
	if len(daily) < 2 {
		return e.defaultResult(region, crimeType, months)
	}

	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	earliest, err := time.Parse(dateLayout, dates[0])
	if err != nil {
		e.logger.Warnf("forecast: bad date %q in history, serving default", dates[0])
		return e.defaultResult(region, crimeType, months)
	}
	last, err := time.Parse(dateLayout, dates[len(dates)-1])
	if err != nil {
		e.logger.Warnf("forecast: bad date %q in history, serving default", dates[len(dates)-1])
		return e.defaultResult(region, crimeType, months)
	}

	xs := make([]float64, 0, len(dates))
	ys := make([]float64, 0, len(dates))
	var total int
	for _, d := range dates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			continue
		}
		xs = append(xs, dayOffset(earliest, t))
		ys = append(ys, float64(daily[d]))
		total += daily[d]
	}
	slope, intercept, ok := fitLine(xs, ys)
	if !ok {
		return e.defaultResult(region, crimeType, months)
	}

	res := Result{
		Status:        StatusFitted,
		Dates:         make([]string, 0, months),
		Values:        make([]float64, 0, months),
		Region:        orLabel(region, labelAllRegions),
		CrimeType:     orLabel(crimeType, labelAllTypes),
		HistoricalAvg: store.Round2(float64(total) / float64(len(xs))),
	}
	for i := 1; i <= months; i++ {
		future := last.AddDate(0, 0, horizonStepDays*i)
		predicted := intercept + slope*dayOffset(earliest, future)
		if predicted < 0 {
			predicted = 0
		}
		res.Dates = append(res.Dates, future.Format(dateLayout))
		res.Values = append(res.Values, store.Round2(predicted))
	}
	return res
}

func (e *Engine) defaultResult(region, crimeType string, months int) Result {
	res := Result{
		Status:        StatusDefault,
		Dates:         make([]string, 0, months),
		Values:        make([]float64, 0, months),
		Region:        orLabel(region, labelAllRegions),
		CrimeType:     orLabel(crimeType, labelAllTypes),
		HistoricalAvg: defaultDaily,
		Note:          insufficientDataNote,
	}
	base := e.clock.Now().UTC()
	for i := 1; i <= months; i++ {
		res.Dates = append(res.Dates, base.AddDate(0, 0, horizonStepDays*i).Format(dateLayout))
		res.Values = append(res.Values, defaultDaily)
	}
	return res
}

// fitLine computes an ordinary least-squares line through the points. ok is
// false when all x values coincide.
func fitLine(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

func dayOffset(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func orLabel(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
