// Package risk derives a coarse risk level from recent aggregate statistics.
// A failed assessment degrades to an "unknown" payload rather than an error,
// so the service boundary always has something well-formed to serve.
package risk

import (
	"context"

	"github.com/jonboulle/clockwork"

	"crimevision/core/analytics"
	"crimevision/core/utils"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	LevelLow     = "low"
	LevelMedium  = "medium"
	LevelHigh    = "high"
	LevelUnknown = "unknown"

	// windowDays is the trailing assessment window.
	windowDays = 90

	maxScore = 5

	dateLayout = "2006-01-02"

	labelAllRegions = "Все регионы"
)

var levelLabels = map[string]string{
	LevelLow:     "Низкий",
	LevelMedium:  "Средний",
	LevelHigh:    "Высокий",
	LevelUnknown: "Недостаточно данных",
}

// Assessment is the scored result for one region (or all regions when Region
// is the all-regions label). Status distinguishes a computed result from a
// degraded one; Error is set only on degradation.
type Assessment struct {
	Status      string  `json:"status"`
	Region      string  `json:"region"`
	RiskLevel   string  `json:"risk_level"`
	RiskLabel   string  `json:"risk_label"`
	RiskScore   int     `json:"risk_score"`
	TotalCrimes int     `json:"total_crimes"`
	AvgSeverity float64 `json:"avg_severity"`
	Period      string  `json:"period"`
	Error       string  `json:"error,omitempty"`
}

type Service struct {
	analytics *analytics.Service
	clock     clockwork.Clock
	logger    *utils.Logger
}

func NewService(an *analytics.Service, clock clockwork.Clock, logger *utils.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{analytics: an, clock: clock, logger: logger}
}

// Assess scores the trailing 90 days for the given region ("" means all).
//
// Counts set the base: 0 crimes scores 0 (low), under 50 scores 1 (low),
// under 150 scores 2 (medium), 150 and above scores 3 (high). Average
// severity above 2.5 adds one point and escalates the level one step. The
// score never exceeds 5.
func (s *Service) Assess(ctx context.Context, region string) Assessment {
	now := s.clock.Now().UTC()
	from := now.AddDate(0, 0, -windowDays).Format(dateLayout)
	to := now.Format(dateLayout)
	period := from + " - " + to

	sum, err := s.analytics.Summary(ctx, analytics.Filter{
		DateFrom: from,
		DateTo:   to,
		Region:   region,
	})
	if err != nil {
		s.logger.Errorf("risk: summary failed for region %q: %v", region, err)
		return Assessment{
			Status:    StatusError,
			Region:    orLabel(region, labelAllRegions),
			RiskLevel: LevelUnknown,
			RiskLabel: levelLabels[LevelUnknown],
			Period:    period,
			Error:     err.Error(),
		}
	}

	level, score := Score(sum.Total, sum.AvgSeverity)
	return Assessment{
		Status:      StatusSuccess,
		Region:      orLabel(region, labelAllRegions),
		RiskLevel:   level,
		RiskLabel:   levelLabels[level],
		RiskScore:   score,
		TotalCrimes: sum.Total,
		AvgSeverity: sum.AvgSeverity,
		Period:      period,
	}
}

// Score maps a crime count and average severity to a risk level and a score
// in [0, 5].
func Score(totalCrimes int, avgSeverity float64) (level string, score int) {
	switch {
	case totalCrimes == 0:
		level, score = LevelLow, 0
	case totalCrimes < 50:
		level, score = LevelLow, 1
	case totalCrimes < 150:
		level, score = LevelMedium, 2
	default:
		level, score = LevelHigh, 3
	}
	if avgSeverity > 2.5 {
		score++
		switch level {
		case LevelLow:
			level = LevelMedium
		case LevelMedium:
			level = LevelHigh
		}
	}
	if score > maxScore {
		score = maxScore
	}
	return level, score
}

func orLabel(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
