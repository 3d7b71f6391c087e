package risk

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"crimevision/core/analytics"
	"crimevision/core/regions"
	"crimevision/core/store"
	"crimevision/core/utils"
)

func TestScore_Thresholds(t *testing.T) {
	cases := []struct {
		total     int
		avgSev    float64
		wantLevel string
		wantScore int
	}{
		{0, 0, LevelLow, 0},
		{1, 1.0, LevelLow, 1},
		{49, 2.5, LevelLow, 1},
		{50, 1.0, LevelMedium, 2},
		{149, 2.0, LevelMedium, 2},
		{150, 1.0, LevelHigh, 3},
		{10000, 2.5, LevelHigh, 3},
		// Severity above 2.5 escalates one step and adds a point.
		{0, 3.0, LevelMedium, 1},
		{10, 2.6, LevelMedium, 2},
		{100, 3.0, LevelHigh, 3},
		{200, 4.9, LevelHigh, 4},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%v", tc.total, tc.avgSev), func(t *testing.T) {
			level, score := Score(tc.total, tc.avgSev)
			require.Equal(t, tc.wantLevel, level)
			require.Equal(t, tc.wantScore, score)
		})
	}
}

func newRiskFixture(t *testing.T, crimes []store.Crime, now time.Time) (*Service, store.RiskSnapshotsStore, *analytics.Service) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "risk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db, store.DriverSQLite))

	cs := store.NewCrimesStore(db, store.DriverSQLite)
	if len(crimes) > 0 {
		res, err := cs.InsertCrimes(context.Background(), crimes)
		require.NoError(t, err)
		require.Empty(t, res.Rejected)
	}
	an := analytics.NewService(cs, regions.Default())
	svc := NewService(an, clockwork.NewFakeClockAt(now), utils.NewNopLogger())
	return svc, store.NewRiskSnapshotsStore(db, store.DriverSQLite), an
}

func severityCrimes(region, date string, n, severity int) []store.Crime {
	out := make([]store.Crime, n)
	for i := range out {
		out[i] = store.Crime{Date: date, Region: region, CrimeType: "Кража", Severity: severity}
	}
	return out
}

func TestAssess_HighRiskWithEscalation(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newRiskFixture(t, severityCrimes("Алматы", "2024-05-15", 160, 3), now)

	a := svc.Assess(context.Background(), "Алматы")
	require.Equal(t, StatusSuccess, a.Status)
	require.Equal(t, "Алматы", a.Region)
	require.Equal(t, LevelHigh, a.RiskLevel)
	require.Equal(t, "Высокий", a.RiskLabel)
	require.Equal(t, 4, a.RiskScore)
	require.Equal(t, 160, a.TotalCrimes)
	require.Equal(t, 3.0, a.AvgSeverity)
	require.Equal(t, "2024-03-03 - 2024-06-01", a.Period)
	require.Empty(t, a.Error)
}

func TestAssess_WindowExcludesOldRecords(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	crimes := append(
		severityCrimes("Алматы", "2024-01-01", 500, 5), // outside the 90 days
		severityCrimes("Алматы", "2024-05-01", 10, 1)...,
	)
	svc, _, _ := newRiskFixture(t, crimes, now)

	a := svc.Assess(context.Background(), "Алматы")
	require.Equal(t, LevelLow, a.RiskLevel)
	require.Equal(t, 1, a.RiskScore)
	require.Equal(t, 10, a.TotalCrimes)
}

func TestAssess_EmptyRegionLabel(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newRiskFixture(t, nil, now)

	a := svc.Assess(context.Background(), "")
	require.Equal(t, StatusSuccess, a.Status)
	require.Equal(t, "Все регионы", a.Region)
	require.Equal(t, LevelLow, a.RiskLevel)
	require.Zero(t, a.RiskScore)
	require.Zero(t, a.TotalCrimes)
}
