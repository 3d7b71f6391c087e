package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"crimevision/config"
	"crimevision/core/store"
)

type stubStore struct {
	store.CrimesStore
	crimes []store.Crime
	err    error
	filter store.CrimeFilter
}

func (s *stubStore) ListCrimes(_ context.Context, f store.CrimeFilter) ([]store.Crime, error) {
	s.filter = f
	return s.crimes, s.err
}

func ptr(v float64) *float64 { return &v }

func kzConfig() config.GeoConfig {
	return config.GeoConfig{
		MinLat: 40, MaxLat: 55, MinLon: 46, MaxLon: 87,
		CenterLat: 48.0196, CenterLon: 66.9237,
		PointCap: 5000,
	}
}

func TestHeatmapPoints_FiltersAndWeights(t *testing.T) {
	st := &stubStore{crimes: []store.Crime{
		{Latitude: ptr(43.2), Longitude: ptr(76.9), Severity: 3},
		{Latitude: nil, Longitude: nil, Severity: 2},                // no coords
		{Latitude: ptr(59.9), Longitude: ptr(30.3), Severity: 4},   // outside envelope
		{Latitude: ptr(51.1), Longitude: ptr(71.4), Severity: 0},   // weight clamps up
		{Latitude: ptr(42.3), Longitude: ptr(69.6), Severity: 9},   // weight clamps down
		{Latitude: ptr(40.0), Longitude: ptr(87.0), Severity: 1},   // boundary inclusive
		{Latitude: ptr(39.99), Longitude: ptr(66.0), Severity: 1},  // just below
	}}
	svc := NewService(st, kzConfig())

	hm, err := svc.HeatmapPoints(context.Background(), store.StatsFilter{Region: "Алматы", CrimeType: "Кража"})
	require.NoError(t, err)
	require.Equal(t, 4, hm.Count)
	require.Len(t, hm.Points, 4)
	require.Equal(t, [2]float64{48.0196, 66.9237}, hm.Center)

	require.Equal(t, 3.0, hm.Points[0].Weight)
	require.Equal(t, 0.5, hm.Points[1].Weight)
	require.Equal(t, 5.0, hm.Points[2].Weight)
	require.Equal(t, Point{Lat: 40.0, Lon: 87.0, Weight: 1}, hm.Points[3])

	// The store query carries the caller's filter and the point cap.
	require.Equal(t, "Алматы", st.filter.Region)
	require.Equal(t, "Кража", st.filter.CrimeType)
	require.Equal(t, 5000, st.filter.Limit)
}

func TestHeatmapPoints_EmptyAndError(t *testing.T) {
	svc := NewService(&stubStore{}, kzConfig())
	hm, err := svc.HeatmapPoints(context.Background(), store.StatsFilter{})
	require.NoError(t, err)
	require.NotNil(t, hm.Points)
	require.Empty(t, hm.Points)
	require.Zero(t, hm.Count)

	svc = NewService(&stubStore{err: errors.New("down")}, kzConfig())
	_, err = svc.HeatmapPoints(context.Background(), store.StatsFilter{})
	require.Error(t, err)
}

func TestEnvelope_Contains(t *testing.T) {
	e := Envelope{MinLat: 40, MaxLat: 55, MinLon: 46, MaxLon: 87}
	require.True(t, e.Contains(48, 67))
	require.True(t, e.Contains(40, 46))
	require.True(t, e.Contains(55, 87))
	require.False(t, e.Contains(39.999, 67))
	require.False(t, e.Contains(48, 87.001))
}
