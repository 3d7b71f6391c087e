// Package geo turns stored incident records into heatmap-ready weighted
// points, bounded to a configurable geographic envelope.
package geo

import (
	"context"
	"fmt"

	"crimevision/config"
	"crimevision/core/store"
)

const (
	minWeight = 0.5
	maxWeight = 5.0
)

// Point is one heatmap sample: a coordinate plus a severity-derived weight.
type Point struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

// Heatmap is the point set for one query, along with the deployment's map
// center and the number of points that survived filtering.
type Heatmap struct {
	Points []Point    `json:"points"`
	Center [2]float64 `json:"center"`
	Count  int        `json:"count"`
}

// Envelope is the valid latitude/longitude rectangle; records outside it are
// silently excluded from heatmap output.
type Envelope struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (e Envelope) Contains(lat, lon float64) bool {
	return lat >= e.MinLat && lat <= e.MaxLat && lon >= e.MinLon && lon <= e.MaxLon
}

type Service struct {
	store    store.CrimesStore
	envelope Envelope
	center   [2]float64
	pointCap int
}

func NewService(st store.CrimesStore, cfg config.GeoConfig) *Service {
	return &Service{
		store: st,
		envelope: Envelope{
			MinLat: cfg.MinLat, MaxLat: cfg.MaxLat,
			MinLon: cfg.MinLon, MaxLon: cfg.MaxLon,
		},
		center:   [2]float64{cfg.CenterLat, cfg.CenterLon},
		pointCap: cfg.PointCap,
	}
}

// HeatmapPoints fetches matching records and keeps only those with finite
// coordinates inside the envelope. The weight is the record severity clamped
// to [0.5, 5.0]. Records failing the checks are dropped without error; the
// exclusion count is len(input) minus Count.
func (s *Service) HeatmapPoints(ctx context.Context, filter store.StatsFilter) (Heatmap, error) {
	crimes, err := s.store.ListCrimes(ctx, store.CrimeFilter{
		DateFrom:  filter.DateFrom,
		DateTo:    filter.DateTo,
		Region:    filter.Region,
		CrimeType: filter.CrimeType,
		Limit:     s.pointCap,
	})
	if err != nil {
		return Heatmap{}, fmt.Errorf("geo: list crimes: %w", err)
	}

	hm := Heatmap{Points: []Point{}, Center: s.center}
	for _, c := range crimes {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		lat, lon := *c.Latitude, *c.Longitude
		if !s.envelope.Contains(lat, lon) {
			continue
		}
		weight := float64(c.Severity)
		if weight < minWeight {
			weight = minWeight
		}
		if weight > maxWeight {
			weight = maxWeight
		}
		hm.Points = append(hm.Points, Point{Lat: lat, Lon: lon, Weight: weight})
	}
	hm.Count = len(hm.Points)
	return hm, nil
}
