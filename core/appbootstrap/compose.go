package appbootstrap

import (
	"database/sql"

	"github.com/jonboulle/clockwork"

	"crimevision/api"
	"crimevision/config"
	"crimevision/core/analytics"
	"crimevision/core/forecast"
	"crimevision/core/geo"
	"crimevision/core/ingest"
	"crimevision/core/observability"
	"crimevision/core/regions"
	"crimevision/core/risk"
	"crimevision/core/store"
	"crimevision/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
	workers    []api.BackgroundWorker
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *runtimeComposition {
	crimes := store.NewCrimesStore(db, cfg.DBDriver)
	snapshots := store.NewRiskSnapshotsStore(db, cfg.DBDriver)
	registry := regions.Default()
	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	analyticsSvc := analytics.NewService(crimes, registry)
	geoSvc := geo.NewService(crimes, cfg.Geo)
	forecastEngine := forecast.NewEngine(crimes, clock, logger)
	riskSvc := risk.NewService(analyticsSvc, clock, logger)
	ingestSvc := ingest.NewService(crimes, registry, logger)
	scheduler := risk.NewSnapshotScheduler(cfg.Snapshots, riskSvc, analyticsSvc, snapshots, metrics, logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			DB:        db,
			Crimes:    crimes,
			Snapshots: snapshots,
			Analytics: analyticsSvc,
			Geo:       geoSvc,
			Forecast:  forecastEngine,
			Risk:      riskSvc,
			Ingest:    ingestSvc,
			Metrics:   metrics,
		},
		workers: []api.BackgroundWorker{scheduler},
	}
}
