package api

import "crimevision/api/handlers"

type routeHandlers struct {
	crimes    *handlers.CrimesHandler
	analytics *handlers.AnalyticsHandler
	forecast  *handlers.ForecastHandler
	risk      *handlers.RiskHandler
	health    *handlers.HealthHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	return routeHandlers{
		crimes:    handlers.NewCrimesHandler(s.cfg, s.crimes, s.analytics, s.ingest, s.metrics, s.logger),
		analytics: handlers.NewAnalyticsHandler(s.analytics, s.geo, s.logger),
		forecast:  handlers.NewForecastHandler(s.forecast, s.metrics, s.logger),
		risk:      handlers.NewRiskHandler(s.risk, s.snapshots, s.metrics, s.logger),
		health:    handlers.NewHealthHandler(s.db),
	}
}
