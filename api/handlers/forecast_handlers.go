package handlers

import (
	"net/http"

	"crimevision/core/forecast"
	"crimevision/core/observability"
	"crimevision/core/utils"
)

type ForecastHandler struct {
	engine  *forecast.Engine
	metrics *observability.Metrics
	logger  *utils.Logger
}

func NewForecastHandler(engine *forecast.Engine, metrics *observability.Metrics, logger *utils.Logger) *ForecastHandler {
	return &ForecastHandler{engine: engine, metrics: metrics, logger: logger}
}

func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	res := h.engine.Forecast(r.Context(),
		queryParam(r, "region"),
		queryParam(r, "crime_type"),
		queryInt(r, "months", 0))
	if h.metrics != nil {
		h.metrics.ForecastRequests.WithLabelValues(res.Status).Inc()
	}
	writeJSON(w, http.StatusOK, res)
}
