package handlers

import (
	"net/http"

	"crimevision/core/analytics"
	"crimevision/core/geo"
	"crimevision/core/store"
	"crimevision/core/utils"
)

type AnalyticsHandler struct {
	analytics *analytics.Service
	geo       *geo.Service
	logger    *utils.Logger
}

func NewAnalyticsHandler(an *analytics.Service, g *geo.Service, logger *utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: an, geo: g, logger: logger}
}

func (h *AnalyticsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	groupBy := queryParam(r, "group_by")
	switch groupBy {
	case "":
		groupBy = "month"
	case "day", "week", "month":
	default:
		writeError(w, http.StatusBadRequest, "group_by must be day, week or month")
		return
	}
	tl, err := h.analytics.Timeline(r.Context(), analytics.Filter{
		DateFrom: queryParam(r, "start_date"),
		DateTo:   queryParam(r, "end_date"),
		Region:   queryParam(r, "region"),
	}, groupBy)
	if err != nil {
		h.logger.Errorf("timeline: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (h *AnalyticsHandler) RegionsComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := h.analytics.RegionsComparison(r.Context(), queryParam(r, "start_date"), queryParam(r, "end_date"))
	if err != nil {
		h.logger.Errorf("regions comparison: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (h *AnalyticsHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	hm, err := h.geo.HeatmapPoints(r.Context(), store.StatsFilter{
		DateFrom:  queryParam(r, "start_date"),
		DateTo:    queryParam(r, "end_date"),
		Region:    queryParam(r, "region"),
		CrimeType: queryParam(r, "crime_type"),
	})
	if err != nil {
		h.logger.Errorf("heatmap: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, hm)
}
