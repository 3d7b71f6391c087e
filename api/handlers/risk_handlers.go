package handlers

import (
	"net/http"

	"crimevision/core/observability"
	"crimevision/core/risk"
	"crimevision/core/store"
	"crimevision/core/utils"
)

const historyDefaultLimit = 100

type RiskHandler struct {
	risk      *risk.Service
	snapshots store.RiskSnapshotsStore
	metrics   *observability.Metrics
	logger    *utils.Logger
}

func NewRiskHandler(svc *risk.Service, snaps store.RiskSnapshotsStore, metrics *observability.Metrics, logger *utils.Logger) *RiskHandler {
	return &RiskHandler{risk: svc, snapshots: snaps, metrics: metrics, logger: logger}
}

// Assess serves the risk assessment for one region, or across all regions
// when the region parameter is absent.
func (h *RiskHandler) Assess(w http.ResponseWriter, r *http.Request) {
	a := h.risk.Assess(r.Context(), queryParam(r, "region"))
	if h.metrics != nil {
		h.metrics.RiskAssessments.WithLabelValues(a.RiskLevel).Inc()
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *RiskHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", historyDefaultLimit)
	if limit <= 0 || limit > listMaxLimit {
		limit = historyDefaultLimit
	}
	snaps, err := h.snapshots.ListRiskSnapshots(r.Context(), queryParam(r, "region"), limit)
	if err != nil {
		h.logger.Errorf("risk history: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if snaps == nil {
		snaps = []store.RiskSnapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": snaps,
		"count":     len(snaps),
	})
}
