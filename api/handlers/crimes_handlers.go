package handlers

import (
	"errors"
	"net/http"

	"crimevision/config"
	"crimevision/core/analytics"
	"crimevision/core/ingest"
	"crimevision/core/observability"
	"crimevision/core/store"
	"crimevision/core/utils"
)

const (
	listDefaultLimit = 1000
	listMaxLimit     = 5000
)

type CrimesHandler struct {
	cfg       *config.AppConfig
	crimes    store.CrimesStore
	analytics *analytics.Service
	ingest    *ingest.Service
	metrics   *observability.Metrics
	logger    *utils.Logger
}

func NewCrimesHandler(cfg *config.AppConfig, crimes store.CrimesStore, an *analytics.Service, ing *ingest.Service, metrics *observability.Metrics, logger *utils.Logger) *CrimesHandler {
	return &CrimesHandler{cfg: cfg, crimes: crimes, analytics: an, ingest: ing, metrics: metrics, logger: logger}
}

// Upload accepts a CSV file as multipart form field "file" or as a raw
// request body and loads it into the store.
func (h *CrimesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Ingest.UploadMaxBytes)

	src := r.Body
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		src = file
	} else {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
	}

	res, err := h.ingest.UploadCSV(r.Context(), src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		h.logger.Warnf("upload rejected: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.RowsIngested.Add(float64(res.Inserted))
		h.metrics.RowsRejected.Add(float64(len(res.Rejected)))
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CrimesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", listDefaultLimit)
	if limit <= 0 {
		limit = listDefaultLimit
	}
	if limit > listMaxLimit {
		limit = listMaxLimit
	}
	crimes, err := h.crimes.ListCrimes(r.Context(), store.CrimeFilter{
		DateFrom:  queryParam(r, "start_date"),
		DateTo:    queryParam(r, "end_date"),
		Region:    queryParam(r, "region"),
		CrimeType: queryParam(r, "crime_type"),
		Limit:     limit,
	})
	if err != nil {
		h.logger.Errorf("list crimes: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if crimes == nil {
		crimes = []store.Crime{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"crimes": crimes,
		"count":  len(crimes),
	})
}

func (h *CrimesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.analytics.Summary(r.Context(), analytics.Filter{
		DateFrom: queryParam(r, "start_date"),
		DateTo:   queryParam(r, "end_date"),
		Region:   queryParam(r, "region"),
	})
	if err != nil {
		h.logger.Errorf("stats summary: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *CrimesHandler) Regions(w http.ResponseWriter, r *http.Request) {
	names, err := h.analytics.DistinctRegions(r.Context())
	if err != nil {
		h.logger.Errorf("list regions: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": names})
}

func (h *CrimesHandler) CrimeTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.analytics.DistinctCrimeTypes(r.Context())
	if err != nil {
		h.logger.Errorf("list crime types: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"crime_types": types})
}
