package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"crimevision/core/regions"
	"crimevision/core/store"
	"crimevision/core/utils"
)

// Result reports the outcome of one CSV upload.
type Result struct {
	BatchID  string              `json:"batch_id"`
	Total    int                 `json:"total"`
	Inserted int                 `json:"inserted"`
	Rejected []store.RejectedRow `json:"rejected,omitempty"`
}

// Service parses CSV crime exports and loads them into the store. Missing
// fields are filled with defaults instead of rejecting the row; only rows
// the store itself refuses to validate are reported back.
type Service struct {
	store    store.CrimesStore
	registry *regions.Registry
	logger   *utils.Logger
}

func NewService(crimes store.CrimesStore, registry *regions.Registry, logger *utils.Logger) *Service {
	return &Service{store: crimes, registry: registry, logger: logger}
}

const (
	defaultRegion    = "Алматы"
	defaultCrimeType = "Другое"
	defaultSeverity  = 1
)

var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05", "02.01.2006", "2006/01/02"}

// UploadCSV reads a header-led CSV stream and inserts the parsed rows.
// Column order is free; recognized headers are date, region, city,
// crime_type, latitude, longitude and severity. Row indexes in the result
// are zero-based data rows, matching what a client sees after the header.
func (s *Service) UploadCSV(ctx context.Context, r io.Reader) (Result, error) {
	batch, err := uuid.NewV4()
	if err != nil {
		return Result{}, fmt.Errorf("batch id: %w", err)
	}
	res := Result{BatchID: batch.String()}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return res, fmt.Errorf("empty file")
	}
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["date"]; !ok {
		return res, fmt.Errorf("missing required column %q", "date")
	}

	var crimes []store.Crime
	var rowOf []int
	var parseRejects []store.RejectedRow
	row := -1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			// Malformed rows are skipped; an I/O failure (including the
			// request body size cap) aborts the whole upload.
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				parseRejects = append(parseRejects, store.RejectedRow{Index: row, Reason: err.Error()})
				continue
			}
			return res, fmt.Errorf("read row %d: %w", row, err)
		}
		res.Total++
		c, err := s.parseRow(cols, rec)
		if err != nil {
			parseRejects = append(parseRejects, store.RejectedRow{Index: row, Reason: err.Error()})
			continue
		}
		crimes = append(crimes, c)
		rowOf = append(rowOf, row)
	}

	ins, err := s.store.InsertCrimes(ctx, crimes)
	if err != nil {
		return res, err
	}
	res.Inserted = ins.Inserted
	res.Rejected = parseRejects
	// Store rejects come back indexed by batch position; map them back to
	// CSV row numbers.
	for _, rej := range ins.Rejected {
		if rej.Index >= 0 && rej.Index < len(rowOf) {
			rej.Index = rowOf[rej.Index]
		}
		res.Rejected = append(res.Rejected, rej)
	}
	sort.Slice(res.Rejected, func(i, j int) bool { return res.Rejected[i].Index < res.Rejected[j].Index })
	s.logger.Infof("ingest: batch %s: %d rows, %d inserted, %d rejected",
		res.BatchID, res.Total, res.Inserted, len(res.Rejected))
	return res, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if key != "" {
			cols[key] = i
		}
	}
	return cols
}

func (s *Service) parseRow(cols map[string]int, rec []string) (store.Crime, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := normalizeDate(field("date"))
	if err != nil {
		return store.Crime{}, err
	}
	c := store.Crime{
		Date:      date,
		Region:    field("region"),
		City:      field("city"),
		CrimeType: field("crime_type"),
		Severity:  defaultSeverity,
	}
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.CrimeType == "" {
		c.CrimeType = defaultCrimeType
	}
	if v := field("severity"); v != "" {
		sev, err := strconv.Atoi(v)
		if err != nil {
			return store.Crime{}, fmt.Errorf("bad severity %q", v)
		}
		c.Severity = sev
	}

	latRaw, lonRaw := field("latitude"), field("longitude")
	if latRaw != "" && lonRaw != "" {
		lat, err := strconv.ParseFloat(latRaw, 64)
		if err != nil {
			return store.Crime{}, fmt.Errorf("bad latitude %q", latRaw)
		}
		lon, err := strconv.ParseFloat(lonRaw, 64)
		if err != nil {
			return store.Crime{}, fmt.Errorf("bad longitude %q", lonRaw)
		}
		c.Latitude, c.Longitude = &lat, &lon
	} else if cent, ok := s.registry.Centroid(c.Region); ok {
		lat, lon := cent.Lat, cent.Lon
		c.Latitude, c.Longitude = &lat, &lon
	}
	return c, nil
}

func normalizeDate(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("bad date %q", raw)
}
