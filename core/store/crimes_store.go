package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// DefaultListLimit bounds ListCrimes when the caller gives no limit.
	DefaultListLimit = 1000

	dateLayout = "2006-01-02"
)

// Crime is one reported incident. Records are immutable once written; the
// store exposes no update or delete statements for them.
type Crime struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Region    string    `json:"region"`
	City      string    `json:"city,omitempty"`
	CrimeType string    `json:"crime_type"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Severity  int       `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// CrimeFilter narrows ListCrimes. Empty fields mean "no constraint"; all set
// fields combine with AND. Date bounds are inclusive.
type CrimeFilter struct {
	DateFrom  string
	DateTo    string
	Region    string
	CrimeType string
	Limit     int
}

// StatsFilter narrows the aggregate queries.
type StatsFilter struct {
	DateFrom  string
	DateTo    string
	Region    string
	CrimeType string
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type Summary struct {
	Total       int         `json:"total"`
	AvgSeverity float64     `json:"avg_severity"`
	CrimeTypes  []TypeCount `json:"crime_types"`
}

// DailyCount is one calendar date's incident count with the severity sum, so
// callers can rebuild weighted averages after re-bucketing.
type DailyCount struct {
	Date        string
	Count       int
	SeveritySum int
}

type RegionStat struct {
	Region      string
	Count       int
	AvgSeverity float64
}

// RejectedRow describes one record skipped during a best-effort insert.
type RejectedRow struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type InsertResult struct {
	Inserted int           `json:"inserted"`
	Rejected []RejectedRow `json:"rejected,omitempty"`
}

type CrimesStore interface {
	InsertCrimes(ctx context.Context, crimes []Crime) (InsertResult, error)
	ListCrimes(ctx context.Context, filter CrimeFilter) ([]Crime, error)
	Summary(ctx context.Context, filter StatsFilter) (Summary, error)
	DailyCounts(ctx context.Context, filter StatsFilter) ([]DailyCount, error)
	RegionsComparison(ctx context.Context, dateFrom, dateTo string) ([]RegionStat, error)
	DistinctRegions(ctx context.Context) ([]string, error)
	DistinctCrimeTypes(ctx context.Context) ([]string, error)
}

type crimesStore struct {
	db     *sql.DB
	driver string
}

func NewCrimesStore(db *sql.DB, driver string) CrimesStore {
	return &crimesStore{db: db, driver: driver}
}

// ValidateCrime checks a record before insertion. Severity must already be in
// range; defaulting of missing fields is the ingest layer's job.
func ValidateCrime(c Crime) error {
	if _, err := time.Parse(dateLayout, c.Date); err != nil {
		return fmt.Errorf("bad date %q", c.Date)
	}
	if strings.TrimSpace(c.Region) == "" {
		return fmt.Errorf("empty region")
	}
	if strings.TrimSpace(c.CrimeType) == "" {
		return fmt.Errorf("empty crime_type")
	}
	if c.Severity < 1 || c.Severity > 5 {
		return fmt.Errorf("severity %d out of range 1..5", c.Severity)
	}
	if (c.Latitude == nil) != (c.Longitude == nil) {
		return fmt.Errorf("incomplete coordinates")
	}
	if c.Latitude != nil {
		if math.IsNaN(*c.Latitude) || math.IsInf(*c.Latitude, 0) ||
			math.IsNaN(*c.Longitude) || math.IsInf(*c.Longitude, 0) {
			return fmt.Errorf("non-finite coordinates")
		}
	}
	return nil
}

// InsertCrimes persists records one by one. A record that fails validation or
// insertion is skipped with a diagnostic; the batch never aborts. The error
// return is reserved for the store being unreachable.
func (s *crimesStore) InsertCrimes(ctx context.Context, crimes []Crime) (InsertResult, error) {
	var res InsertResult
	now := time.Now().UTC()
	query := rebind(s.driver, `
		INSERT INTO crimes(date, region, city, crime_type, latitude, longitude, severity, created_at)
		VALUES(?,?,?,?,?,?,?,?)`)
	for i, c := range crimes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := ValidateCrime(c); err != nil {
			res.Rejected = append(res.Rejected, RejectedRow{Index: i, Reason: err.Error()})
			continue
		}
		if _, err := s.db.ExecContext(ctx, query,
			c.Date, c.Region, strings.TrimSpace(c.City), c.CrimeType,
			nullableFloat(c.Latitude), nullableFloat(c.Longitude), c.Severity, now); err != nil {
			res.Rejected = append(res.Rejected, RejectedRow{Index: i, Reason: err.Error()})
			continue
		}
		res.Inserted++
	}
	return res, nil
}

func (s *crimesStore) ListCrimes(ctx context.Context, filter CrimeFilter) ([]Crime, error) {
	clauses, args := crimeClauses(filter.DateFrom, filter.DateTo, filter.Region, filter.CrimeType)
	query := `SELECT id, date, region, city, crime_type, latitude, longitude, severity, created_at FROM crimes`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += fmt.Sprintf(" ORDER BY date DESC, id DESC LIMIT %d", limit)
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Crime
	for rows.Next() {
		var c Crime
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Date, &c.Region, &c.City, &c.CrimeType, &lat, &lon, &c.Severity, &c.CreatedAt); err != nil {
			return nil, err
		}
		if lat.Valid {
			c.Latitude = &lat.Float64
		}
		if lon.Valid {
			c.Longitude = &lon.Float64
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *crimesStore) Summary(ctx context.Context, filter StatsFilter) (Summary, error) {
	clauses, args := crimeClauses(filter.DateFrom, filter.DateTo, filter.Region, filter.CrimeType)
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var sum Summary
	var avg sql.NullFloat64
	row := s.db.QueryRowContext(ctx, rebind(s.driver,
		`SELECT COUNT(*), AVG(severity) FROM crimes`+where), args...)
	if err := row.Scan(&sum.Total, &avg); err != nil {
		return Summary{}, err
	}
	if avg.Valid {
		sum.AvgSeverity = Round2(avg.Float64)
	}

	rows, err := s.db.QueryContext(ctx, rebind(s.driver,
		`SELECT crime_type, COUNT(*) FROM crimes`+where+
			` GROUP BY crime_type ORDER BY COUNT(*) DESC, crime_type ASC`), args...)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return Summary{}, err
		}
		sum.CrimeTypes = append(sum.CrimeTypes, tc)
	}
	return sum, rows.Err()
}

func (s *crimesStore) DailyCounts(ctx context.Context, filter StatsFilter) ([]DailyCount, error) {
	clauses, args := crimeClauses(filter.DateFrom, filter.DateTo, filter.Region, filter.CrimeType)
	query := `SELECT date, COUNT(*), SUM(severity) FROM crimes`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " GROUP BY date ORDER BY date ASC"
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count, &dc.SeveritySum); err != nil {
			return nil, err
		}
		res = append(res, dc)
	}
	return res, rows.Err()
}

// RegionsComparison ranks regions by incident count. Ties break on region
// name ascending so the ordering is deterministic.
func (s *crimesStore) RegionsComparison(ctx context.Context, dateFrom, dateTo string) ([]RegionStat, error) {
	clauses, args := crimeClauses(dateFrom, dateTo, "", "")
	query := `SELECT region, COUNT(*), AVG(severity) FROM crimes`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " GROUP BY region ORDER BY COUNT(*) DESC, region ASC"
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RegionStat
	for rows.Next() {
		var rs RegionStat
		var avg sql.NullFloat64
		if err := rows.Scan(&rs.Region, &rs.Count, &avg); err != nil {
			return nil, err
		}
		if avg.Valid {
			rs.AvgSeverity = Round2(avg.Float64)
		}
		res = append(res, rs)
	}
	return res, rows.Err()
}

func (s *crimesStore) DistinctRegions(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "region")
}

func (s *crimesStore) DistinctCrimeTypes(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "crime_type")
}

func (s *crimesStore) distinctColumn(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM crimes ORDER BY %s ASC`, column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func crimeClauses(dateFrom, dateTo, region, crimeType string) ([]string, []any) {
	var clauses []string
	var args []any
	if dateFrom != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, dateFrom)
	}
	if dateTo != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, dateTo)
	}
	if region != "" {
		clauses = append(clauses, "region = ?")
		args = append(args, region)
	}
	if crimeType != "" {
		clauses = append(clauses, "crime_type = ?")
		args = append(args, crimeType)
	}
	return clauses, args
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Round2 rounds to two decimal places, the precision every aggregate in the
// API reports.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
