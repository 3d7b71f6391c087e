package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RiskSnapshot is a persisted output of the risk scorer for one region,
// written by the nightly snapshot job.
type RiskSnapshot struct {
	ID          int64     `json:"id"`
	Region      string    `json:"region"`
	RiskLevel   string    `json:"risk_level"`
	RiskScore   int       `json:"risk_score"`
	TotalCrimes int       `json:"total_crimes"`
	AvgSeverity float64   `json:"avg_severity"`
	PeriodFrom  string    `json:"period_from"`
	PeriodTo    string    `json:"period_to"`
	TakenAt     time.Time `json:"taken_at"`
}

type RiskSnapshotsStore interface {
	InsertRiskSnapshot(ctx context.Context, snap *RiskSnapshot) (int64, error)
	ListRiskSnapshots(ctx context.Context, region string, limit int) ([]RiskSnapshot, error)
}

type riskSnapshotsStore struct {
	db     *sql.DB
	driver string
}

func NewRiskSnapshotsStore(db *sql.DB, driver string) RiskSnapshotsStore {
	return &riskSnapshotsStore{db: db, driver: driver}
}

func (s *riskSnapshotsStore) InsertRiskSnapshot(ctx context.Context, snap *RiskSnapshot) (int64, error) {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}
	query := rebind(s.driver, `
		INSERT INTO risk_snapshots(region, risk_level, risk_score, total_crimes, avg_severity, period_from, period_to, taken_at)
		VALUES(?,?,?,?,?,?,?,?)`)
	if s.driver == DriverPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, query+" RETURNING id",
			snap.Region, snap.RiskLevel, snap.RiskScore, snap.TotalCrimes,
			snap.AvgSeverity, snap.PeriodFrom, snap.PeriodTo, snap.TakenAt).Scan(&id)
		if err != nil {
			return 0, err
		}
		snap.ID = id
		return id, nil
	}
	res, err := s.db.ExecContext(ctx, query,
		snap.Region, snap.RiskLevel, snap.RiskScore, snap.TotalCrimes,
		snap.AvgSeverity, snap.PeriodFrom, snap.PeriodTo, snap.TakenAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	snap.ID = id
	return id, nil
}

func (s *riskSnapshotsStore) ListRiskSnapshots(ctx context.Context, region string, limit int) ([]RiskSnapshot, error) {
	var clauses []string
	var args []any
	if region != "" {
		clauses = append(clauses, "region = ?")
		args = append(args, region)
	}
	query := `SELECT id, region, risk_level, risk_score, total_crimes, avg_severity, period_from, period_to, taken_at FROM risk_snapshots`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY taken_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RiskSnapshot
	for rows.Next() {
		var snap RiskSnapshot
		if err := rows.Scan(&snap.ID, &snap.Region, &snap.RiskLevel, &snap.RiskScore,
			&snap.TotalCrimes, &snap.AvgSeverity, &snap.PeriodFrom, &snap.PeriodTo, &snap.TakenAt); err != nil {
			return nil, err
		}
		res = append(res, snap)
	}
	return res, rows.Err()
}
