package risk

import (
	"context"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"crimevision/config"
	"crimevision/core/analytics"
	"crimevision/core/observability"
	"crimevision/core/store"
	"crimevision/core/utils"
)

// SnapshotScheduler periodically assesses every known region and persists the
// results, building up risk history without touching the request path.
type SnapshotScheduler struct {
	cfg       config.SnapshotsConfig
	svc       *Service
	analytics *analytics.Service
	snapshots store.RiskSnapshotsStore
	metrics   *observability.Metrics
	logger    *utils.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewSnapshotScheduler(cfg config.SnapshotsConfig, svc *Service, an *analytics.Service, snaps store.RiskSnapshotsStore, metrics *observability.Metrics, logger *utils.Logger) *SnapshotScheduler {
	return &SnapshotScheduler{cfg: cfg, svc: svc, analytics: an, snapshots: snaps, metrics: metrics, logger: logger}
}

// Start registers the cron entry and begins scheduling. A bad cron expression
// is reported once and disables the scheduler instead of failing startup.
func (s *SnapshotScheduler) Start(ctx context.Context) {
	if s == nil || !s.cfg.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Cron, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Errorf("risk snapshots: run failed: %v", err)
		}
	}); err != nil {
		s.logger.Errorf("risk snapshots: invalid cron %q: %v", s.cfg.Cron, err)
		return
	}
	c.Start()
	s.cron = c
	s.running = true
	s.logger.Infof("risk snapshots: scheduled %q", s.cfg.Cron)
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *SnapshotScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// RunOnce assesses each known region and stores one snapshot per region.
// Degraded assessments are skipped; row-level insert failures are logged and
// do not stop the sweep.
func (s *SnapshotScheduler) RunOnce(ctx context.Context) error {
	names, err := s.analytics.DistinctRegions(ctx)
	if err != nil {
		return err
	}
	for _, region := range names {
		a := s.svc.Assess(ctx, region)
		if a.Status != StatusSuccess {
			s.logger.Warnf("risk snapshots: skipping region %q: %s", region, a.Error)
			continue
		}
		from, to := splitPeriod(a.Period)
		snap := &store.RiskSnapshot{
			Region:      region,
			RiskLevel:   a.RiskLevel,
			RiskScore:   a.RiskScore,
			TotalCrimes: a.TotalCrimes,
			AvgSeverity: a.AvgSeverity,
			PeriodFrom:  from,
			PeriodTo:    to,
		}
		if _, err := s.snapshots.InsertRiskSnapshot(ctx, snap); err != nil {
			s.logger.Errorf("risk snapshots: insert failed for region %q: %v", region, err)
			continue
		}
		if s.metrics != nil {
			s.metrics.SnapshotsPersists.Inc()
		}
	}
	return nil
}

func splitPeriod(period string) (from, to string) {
	parts := strings.SplitN(period, " - ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return period, period
}
