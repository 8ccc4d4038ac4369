package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/domain"
)

// State of the monthly generation job.
type State int

const (
	StateIdle State = iota
	StateRunning
)

// Clock abstracts time.Now so ticks can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

// ChargeJob generates charges for the period containing asOf.
type ChargeJob interface {
	GenerateForPeriod(ctx context.Context, asOf time.Time) (*domain.RunSummary, error)
}

// DriftJob reconciles accounts touched since a point in time.
type DriftJob interface {
	ReconcileTouchedSince(ctx context.Context, since time.Time) (checked, corrected, errored int, err error)
}

// OverdueJob runs the overdue detection sweep.
type OverdueJob interface {
	Sweep(ctx context.Context, asOf time.Time) ([]*domain.OverdueAlert, error)
}

// SummaryJob aggregates one calendar month of billing activity.
type SummaryJob interface {
	SummarizeMonth(ctx context.Context, year int, month time.Month) (*domain.MonthlySummary, error)
}

// Scheduler drives the periodic billing ticks. The monthly generation job
// carries an overlap guard: a trigger that lands while a prior run is still
// executing is skipped and logged, never queued.
type Scheduler struct {
	charges ChargeJob
	drift   DriftJob
	overdue OverdueJob
	summary SummaryJob
	clock   Clock
	cfg     *config.Config
	log     *logrus.Logger

	mu    sync.Mutex
	state State
}

func New(
	charges ChargeJob,
	drift DriftJob,
	overdue OverdueJob,
	summary SummaryJob,
	clock Clock,
	cfg *config.Config,
	log *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		charges: charges,
		drift:   drift,
		overdue: overdue,
		summary: summary,
		clock:   clock,
		cfg:     cfg,
		log:     log,
		state:   StateIdle,
	}
}

// State returns the generation job's current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// tryBegin transitions Idle -> Running; false means a run is in flight.
func (s *Scheduler) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return false
	}
	s.state = StateRunning
	return true
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

// Register wires the four ticks into the cron runner using the configured
// specs.
func (s *Scheduler) Register(c *cron.Cron) error {
	specs := map[string]func(){
		s.cfg.Scheduler.GenerationSpec: s.RunMonthlyGeneration,
		s.cfg.Scheduler.DriftSpec:      s.RunDailyDriftCheck,
		s.cfg.Scheduler.OverdueSpec:    s.RunWeeklyOverdueSweep,
		s.cfg.Scheduler.SummarySpec:    s.RunMonthlySummary,
	}

	for spec, job := range specs {
		if _, err := c.AddFunc(spec, job); err != nil {
			return err
		}
	}

	return nil
}

// RunMonthlyGeneration fires the charge generation sweep for the current
// period, guarded against overlapping executions.
func (s *Scheduler) RunMonthlyGeneration() {
	if !s.tryBegin() {
		s.log.Warn("monthly generation tick skipped: prior run still in flight")
		return
	}
	defer s.end()

	asOf := s.clock.Now()
	s.log.WithField("as_of", asOf.Format("2006-01-02")).Info("monthly charge generation tick")

	if _, err := s.charges.GenerateForPeriod(context.Background(), asOf); err != nil {
		s.log.WithError(err).Error("monthly charge generation failed")
	}
}

// RunDailyDriftCheck reconciles accounts touched in the last 24 hours.
func (s *Scheduler) RunDailyDriftCheck() {
	since := s.clock.Now().Add(-24 * time.Hour)
	s.log.WithField("since", since.Format(time.RFC3339)).Info("daily drift check tick")

	checked, corrected, errored, err := s.drift.ReconcileTouchedSince(context.Background(), since)
	if err != nil {
		s.log.WithError(err).Error("daily drift check failed")
		return
	}

	s.log.WithFields(logrus.Fields{
		"checked":   checked,
		"corrected": corrected,
		"errored":   errored,
	}).Info("daily drift check finished")
}

// RunWeeklyOverdueSweep flags overdue accounts.
func (s *Scheduler) RunWeeklyOverdueSweep() {
	asOf := s.clock.Now()
	s.log.WithField("as_of", asOf.Format("2006-01-02")).Info("weekly overdue sweep tick")

	if _, err := s.overdue.Sweep(context.Background(), asOf); err != nil {
		s.log.WithError(err).Error("weekly overdue sweep failed")
	}
}

// RunMonthlySummary aggregates the previous calendar month.
func (s *Scheduler) RunMonthlySummary() {
	prev := s.clock.Now().AddDate(0, -1, 0)
	s.log.WithFields(logrus.Fields{
		"year":  prev.Year(),
		"month": int(prev.Month()),
	}).Info("monthly summary tick")

	if _, err := s.summary.SummarizeMonth(context.Background(), prev.Year(), prev.Month()); err != nil {
		s.log.WithError(err).Error("monthly summary aggregation failed")
	}
}
