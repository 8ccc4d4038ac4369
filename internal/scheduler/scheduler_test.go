package scheduler

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type stubChargeJob struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	lastAs  time.Time
}

func (j *stubChargeJob) GenerateForPeriod(ctx context.Context, asOf time.Time) (*domain.RunSummary, error) {
	j.calls.Add(1)
	j.lastAs = asOf
	if j.started != nil {
		close(j.started)
	}
	if j.release != nil {
		<-j.release
	}
	return &domain.RunSummary{}, nil
}

type stubDriftJob struct {
	since time.Time
	calls int
}

func (j *stubDriftJob) ReconcileTouchedSince(ctx context.Context, since time.Time) (int, int, int, error) {
	j.since = since
	j.calls++
	return 0, 0, 0, nil
}

type stubOverdueJob struct {
	calls int
	asOf  time.Time
}

func (j *stubOverdueJob) Sweep(ctx context.Context, asOf time.Time) ([]*domain.OverdueAlert, error) {
	j.calls++
	j.asOf = asOf
	return nil, nil
}

type stubSummaryJob struct {
	year  int
	month time.Month
	calls int
}

func (j *stubSummaryJob) SummarizeMonth(ctx context.Context, year int, month time.Month) (*domain.MonthlySummary, error) {
	j.year = year
	j.month = month
	j.calls++
	return &domain.MonthlySummary{Year: year, Month: int(month)}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{
			Timezone:       "UTC",
			GenerationSpec: "0 10 0 1 * *",
			DriftSpec:      "0 0 2 * * *",
			OverdueSpec:    "0 0 6 * * MON",
			SummarySpec:    "0 0 1 1 * *",
		},
	}
}

func newTestScheduler(charges ChargeJob, drift DriftJob, overdue OverdueJob, summary SummaryJob, clock Clock) *Scheduler {
	return New(charges, drift, overdue, summary, clock, testConfig(), testLogger())
}

func TestRunMonthlyGeneration_OverlapGuard(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, time.March, 1, 0, 10, 0, 0, time.UTC)}
	charges := &stubChargeJob{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	sched := newTestScheduler(charges, &stubDriftJob{}, &stubOverdueJob{}, &stubSummaryJob{}, clock)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.RunMonthlyGeneration()
	}()

	<-charges.started
	assert.Equal(t, StateRunning, sched.State())

	// the overlapping trigger is a skipped no-op, not queued
	sched.RunMonthlyGeneration()
	assert.Equal(t, int32(1), charges.calls.Load())

	close(charges.release)
	wg.Wait()

	assert.Equal(t, StateIdle, sched.State())

	// once idle again, the next tick runs
	charges.started = nil
	charges.release = nil
	sched.RunMonthlyGeneration()
	assert.Equal(t, int32(2), charges.calls.Load())
}

func TestRunMonthlyGeneration_UsesInjectedClock(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 10, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	charges := &stubChargeJob{}

	sched := newTestScheduler(charges, &stubDriftJob{}, &stubOverdueJob{}, &stubSummaryJob{}, clock)
	sched.RunMonthlyGeneration()

	assert.Equal(t, now, charges.lastAs)
}

func TestRunDailyDriftCheck_Looks24HoursBack(t *testing.T) {
	now := time.Date(2025, time.March, 15, 2, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	drift := &stubDriftJob{}

	sched := newTestScheduler(&stubChargeJob{}, drift, &stubOverdueJob{}, &stubSummaryJob{}, clock)
	sched.RunDailyDriftCheck()

	assert.Equal(t, 1, drift.calls)
	assert.Equal(t, now.Add(-24*time.Hour), drift.since)
}

func TestRunWeeklyOverdueSweep(t *testing.T) {
	now := time.Date(2025, time.March, 17, 6, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	overdue := &stubOverdueJob{}

	sched := newTestScheduler(&stubChargeJob{}, &stubDriftJob{}, overdue, &stubSummaryJob{}, clock)
	sched.RunWeeklyOverdueSweep()

	assert.Equal(t, 1, overdue.calls)
	assert.Equal(t, now, overdue.asOf)
}

func TestRunMonthlySummary_AggregatesPreviousMonth(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, time.April, 1, 1, 0, 0, 0, time.UTC)}
	summary := &stubSummaryJob{}

	sched := newTestScheduler(&stubChargeJob{}, &stubDriftJob{}, &stubOverdueJob{}, summary, clock)
	sched.RunMonthlySummary()

	assert.Equal(t, 1, summary.calls)
	assert.Equal(t, 2025, summary.year)
	assert.Equal(t, time.March, summary.month)
}

func TestRegister_WiresAllTicks(t *testing.T) {
	sched := newTestScheduler(&stubChargeJob{}, &stubDriftJob{}, &stubOverdueJob{}, &stubSummaryJob{}, SystemClock())

	c := cron.New(cron.WithSeconds())
	err := sched.Register(c)

	assert.NoError(t, err)
	assert.Len(t, c.Entries(), 4)
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.DriftSpec = "not a cron spec"

	sched := New(&stubChargeJob{}, &stubDriftJob{}, &stubOverdueJob{}, &stubSummaryJob{}, SystemClock(), cfg, testLogger())

	c := cron.New(cron.WithSeconds())
	assert.Error(t, sched.Register(c))
}
