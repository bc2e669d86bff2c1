// Package scheduler runs the daily maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/expense"
	"github.com/lunedance/lune/core/trial"
	"github.com/lunedance/lune/core/workedhour"
)

// Job is a unit of periodic work. Run returns how many records it touched.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	timeout time.Duration
}

// New registers the daily jobs, in the school's timezone.
func New(conf *core.Config, logger core.Logger, hours *workedhour.Service, trials *trial.Service, expenses *expense.Service) (*Scheduler, error) {
	return newScheduler(logger, conf.Jobs.Timeout,
		Job{Name: "worked hours batch", Spec: conf.Jobs.WorkedHoursSpec, Run: hours.CreateBatch},
		Job{Name: "trial promotion", Spec: conf.Jobs.TrialPromotionSpec, Run: trials.PromotePastDue},
		Job{Name: "expense overdue", Spec: conf.Jobs.ExpenseOverdueSpec, Run: expenses.MarkOverdue},
		Job{Name: "expense monthly reset", Spec: conf.Jobs.ExpenseResetSpec, Run: expenses.ResetMonthly},
	)
}

func newScheduler(logger core.Logger, timeout time.Duration, jobs ...Job) (*Scheduler, error) {
	cl := cronLogger{logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(calendar.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
	}
	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Spec, func() { s.run(job) }); err != nil {
			return nil, errors.Wrapf(err, "scheduling %s (%q)", job.Name, job.Spec)
		}
	}
	return s, nil
}

func (s *Scheduler) run(job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	n, err := job.Run(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("job %s failed", job.Name), err)
		return
	}
	s.logger.Info(fmt.Sprintf("job %s done: %d records", job.Name, n))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for the running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger sends cron's own logs to the app logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, pairs(keysAndValues))
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	extras := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		extras[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return extras
}
