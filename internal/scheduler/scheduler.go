// Package scheduler runs ingestion passes on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Adda-Baaj/durjog-khobor/internal/ingest"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

// DefaultInterval is the time between scheduled passes.
const DefaultInterval = 10 * time.Minute

// ErrInvalidInterval is returned for intervals cron cannot express.
var ErrInvalidInterval = errors.New("scheduler interval must be at least one second")

// Runner runs one ingestion pass.
type Runner interface {
	RunPass(ctx context.Context) (ingest.Report, error)
}

// Scheduler triggers Runner every interval. A tick that arrives while the
// previous scheduled pass is still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	interval time.Duration
	log      logger.Logger

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
	stopped bool
}

// New creates a Scheduler. A zero interval uses DefaultInterval.
func New(runner Runner, interval time.Duration, log logger.Logger) (*Scheduler, error) {
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < time.Second {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}
	log = logger.Ensure(log)
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		runner:   runner,
		interval: interval,
		log:      log,
	}, nil
}

// Spec returns the cron schedule expression.
func (s *Scheduler) Spec() string {
	return "@every " + s.interval.String()
}

// Start registers the pass and starts the cron loop. It does not run a pass
// immediately.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.stopped {
		return errors.New("scheduler already stopped")
	}

	id, err := s.cron.AddJob(s.Spec(), s.job())
	if err != nil {
		return fmt.Errorf("schedule ingestion pass: %w", err)
	}
	s.entry = id
	s.started = true
	s.cron.Start()

	s.log.InfoObj("scheduler started", "scheduler_start", map[string]any{
		"interval": s.interval.String(),
		"next_run": s.cron.Entry(id).Next,
	})
	return nil
}

// Stop halts scheduling and waits for a running pass to finish or for ctx
// to expire. The running pass itself is never cancelled. A stopped
// Scheduler cannot be restarted.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.stopped = true
	s.mu.Unlock()
	if !started {
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.InfoObj("scheduler stopped", "scheduler_stop", nil)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running pass: %w", ctx.Err())
	}
}

// job wraps the pass so overlapping ticks are dropped.
func (s *Scheduler) job() cron.Job {
	cl := cronLogger{log: s.log}
	return cron.NewChain(cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.run))
}

// run executes one pass to completion; shutdown waits for it in Stop.
func (s *Scheduler) run() {
	report, err := s.runner.RunPass(context.Background())
	if err != nil {
		s.log.ErrorObj("scheduled pass failed", "scheduler_pass_error", map[string]any{
			"error": err.Error(),
		})
		return
	}
	s.log.InfoObj("scheduled pass finished", "scheduler_pass_done", map[string]any{
		"stored":   report.Stored(),
		"duration": report.Duration.String(),
	})
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.DebugObj(msg, "cron", kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := kvFields(keysAndValues)
	fields["error"] = err.Error()
	l.log.ErrorObj(msg, "cron_error", fields)
}

func kvFields(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields[key] = kv[i+1]
	}
	return fields
}
