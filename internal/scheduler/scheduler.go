package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/newsrelay/internal/news"
	"github.com/deusflow/newsrelay/internal/relay"
)

// Runner executes one cycle.
type Runner interface {
	Run(ctx context.Context, cycle relay.Cycle, categories ...news.Category) (*relay.Report, error)
}

// Job is a cycle repeated every period.
type Job struct {
	Cycle  relay.Cycle
	Period time.Duration
}

// Scheduler drives the recurring cycles. Each cycle is non-reentrant: a tick
// that fires while the previous run is still active is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	log    *slog.Logger
	jobs   []Job
	ids    []cron.EntryID
	wg     sync.WaitGroup

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New(runner Runner, jobs []Job, log *slog.Logger) (*Scheduler, error) {
	if len(jobs) == 0 {
		return nil, errors.New("no jobs configured")
	}
	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		log:    log,
		jobs:   jobs,
		ctx:    context.Background(),
	}

	for _, j := range jobs {
		if j.Period < time.Second {
			return nil, fmt.Errorf("cycle %s: period %s is below one second", j.Cycle, j.Period)
		}
		id := s.cron.Schedule(cron.Every(j.Period), cron.FuncJob(s.runFunc(j.Cycle)))
		s.ids = append(s.ids, id)
	}
	return s, nil
}

// Start waits for ready, then runs every cycle once and starts the timers.
// It returns ctx.Err() if ctx ends before ready.
func (s *Scheduler) Start(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ready:
	}

	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	for i, id := range s.ids {
		s.log.Info("scheduled cycle", "cycle", s.jobs[i].Cycle, "period", s.jobs[i].Period)
		job := s.cron.Entry(id).WrappedJob
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			job.Run()
		}()
	}
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) runFunc(cycle relay.Cycle) func() {
	return func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		report, err := s.runner.Run(ctx, cycle)
		switch {
		case errors.Is(err, relay.ErrCycleBusy):
			s.log.Info("cycle already running, tick skipped", "cycle", cycle)
		case err != nil:
			s.log.Error("cycle failed", "cycle", cycle, "err", err)
		default:
			s.log.Info("cycle finished", "cycle", cycle, "run_id", report.RunID, "delivered", report.Delivered())
		}
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
