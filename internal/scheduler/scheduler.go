// Package scheduler repeats crawler runs on a cron schedule
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/morikuni/failure/v2"
	"github.com/robfig/cron/v3"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// Job is one scheduled unit of work. Its error is logged and the schedule goes on.
type Job func(ctx context.Context) error

// Scheduler runs a Job once on Start and then on every tick of a cron spec.
// A tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *logging.Logger

	entry cron.EntryID
	ctx   context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup
}

// New parses spec (five cron fields or a descriptor such as @daily)
func New(spec string, job Job, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("scheduler")

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   spec,
		job:    job,
		logger: logger,
		ctx:    context.Background(),
	}

	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(domain.ErrConfiguration),
			failure.Message(fmt.Sprintf("Invalid SCHEDULE %q", spec)),
		)
	}
	s.entry = id

	return s, nil
}

// Start begins ticking and triggers the first run right away. ctx is handed
// to every run and is also cancelled by Shutdown.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.stop = context.WithCancel(ctx)

	// the wrapped job shares the skip-if-running guard with scheduled ticks
	first := s.cron.Entry(s.entry).WrappedJob
	s.cron.Start()
	s.wg.Go(first.Run)

	s.logger.Info("scheduler started", "spec", s.spec, "next", s.cron.Entry(s.entry).Next)
}

// Shutdown stops ticking, cancels the running job and waits for it to return
func (s *Scheduler) Shutdown(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
	}

	done := make(chan struct{})
	go func() {
		<-s.cron.Stop().Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	s.logger.Info("scheduled run started")
	if err := s.job(s.ctx); err != nil {
		s.logger.Error("scheduled run failed", "err", err)
		return
	}
	s.logger.Info("scheduled run finished")
}

// cronLogger routes cron's own messages through the application logger
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
