package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
	"github.com/secmon-lab/ad2image/pkg/utils/errutil"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
)

// DisabledSchedule turns the periodic refresh off
const DisabledSchedule = "-"

// Cron expressions with an optional leading seconds field, plus descriptors
// such as @hourly and @every 30m.
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a refresh schedule. It returns nil without error when
// the schedule is disabled.
func ParseSchedule(spec string) (cron.Schedule, error) {
	if spec == "" || spec == DisabledSchedule {
		return nil, nil
	}
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid refresh schedule", goerr.V("schedule", spec))
	}
	return schedule, nil
}

// Refresher is the job run on every tick
type Refresher interface {
	Refresh(ctx context.Context) error
}

// HashIndexRefreshWorker periodically re-scans the directory into the email
// hash index on a cron schedule.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A tick that fires while the previous refresh still runs is skipped
type HashIndexRefreshWorker struct {
	refresher Refresher
	spec      string
	schedule  cron.Schedule
	cron      *cron.Cron
	cancel    context.CancelFunc
}

type Option func(*HashIndexRefreshWorker)

// NewHashIndexRefreshWorker creates a worker for spec. A disabled spec gives
// a worker whose Start and Stop do nothing.
func NewHashIndexRefreshWorker(refresher Refresher, spec string, opts ...Option) (*HashIndexRefreshWorker, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	w := &HashIndexRefreshWorker{
		refresher: refresher,
		spec:      spec,
		schedule:  schedule,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Enabled reports whether a schedule is configured
func (w *HashIndexRefreshWorker) Enabled() bool {
	return w.schedule != nil
}

// Start schedules the refresh job. It does not run a refresh immediately;
// the initial population is the caller's job.
func (w *HashIndexRefreshWorker) Start(ctx context.Context) error {
	if !w.Enabled() {
		logging.Default().Info("Hash index refresh disabled")
		return nil
	}

	logger := &cronLogger{logger: logging.From(ctx)}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	w.cron.Schedule(w.schedule, cron.FuncJob(func() {
		w.refresh(runCtx)
	}))
	w.cron.Start()

	logging.Default().Info("Hash index refresh worker started", "schedule", w.spec)
	return nil
}

// Stop halts the schedule, cancels a running refresh and waits for it
func (w *HashIndexRefreshWorker) Stop() {
	if w.cron == nil {
		return
	}

	logging.Default().Info("Hash index refresh worker stopping")
	stopCtx := w.cron.Stop()
	w.cancel()
	<-stopCtx.Done()
	logging.Default().Info("Hash index refresh worker stopped")
}

func (w *HashIndexRefreshWorker) refresh(ctx context.Context) {
	startTime := time.Now()
	if err := w.refresher.Refresh(ctx); err != nil {
		// Log error but keep the schedule
		_ = errutil.Handle(ctx, err, "Hash index refresh failed (will retry next schedule)")
		return
	}
	logging.From(ctx).Debug("Hash index refresh finished", "duration", time.Since(startTime).String())
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
