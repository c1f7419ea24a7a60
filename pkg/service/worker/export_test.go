package worker

import "github.com/robfig/cron/v3"

// WithSchedule replaces the parsed schedule so tests can tick faster than cron allows
func WithSchedule(schedule cron.Schedule) Option {
	return func(w *HashIndexRefreshWorker) {
		w.schedule = schedule
	}
}
