package workers

import (
	"context"
	"sync"
	"time"

	"github.com/skcgolf/skc-api/internal/logging"
)

// Purger is the operation the purge worker schedules.
type Purger interface {
	PurgeStaleUnactivated(ctx context.Context) (int, error)
}

// PurgeWorker removes stale unactivated accounts once a day at a fixed hour.
type PurgeWorker struct {
	purger Purger
	hour   int
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
	wg     sync.WaitGroup
}

func NewPurgeWorker(purger Purger, hour int) *PurgeWorker {
	if hour < 0 || hour > 23 {
		hour = 1
	}
	return &PurgeWorker{
		purger: purger,
		hour:   hour,
		now:    time.Now,
		after:  time.After,
	}
}

// Start runs the schedule until ctx is cancelled.
func (w *PurgeWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Wait blocks until the worker has stopped.
func (w *PurgeWorker) Wait() {
	w.wg.Wait()
}

func (w *PurgeWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	log := logging.For("workers")

	for {
		wait := w.untilNext()
		select {
		case <-ctx.Done():
			log.Info("purge worker stopped")
			return
		case <-w.after(wait):
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one purge and logs the outcome.
func (w *PurgeWorker) RunOnce(ctx context.Context) {
	log := logging.For("workers")
	removed, err := w.purger.PurgeStaleUnactivated(ctx)
	if err != nil {
		log.Error("purge of not activated users failed", "removed", removed, "error", err)
		return
	}
	if removed > 0 {
		log.Info("purged not activated users", "removed", removed)
	}
}

// untilNext returns the time left until the next occurrence of the hour.
func (w *PurgeWorker) untilNext() time.Duration {
	now := w.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), w.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
