// internal/app/system/workers/tribearchive.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TribeArchiver is the part of the tribe store the worker needs.
type TribeArchiver interface {
	ListDueForArchive(ctx context.Context, cutoff time.Time) ([]primitive.ObjectID, error)
	Archive(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// TribeArchive is a background worker that archives active tribes whose
// meetup is more than grace in the past.
type TribeArchive struct {
	tribes   TribeArchiver
	log      *zap.Logger
	audit    *auditlog.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTribeArchive creates a new archive worker.
//
// Parameters:
//   - tribes: the tribe store
//   - logger: zap logger for logging
//   - interval: how often to look for finished tribes (e.g., 1 hour)
//   - grace: how long after the meetup date a tribe stays active (e.g., 48 hours)
func NewTribeArchive(tribes TribeArchiver, logger *zap.Logger, interval, grace time.Duration) *TribeArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TribeArchive{
		tribes:   tribes,
		log:      logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// WithAuditLog records each archived tribe as a system audit event.
func (w *TribeArchive) WithAuditLog(a *auditlog.Logger) *TribeArchive {
	w.audit = a
	return w
}

// Start begins the background archive loop.
func (w *TribeArchive) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("tribe archive worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *TribeArchive) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("tribe archive worker stopped")
	})
}

func (w *TribeArchive) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
			w.RunOnce(ctx)
			cancel()
		}
	}
}

// RunOnce archives every due tribe and returns how many were archived.
// A failure on one tribe is logged and does not stop the rest.
func (w *TribeArchive) RunOnce(ctx context.Context) int {
	now := w.now().UTC()
	ids, err := w.tribes.ListDueForArchive(ctx, now.Add(-w.grace))
	if err != nil {
		w.log.Error("failed to list tribes due for archive", zap.Error(err))
		return 0
	}

	archived := 0
	for _, id := range ids {
		if err := w.tribes.Archive(ctx, id, now); err != nil {
			w.log.Error("failed to archive tribe",
				zap.String("tribe_id", id.Hex()),
				zap.Error(err))
			continue
		}
		w.audit.TribeAutoArchived(ctx, id)
		archived++
	}
	if archived > 0 {
		w.log.Info("archived finished tribes", zap.Int("count", archived))
	}
	return archived
}
