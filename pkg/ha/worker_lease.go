package ha

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// workerLease is the lease row. One row per lease name; the holder keeps
// RenewedAt fresh and loses the lease once it goes stale past the TTL.
type workerLease struct {
	Name      string    `gorm:"primaryKey;column:name"`
	Holder    string    `gorm:"column:holder;not null"`
	RenewedAt time.Time `gorm:"column:renewed_at;not null"`
}

func (workerLease) TableName() string { return "worker_leases" }

// WorkerLease confines singleton background loops to one replica using a
// database lease. Replicas race to claim the lease row; the winner runs
// the loop and renews, the others retry. A crashed holder's lease expires
// after the TTL and another replica takes over.
type WorkerLease struct {
	db     *gorm.DB
	cfg    *Config
	logger *slog.Logger
}

// NewWorkerLease creates a WorkerLease. A nil cfg uses defaults.
func NewWorkerLease(db *gorm.DB, cfg *Config, logger *slog.Logger) *WorkerLease {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerLease{db: db, cfg: cfg, logger: logger}
}

// AutoMigrate creates or updates the lease table.
func (w *WorkerLease) AutoMigrate() error {
	if err := w.db.AutoMigrate(&workerLease{}); err != nil {
		return fmt.Errorf("auto-migrate worker_leases: %w", err)
	}
	return nil
}

// Run blocks until the context is cancelled. While this replica holds the
// lease it runs fn with a context that is cancelled when the lease is
// lost; while another replica holds it, Run retries acquisition every
// renew interval.
func (w *WorkerLease) Run(ctx context.Context, fn func(ctx context.Context)) {
	for {
		if w.tryAcquire(ctx) {
			w.logger.Info("worker lease acquired", "lease", w.cfg.LeaseName, "holder", w.cfg.Identity)
			w.hold(ctx, fn)
			w.logger.Info("worker lease released", "lease", w.cfg.LeaseName)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.RenewInterval):
		}
	}
}

// tryAcquire claims the lease row if it is free or stale.
func (w *WorkerLease) tryAcquire(ctx context.Context) bool {
	now := time.Now()
	row := workerLease{Name: w.cfg.LeaseName, Holder: w.cfg.Identity, RenewedAt: now}

	// Free row: plain insert wins the race.
	err := w.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		w.logger.Warn("worker lease insert failed", "lease", w.cfg.LeaseName, "error", err)
		return false
	}

	// Held row: take over only when stale or already ours.
	res := w.db.WithContext(ctx).Model(&workerLease{}).
		Where("name = ? AND (holder = ? OR renewed_at < ?)",
			w.cfg.LeaseName, w.cfg.Identity, now.Add(-w.cfg.LeaseTTL)).
		Updates(map[string]any{"holder": w.cfg.Identity, "renewed_at": now})
	if res.Error != nil {
		w.logger.Warn("worker lease claim failed", "lease", w.cfg.LeaseName, "error", res.Error)
		return false
	}
	return res.RowsAffected == 1
}

// hold runs fn while renewing, returning when the lease is lost or the
// context is cancelled. The lease row is released on clean shutdown.
func (w *WorkerLease) hold(ctx context.Context, fn func(ctx context.Context)) {
	leaseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(leaseCtx)
	}()

	ticker := time.NewTicker(w.cfg.RenewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.release()
			cancel()
			<-done
			return
		case <-done:
			w.release()
			return
		case <-ticker.C:
			if err := w.renew(ctx); err != nil {
				w.logger.Warn("worker lease lost", "lease", w.cfg.LeaseName, "error", err)
				cancel()
				<-done
				return
			}
		}
	}
}

// errLeaseLost reports that another replica took the lease over.
var errLeaseLost = errors.New("lease held by another replica")

func (w *WorkerLease) renew(ctx context.Context) error {
	res := w.db.WithContext(ctx).Model(&workerLease{}).
		Where("name = ? AND holder = ?", w.cfg.LeaseName, w.cfg.Identity).
		Update("renewed_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("renew worker lease: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errLeaseLost
	}
	return nil
}

func (w *WorkerLease) release() {
	w.db.Where("name = ? AND holder = ?", w.cfg.LeaseName, w.cfg.Identity).
		Delete(&workerLease{})
}
