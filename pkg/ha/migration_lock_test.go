package ha

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestMigrationLock_RunsFn(t *testing.T) {
	locker := NewMigrationLocker(newTestDB(t))

	ran := false
	err := locker.WithLock(context.Background(), func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestMigrationLock_ReleasesOnReturn(t *testing.T) {
	db := newTestDB(t)
	locker := NewMigrationLocker(db)
	ctx := context.Background()

	require.NoError(t, locker.WithLock(ctx, func() error { return nil }))

	// A second acquisition must not block on the released lock.
	done := make(chan error, 1)
	go func() {
		done <- locker.WithLock(ctx, func() error { return nil })
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second lock acquisition blocked on a released lock")
	}
}

func TestMigrationLock_StaleLockCleanedUp(t *testing.T) {
	db := newTestDB(t)
	locker := NewMigrationLocker(db)

	// Simulate a crashed holder that never released.
	require.NoError(t, db.Create(&migrationLockRecord{
		ID: "migration", LockedAt: time.Now().Add(-10 * time.Minute), LockedBy: "crashed-pod",
	}).Error)

	ran := false
	err := locker.WithLock(context.Background(), func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestMigrationLock_NilDB(t *testing.T) {
	locker := NewMigrationLocker(nil)
	require.NoError(t, locker.WithLock(context.Background(), func() error { return nil }))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OASIS_HA_MIGRATION_LOCK_ENABLED", "false")
	t.Setenv("OASIS_HA_LEASE_NAME", "custom-lease")
	t.Setenv("OASIS_HA_LEASE_TTL", "120")
	t.Setenv("OASIS_HA_RENEW_INTERVAL", "30")
	t.Setenv("POD_NAME", "ledger-server-0")

	cfg := ConfigFromEnv()
	assert.False(t, cfg.MigrationLockEnabled)
	assert.Equal(t, "custom-lease", cfg.LeaseName)
	assert.Equal(t, 120*time.Second, cfg.LeaseTTL)
	assert.Equal(t, 30*time.Second, cfg.RenewInterval)
	assert.Equal(t, "ledger-server-0", cfg.Identity)
}
