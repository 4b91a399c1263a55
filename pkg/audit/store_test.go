package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store := NewStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func event(id, entityID, recordID string, createdAt time.Time) *CertificationEvent {
	return &CertificationEvent{
		ID: id, EntityID: entityID, RecordID: recordID,
		Actor: "system", Lane: "real", Action: "certify", Outcome: "success",
		CreatedAt: createdAt,
	}
}

func TestAppendAndListByRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Append(ctx, event("ev-1", "ent-1", "rec-1", now.Add(-2*time.Hour))))
	require.NoError(t, store.Append(ctx, event("ev-2", "ent-1", "rec-1", now.Add(-time.Hour))))
	require.NoError(t, store.Append(ctx, event("ev-3", "ent-1", "rec-2", now)))
	require.NoError(t, store.Append(ctx, event("ev-4", "ent-2", "rec-1", now)))

	events, err := store.ListByRecord(ctx, "ent-1", "rec-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-2", events[0].ID, "newest first")
	assert.Equal(t, "ev-1", events[1].ID)
}

func TestListByRecord_OtherEntityInvisible(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, event("ev-1", "ent-2", "rec-1", time.Now())))

	events, err := store.ListByRecord(ctx, "ent-1", "rec-1", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListByRecord_LimitClamped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("ev-%d", i)
		require.NoError(t, store.Append(ctx, event(id, "ent-1", "rec-1", now.Add(time.Duration(i)*time.Minute))))
	}

	events, err := store.ListByRecord(ctx, "ent-1", "rec-1", 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.ListByRecord(ctx, "ent-1", "rec-1", 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestDeleteOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Append(ctx, event("ev-old", "ent-1", "rec-1", now.Add(-48*time.Hour))))
	require.NoError(t, store.Append(ctx, event("ev-new", "ent-1", "rec-1", now)))

	deleted, err := store.DeleteOlderThan(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, err := store.ListByRecord(ctx, "ent-1", "rec-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-new", events[0].ID)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OASIS_AUDIT_RETENTION_DAYS", "30")
	t.Setenv("OASIS_AUDIT_ENABLED", "false")

	cfg := ConfigFromEnv()
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.False(t, cfg.Enabled)
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("OASIS_AUDIT_RETENTION_DAYS", "")
	t.Setenv("OASIS_AUDIT_ENABLED", "")

	cfg := ConfigFromEnv()
	assert.Equal(t, 365, cfg.RetentionDays)
	assert.True(t, cfg.Enabled)
}
