// Package audit keeps an append-only trail of certification and reissue
// attempts. Append is best-effort at call sites: a failed audit write
// never fails the promotion it describes.
package audit

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CertificationEvent is an immutable audit entry for one certify call.
type CertificationEvent struct {
	ID         string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	EntityID   string    `gorm:"column:entity_id;index:idx_cert_events_entity,priority:1;not null"`
	RecordID   string    `gorm:"column:record_id;index:idx_cert_events_record;not null"`
	Actor      string    `gorm:"column:actor;not null"`
	Lane       string    `gorm:"column:lane;not null"`
	Action     string    `gorm:"column:action;not null"` // certify or reissue
	Outcome    string    `gorm:"column:outcome;not null"` // success or failure
	DocumentID string    `gorm:"column:document_id"`
	Reused     bool      `gorm:"column:reused;default:false;not null"`
	Error      string    `gorm:"column:error"`
	CreatedAt  time.Time `gorm:"column:created_at;index:idx_cert_events_entity,priority:2;autoCreateTime"`
}

// TableName returns the gorm table name.
func (CertificationEvent) TableName() string { return "certification_events" }

// Store persists certification events.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new audit Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the audit table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&CertificationEvent{}); err != nil {
		return fmt.Errorf("auto-migrate certification_events: %w", err)
	}
	return nil
}

// Append inserts an event.
func (s *Store) Append(ctx context.Context, event *CertificationEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("append certification event: %w", err)
	}
	return nil
}

// ListByRecord returns a record's events within the entity scope, newest
// first, capped at limit.
func (s *Store) ListByRecord(ctx context.Context, entityID, recordID string, limit int) ([]CertificationEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var events []CertificationEvent
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND record_id = ?", entityID, recordID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list certification events: %w", err)
	}
	return events, nil
}

// DeleteOlderThan removes events created before cutoff and returns how
// many were deleted.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&CertificationEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old certification events: %w", res.Error)
	}
	return res.RowsAffected, nil
}
