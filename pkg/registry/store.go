package registry

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// maxQueryRows caps every candidate query. The engine composes multiple
// point queries and merges in memory; it never pages.
const maxQueryRows = 50

// AutoMigrate creates or updates all registry tables.
func AutoMigrate(db *gorm.DB) error {
	for _, model := range []any{
		&MinuteRecord{}, &UploadRecord{}, &VerifiedDocument{}, &LedgerEntry{},
	} {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto-migrate registry tables: %w", err)
		}
	}
	return nil
}

// RecordStore provides access to minute-book records.
type RecordStore struct {
	db *gorm.DB
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Get retrieves a record by id within the entity scope.
// Returns nil, nil if no record exists.
func (s *RecordStore) Get(ctx context.Context, entityID, id string) (*MinuteRecord, error) {
	var record MinuteRecord
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND id = ?", entityID, id).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get minute record: %w", err)
	}
	return &record, nil
}

// Create inserts a record.
func (s *RecordStore) Create(ctx context.Context, record *MinuteRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// ListByCategory returns the newest records in a category within the
// entity scope, capped at maxQueryRows.
func (s *RecordStore) ListByCategory(ctx context.Context, entityID, category string) ([]MinuteRecord, error) {
	var records []MinuteRecord
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND category = ?", entityID, category).
		Order("created_at DESC").
		Limit(maxQueryRows).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list minute records: %w", err)
	}
	return records, nil
}

// UploadStore provides access to the supporting objects filed with records.
type UploadStore struct {
	db *gorm.DB
}

// NewUploadStore creates a new UploadStore.
func NewUploadStore(db *gorm.DB) *UploadStore {
	return &UploadStore{db: db}
}

// Create inserts an upload version.
func (s *UploadStore) Create(ctx context.Context, upload *UploadRecord) error {
	return s.db.WithContext(ctx).Create(upload).Error
}

// Primary returns the record's authoritative upload: the primary-flagged
// version if one exists, otherwise the most recent one, preferring
// registry-visible versions. Returns nil, nil when the record has no
// uploads at all.
func (s *UploadStore) Primary(ctx context.Context, entityID, recordID string) (*UploadRecord, error) {
	var upload UploadRecord
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND record_id = ?", entityID, recordID).
		Order("is_primary DESC, registry_visible DESC, uploaded_at DESC").
		First(&upload).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get primary upload: %w", err)
	}
	return &upload, nil
}

// SetPrimary marks one upload version as primary and clears the flag on
// every other version of the same record, in one transaction.
func (s *UploadStore) SetPrimary(ctx context.Context, entityID, recordID, uploadID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&UploadRecord{}).
			Where("entity_id = ? AND record_id = ?", entityID, recordID).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("clear primary flags: %w", err)
		}
		res := tx.Model(&UploadRecord{}).
			Where("entity_id = ? AND record_id = ? AND id = ?", entityID, recordID, uploadID).
			Update("is_primary", true)
		if res.Error != nil {
			return fmt.Errorf("set primary flag: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("upload %s not found for record %s", uploadID, recordID)
		}
		return nil
	})
}

// DocumentStore provides access to verified documents.
type DocumentStore struct {
	db *gorm.DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Create inserts a verified document.
func (s *DocumentStore) Create(ctx context.Context, doc *VerifiedDocument) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

// Get retrieves a verified document by id within the entity scope.
// Returns nil, nil if no document exists.
func (s *DocumentStore) Get(ctx context.Context, entityID, id string) (*VerifiedDocument, error) {
	var doc VerifiedDocument
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND id = ?", entityID, id).
		First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get verified document: %w", err)
	}
	return &doc, nil
}

// ListBySource returns the documents certifying one source row, newest
// first, capped at maxQueryRows.
func (s *DocumentStore) ListBySource(ctx context.Context, entityID, sourceTable, sourceRecordID string) ([]VerifiedDocument, error) {
	var docs []VerifiedDocument
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND source_table = ? AND source_record_id = ?",
			entityID, sourceTable, sourceRecordID).
		Order("created_at DESC").
		Limit(maxQueryRows).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list verified documents: %w", err)
	}
	return docs, nil
}

// LedgerStore provides read access to approval-ledger entries.
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Create inserts a ledger entry.
func (s *LedgerStore) Create(ctx context.Context, entry *LedgerEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// Get retrieves a ledger entry by id within the entity scope.
// Returns nil, nil if no entry exists.
func (s *LedgerStore) Get(ctx context.Context, entityID, id string) (*LedgerEntry, error) {
	var entry LedgerEntry
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND id = ?", entityID, id).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return &entry, nil
}
