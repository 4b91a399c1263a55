// Package registry holds the governance-console data model and its gorm
// stores: minute-book records, the uploads filed with them, verified
// documents, and approval-ledger entries. Every store query is filtered by
// the owning-entity scope.
package registry

import (
	"time"
)

// SourceTable values for VerifiedDocument. They identify which population
// a verified document belongs to: official documents certify a ledger
// entry, promoted documents certify a minute record's upload.
const (
	SourceTableLedger  = "ledger_entries"
	SourceTableRecords = "minute_records"
)

// MinuteRecord is a governance entry in an entity's minute book. A record
// with a non-empty SourceLedgerID originated from the approval-ledger
// workflow; one without was filed from a direct upload. Only
// upload-originated records may be promoted.
type MinuteRecord struct {
	ID             string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	EntityID       string    `gorm:"column:entity_id;index:idx_records_entity;not null"`
	Category       string    `gorm:"column:category;not null"`
	Title          string    `gorm:"column:title"`
	SourceLedgerID string    `gorm:"column:source_ledger_id;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the gorm table name.
func (MinuteRecord) TableName() string { return "minute_records" }

// LedgerOriginated reports whether the record came from the approval
// ledger rather than a direct upload.
func (r *MinuteRecord) LedgerOriginated() bool { return r.SourceLedgerID != "" }

// UploadRecord is a supporting object: the file a minute record was filed
// with. A record may accumulate versions; at most one is primary.
type UploadRecord struct {
	ID              string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	EntityID        string    `gorm:"column:entity_id;index:idx_uploads_entity;not null"`
	RecordID        string    `gorm:"column:record_id;index:idx_uploads_record;not null"`
	Bucket          string    `gorm:"column:bucket;not null"`
	Path            string    `gorm:"column:path;not null"`
	SHA256          string    `gorm:"column:sha256"`
	SizeBytes       int64     `gorm:"column:size_bytes"`
	MimeType        string    `gorm:"column:mime_type"`
	Primary         bool      `gorm:"column:is_primary;default:false;not null"`
	RegistryVisible bool      `gorm:"column:registry_visible;default:true;not null"`
	UploadedAt      time.Time `gorm:"column:uploaded_at;autoCreateTime"`
}

// TableName returns the gorm table name.
func (UploadRecord) TableName() string { return "upload_records" }

// VerifiedDocument is a certified output. SourceTable/SourceRecordID
// identify what it certifies: a ledger entry (official, produced by the
// upstream signing flow) or a minute record (promoted, produced by the
// certification coordinator). Immutable, except that a promoted document
// may be overwritten in place by a forced reissue.
type VerifiedDocument struct {
	ID             string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	EntityID       string    `gorm:"column:entity_id;index:idx_docs_entity;not null"`
	Bucket         string    `gorm:"column:bucket;not null"`
	Path           string    `gorm:"column:path;not null"`
	SHA256         string    `gorm:"column:sha256"`
	SourceTable    string    `gorm:"column:source_table;index:idx_docs_source,priority:1;not null"`
	SourceRecordID string    `gorm:"column:source_record_id;index:idx_docs_source,priority:2;not null"`
	Level          string    `gorm:"column:level"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the gorm table name.
func (VerifiedDocument) TableName() string { return "verified_documents" }

// StorageBucket implements lane classification by bucket heuristic.
func (d *VerifiedDocument) StorageBucket() string { return d.Bucket }

// Official reports whether the document certifies a ledger entry.
func (d *VerifiedDocument) Official() bool { return d.SourceTable == SourceTableLedger }

// LedgerEntry is an approval-ledger row. IsTest is tri-state: rows written
// before lane flags existed carry nil and classify as Unknown.
type LedgerEntry struct {
	ID        string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	EntityID  string     `gorm:"column:entity_id;index:idx_ledger_entity;not null"`
	Status    string     `gorm:"column:status"`
	IsTest    *bool      `gorm:"column:is_test"`
	SignedAt  *time.Time `gorm:"column:signed_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the gorm table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// LaneFlag implements lane classification by explicit flag.
func (e *LedgerEntry) LaneFlag() *bool { return e.IsTest }
