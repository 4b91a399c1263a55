// Package authority selects the authoritative artifact for a minute
// record: an official verified document from the ledger-signing flow, a
// promoted document issued by the certification coordinator, or the bare
// primary upload as last resort.
package authority

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/lane"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/registry"
)

// Tier is the authority level of a resolved artifact.
type Tier int

const (
	// TierUploaded is the record's primary supporting object.
	TierUploaded Tier = iota
	// TierPromoted is a verified document issued from an upload by the
	// certification coordinator.
	TierPromoted
	// TierOfficial is a verified document produced by the upstream
	// ledger-signing flow. Highest precedence.
	TierOfficial
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierOfficial:
		return "official"
	case TierPromoted:
		return "promoted"
	default:
		return "uploaded"
	}
}

// ErrNoArtifact reports that a record has no verified document and no
// upload at all. Everything short of that degrades to a lower tier.
var ErrNoArtifact = errors.New("record has no artifact")

// Resolution is the winning artifact for a record. Exactly one of
// Document and Upload is set; tiers are never merged.
type Resolution struct {
	Tier     Tier
	Document *registry.VerifiedDocument
	Upload   *registry.UploadRecord
}

// Location returns the storage location of the winning artifact.
func (r *Resolution) Location() (bucket, path string) {
	if r.Document != nil {
		return r.Document.Bucket, r.Document.Path
	}
	return r.Upload.Bucket, r.Upload.Path
}

// Resolver queries the candidate artifact tiers and applies lane
// visibility and precedence.
type Resolver struct {
	docs    *registry.DocumentStore
	ledger  *registry.LedgerStore
	uploads *registry.UploadStore
	lanes   *lane.BucketTable
	logger  *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(docs *registry.DocumentStore, ledger *registry.LedgerStore, uploads *registry.UploadStore, lanes *lane.BucketTable, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{docs: docs, ledger: ledger, uploads: uploads, lanes: lanes, logger: logger}
}

// Resolve returns the highest-tier lane-visible artifact for the record.
// Official beats promoted beats uploaded. A failed or empty query at any
// tier degrades to the next tier; only a record with no document and no
// upload at all returns ErrNoArtifact.
func (r *Resolver) Resolve(ctx context.Context, rec *registry.MinuteRecord, active lane.Lane) (*Resolution, error) {
	if doc := r.official(ctx, rec, active); doc != nil {
		return &Resolution{Tier: TierOfficial, Document: doc}, nil
	}
	if doc := r.promoted(ctx, rec, active); doc != nil {
		return &Resolution{Tier: TierPromoted, Document: doc}, nil
	}

	upload, err := r.uploads.Primary(ctx, rec.EntityID, rec.ID)
	if err != nil {
		r.logger.Warn("primary upload query failed", "record", rec.ID, "error", err)
	}
	if upload == nil {
		return nil, fmt.Errorf("resolve record %s: %w", rec.ID, ErrNoArtifact)
	}
	return &Resolution{Tier: TierUploaded, Upload: upload}, nil
}

// official returns the newest lane-visible official document, or nil.
// Ledger entries whose lane flag is known and disagrees with the active
// lane short-circuit the whole tier: a cross-lane document must not leak
// even when it exists.
func (r *Resolver) official(ctx context.Context, rec *registry.MinuteRecord, active lane.Lane) *registry.VerifiedDocument {
	if !rec.LedgerOriginated() {
		return nil
	}

	entry, err := r.ledger.Get(ctx, rec.EntityID, rec.SourceLedgerID)
	if err != nil {
		r.logger.Warn("ledger entry query failed", "record", rec.ID, "ledger", rec.SourceLedgerID, "error", err)
		return nil
	}
	if entry != nil {
		if l := lane.FromFlag(entry.LaneFlag()); l != lane.Unknown && l != active {
			return nil
		}
	}

	docs, err := r.docs.ListBySource(ctx, rec.EntityID, registry.SourceTableLedger, rec.SourceLedgerID)
	if err != nil {
		r.logger.Warn("official document query failed", "record", rec.ID, "error", err)
		return nil
	}
	return r.firstVisible(docs, active)
}

// promoted returns the newest lane-visible promoted document, or nil.
// Queried independently of the official tier.
func (r *Resolver) promoted(ctx context.Context, rec *registry.MinuteRecord, active lane.Lane) *registry.VerifiedDocument {
	docs, err := r.docs.ListBySource(ctx, rec.EntityID, registry.SourceTableRecords, rec.ID)
	if err != nil {
		r.logger.Warn("promoted document query failed", "record", rec.ID, "error", err)
		return nil
	}
	return r.firstVisible(docs, active)
}

// firstVisible returns the first lane-visible document of a newest-first
// list. Lane mismatches are silently excluded, never an error.
func (r *Resolver) firstVisible(docs []registry.VerifiedDocument, active lane.Lane) *registry.VerifiedDocument {
	for i := range docs {
		if r.lanes.Visible(&docs[i], active) {
			return &docs[i]
		}
	}
	return nil
}
