// Package certify turns a minute record's upload into a registry-grade
// verified document by calling the privileged certification function. The
// coordinator owns the client-side guard and the reissue path; the
// function itself owns idempotence and all artifact writes.
package certify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/audit"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/lane"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/objstore"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/registry"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/scope"
)

// ErrNotPromotable reports the client-side guard: ledger-originated
// records are certified by the upstream ledger flow and must not be
// promoted here. Raised before any network call.
var ErrNotPromotable = errors.New("ledger-originated records cannot be promoted")

// CertificationError carries a certification function failure verbatim.
type CertificationError struct {
	Message string
}

// Error implements the error interface.
func (e *CertificationError) Error() string {
	return fmt.Sprintf("certification failed: %s", e.Message)
}

// Request is the certification function's input.
type Request struct {
	RecordID string
	Lane     lane.Lane
	// Force signals the function to overwrite an existing promoted
	// document's pointer and hash rather than reject as duplicate.
	// Required to reissue.
	Force bool
}

// Response is the certification function's output.
type Response struct {
	OK         bool
	DocumentID string
	Reused     bool
	Error      string
}

// Certifier is the privileged server-side certification function.
// Calling it twice with Force must converge to the same document.
type Certifier interface {
	Certify(ctx context.Context, req Request) (*Response, error)
}

// Outcome is a successful promotion.
type Outcome struct {
	DocumentID string
	Reused     bool
	// Document is the resulting verified document when it could be
	// re-read after certification; its hash and resolved path are
	// authoritative for subsequent resolution.
	Document *registry.VerifiedDocument
}

// Coordinator drives promotion and reissue.
type Coordinator struct {
	certifier Certifier
	docs      *registry.DocumentStore
	trail     *audit.Store
	auditCfg  *audit.Config
	cache     *objstore.URLCache
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator. trail and cache are optional; a
// nil auditCfg uses defaults.
func NewCoordinator(certifier Certifier, docs *registry.DocumentStore, trail *audit.Store, auditCfg *audit.Config, cache *objstore.URLCache, logger *slog.Logger) *Coordinator {
	if auditCfg == nil {
		auditCfg = audit.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		certifier: certifier,
		docs:      docs,
		trail:     trail,
		auditCfg:  auditCfg,
		cache:     cache,
		logger:    logger,
	}
}

// Promote certifies the record's upload on the active lane. force is
// required to reissue an existing promoted document; the first promotion
// passes force=false. On success exactly one promoted document exists for
// the (record, lane) pair and any cached access URL for it is dropped so
// open previews re-locate instead of serving the stale object.
//
// Failures leave no partial state: a guard failure happens before any
// network call, and a remote failure surfaces the function's message
// verbatim as a *CertificationError.
func (c *Coordinator) Promote(ctx context.Context, rec *registry.MinuteRecord, active lane.Lane, force bool) (*Outcome, error) {
	if rec.LedgerOriginated() {
		return nil, fmt.Errorf("record %s: %w", rec.ID, ErrNotPromotable)
	}

	action := "certify"
	if force {
		action = "reissue"
	}

	resp, err := c.certifier.Certify(ctx, Request{RecordID: rec.ID, Lane: active, Force: force})
	if err != nil {
		c.appendEvent(ctx, rec, active, action, "failure", "", false, err.Error())
		return nil, fmt.Errorf("certification call for record %s: %w", rec.ID, err)
	}
	if !resp.OK {
		c.appendEvent(ctx, rec, active, action, "failure", "", false, resp.Error)
		return nil, &CertificationError{Message: resp.Error}
	}

	c.appendEvent(ctx, rec, active, action, "success", resp.DocumentID, resp.Reused, "")

	outcome := &Outcome{DocumentID: resp.DocumentID, Reused: resp.Reused}

	// Re-read the document so callers see the authoritative hash and
	// path, and drop any cached URL for the replaced object.
	doc, err := c.docs.Get(ctx, rec.EntityID, resp.DocumentID)
	if err != nil {
		c.logger.Warn("promoted document re-read failed", "record", rec.ID, "document", resp.DocumentID, "error", err)
	}
	if doc != nil {
		outcome.Document = doc
		if c.cache != nil {
			c.cache.InvalidateObject(doc.Bucket, doc.Path)
		}
	} else if c.cache != nil {
		// Without the document we cannot target the invalidation.
		c.cache.InvalidateAll()
	}

	c.logger.Info("record promoted",
		"record", rec.ID, "lane", active.String(), "document", resp.DocumentID,
		"reused", resp.Reused, "force", force)

	return outcome, nil
}

// appendEvent records the attempt. Best-effort: audit must never fail the
// promotion it describes.
func (c *Coordinator) appendEvent(ctx context.Context, rec *registry.MinuteRecord, active lane.Lane, action, outcome, documentID string, reused bool, errText string) {
	if c.trail == nil || !c.auditCfg.Enabled {
		return
	}
	viewer, _ := scope.ViewerFromContext(ctx)
	event := &audit.CertificationEvent{
		ID:         uuid.New().String(),
		EntityID:   rec.EntityID,
		RecordID:   rec.ID,
		Actor:      viewer.Actor,
		Lane:       active.String(),
		Action:     action,
		Outcome:    outcome,
		DocumentID: documentID,
		Reused:     reused,
		Error:      errText,
	}
	if err := c.trail.Append(ctx, event); err != nil {
		c.logger.Warn("certification audit append failed", "record", rec.ID, "error", err)
	}
}
