// Package console is the HTTP facade the governance-console views call.
// The engine itself stays a library; this package is the thin presentation
// adapter that wires viewer scope, resolution, location, and certification
// into routes.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/audit"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/authority"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/certify"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/locate"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/registry"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/scope"
)

// ResolutionResponse describes the winning artifact for a record.
type ResolutionResponse struct {
	RecordID string           `json:"recordId"`
	Tier     string           `json:"tier"`
	Bucket   string           `json:"bucket"`
	Path     string           `json:"path"`
	Document *DocumentSummary `json:"document,omitempty"`
}

// DocumentSummary is the verified-document subset the views render.
type DocumentSummary struct {
	ID     string `json:"id"`
	SHA256 string `json:"sha256"`
	Level  string `json:"level"`
}

// FileURLResponse carries a minted access URL. Bucket and Path are the
// location that actually resolved, which the views must display.
type FileURLResponse struct {
	RecordID  string `json:"recordId"`
	Tier      string `json:"tier"`
	AccessURL string `json:"accessUrl"`
	Bucket    string `json:"bucket"`
	Path      string `json:"path"`
	Repaired  bool   `json:"repaired"`
}

// CertifyRequest is the certify endpoint's body.
type CertifyRequest struct {
	Force bool `json:"force"`
}

// CertifyResponse reports a successful promotion.
type CertifyResponse struct {
	RecordID   string `json:"recordId"`
	DocumentID string `json:"documentId"`
	Reused     bool   `json:"reused"`
}

// getRecord loads the record in the viewer's entity scope, writing the
// error response itself when the record is unavailable.
func getRecord(w http.ResponseWriter, r *http.Request, records *registry.RecordStore) *registry.MinuteRecord {
	id := chi.URLParam(r, "id")
	viewer, _ := scope.ViewerFromContext(r.Context())

	rec, err := records.Get(r.Context(), viewer.EntityID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load record: %v", err))
		return nil
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("record %s not found", id))
		return nil
	}
	return rec
}

// resolutionHandler returns the record's winning artifact and tier.
func resolutionHandler(records *registry.RecordStore, resolver *authority.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := getRecord(w, r, records)
		if rec == nil {
			return
		}
		viewer, _ := scope.ViewerFromContext(r.Context())

		res, err := resolver.Resolve(r.Context(), rec, viewer.Lane)
		if err != nil {
			if errors.Is(err, authority.ErrNoArtifact) {
				writeError(w, http.StatusNotFound, "no preview available")
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("resolution failed: %v", err))
			return
		}

		bucket, objPath := res.Location()
		resp := ResolutionResponse{
			RecordID: rec.ID,
			Tier:     res.Tier.String(),
			Bucket:   bucket,
			Path:     objPath,
		}
		if res.Document != nil {
			resp.Document = &DocumentSummary{
				ID:     res.Document.ID,
				SHA256: res.Document.SHA256,
				Level:  res.Document.Level,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// fileURLHandler resolves the record and mints an access URL for the
// winning artifact, running the repair search when the recorded path has
// gone stale. ?download=1 forces a download filename derived from the
// record title.
func fileURLHandler(records *registry.RecordStore, resolver *authority.Resolver, locator *locate.Locator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := getRecord(w, r, records)
		if rec == nil {
			return
		}
		viewer, _ := scope.ViewerFromContext(r.Context())

		res, err := resolver.Resolve(r.Context(), rec, viewer.Lane)
		if err != nil {
			if errors.Is(err, authority.ErrNoArtifact) {
				writeError(w, http.StatusNotFound, "no preview available")
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("resolution failed: %v", err))
			return
		}

		bucket, objPath := res.Location()
		opts := locate.Options{AlternateDirs: alternateDirs(rec, objPath)}
		if v, _ := strconv.ParseBool(r.URL.Query().Get("download")); v {
			opts.DownloadName = downloadName(rec, objPath)
		}

		result, err := locator.Locate(r.Context(), bucket, objPath, opts)
		if err != nil {
			var nf *locate.NotFoundError
			if errors.As(err, &nf) {
				writeError(w, http.StatusNotFound,
					fmt.Sprintf("stored file missing: %s/%s", nf.Bucket, nf.Path))
				return
			}
			writeError(w, http.StatusBadGateway, fmt.Sprintf("storage access failed: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, FileURLResponse{
			RecordID:  rec.ID,
			Tier:      res.Tier.String(),
			AccessURL: result.AccessURL,
			Bucket:    result.Bucket,
			Path:      result.Path,
			Repaired:  result.Repaired,
		})
	}
}

// certifyHandler promotes the record's upload into a verified document.
func certifyHandler(records *registry.RecordStore, coordinator *certify.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := getRecord(w, r, records)
		if rec == nil {
			return
		}
		viewer, _ := scope.ViewerFromContext(r.Context())

		var req CertifyRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
				return
			}
		}

		outcome, err := coordinator.Promote(r.Context(), rec, viewer.Lane, req.Force)
		if err != nil {
			if errors.Is(err, certify.ErrNotPromotable) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			var certErr *certify.CertificationError
			if errors.As(err, &certErr) {
				// The function's message passes through verbatim.
				writeError(w, http.StatusBadGateway, certErr.Message)
				return
			}
			writeError(w, http.StatusBadGateway, fmt.Sprintf("certification call failed: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, CertifyResponse{
			RecordID:   rec.ID,
			DocumentID: outcome.DocumentID,
			Reused:     outcome.Reused,
		})
	}
}

// auditHandler lists the record's certification events.
func auditHandler(records *registry.RecordStore, trail *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := getRecord(w, r, records)
		if rec == nil {
			return
		}
		viewer, _ := scope.ViewerFromContext(r.Context())

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := trail.ListByRecord(r.Context(), viewer.EntityID, rec.ID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

// alternateDirs returns extra repair directories for a record: when the
// recorded path's folder no longer matches the record's current category,
// the sibling folder named after the category is a candidate. Covers
// category renames upstream of the stored path.
func alternateDirs(rec *registry.MinuteRecord, objPath string) []string {
	dir := path.Dir(objPath)
	if dir == "." || dir == "/" {
		return nil
	}
	parent, last := path.Split(dir)
	if rec.Category == "" || last == rec.Category {
		return nil
	}
	return []string{path.Join(parent, rec.Category)}
}

// downloadName derives a browser filename from the record title, keeping
// the stored object's extension.
func downloadName(rec *registry.MinuteRecord, objPath string) string {
	if rec.Title == "" {
		return path.Base(objPath)
	}
	return rec.Title + path.Ext(objPath)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
