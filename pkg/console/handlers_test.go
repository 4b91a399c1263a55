package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/audit"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/authority"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/certify"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/lane"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/locate"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/objstore"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/registry"
)

// fakeStore is an in-memory object store for end-to-end handler tests.
type fakeStore struct {
	objects map[string][]objstore.ObjectInfo // bucket -> entries
}

func (s *fakeStore) SignURL(_ context.Context, bucket, objPath string, opts objstore.SignOptions) (string, error) {
	for _, info := range s.objects[bucket] {
		if info.Name == objPath {
			url := fmt.Sprintf("https://signed.example/%s/%s", bucket, objPath)
			if opts.DownloadName != "" {
				url += "?download=" + opts.DownloadName
			}
			return url, nil
		}
	}
	return "", fmt.Errorf("sign %s/%s: %w", bucket, objPath, objstore.ErrObjectNotFound)
}

func (s *fakeStore) List(_ context.Context, bucket, dir string, limit int) ([]objstore.ObjectInfo, error) {
	var out []objstore.ObjectInfo
	prefix := dir + "/"
	for _, info := range s.objects[bucket] {
		if len(info.Name) > len(prefix) && info.Name[:len(prefix)] == prefix {
			out = append(out, info)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeCertifier always issues the same document id.
type fakeCertifier struct {
	calls int
	resp  *certify.Response
}

func (f *fakeCertifier) Certify(_ context.Context, _ certify.Request) (*certify.Response, error) {
	f.calls++
	if f.resp != nil {
		return f.resp, nil
	}
	return &certify.Response{OK: true, DocumentID: "doc-issued"}, nil
}

type consoleFixture struct {
	db        *gorm.DB
	store     *fakeStore
	certifier *fakeCertifier
	handler   http.Handler
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, registry.AutoMigrate(db))

	trail := audit.NewStore(db)
	require.NoError(t, trail.AutoMigrate())

	store := &fakeStore{objects: map[string][]objstore.ObjectInfo{}}
	certifier := &fakeCertifier{}
	lanes := lane.NewBucketTable()
	docs := registry.NewDocumentStore(db)

	resolver := authority.NewResolver(docs, registry.NewLedgerStore(db), registry.NewUploadStore(db), lanes, nil)
	locator := locate.New(store, nil, nil)
	coordinator := certify.NewCoordinator(certifier, docs, trail, nil, locator.Cache(), nil)

	return &consoleFixture{
		db:        db,
		store:     store,
		certifier: certifier,
		handler:   NewRouter(registry.NewRecordStore(db), resolver, locator, coordinator, trail),
	}
}

func (f *consoleFixture) seedRecord(t *testing.T, uploadPath string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, registry.NewRecordStore(f.db).Create(ctx, &registry.MinuteRecord{
		ID: "rec-1", EntityID: "ent-1", Category: "minutes", Title: "Annual meeting",
	}))
	require.NoError(t, registry.NewUploadStore(f.db).Create(ctx, &registry.UploadRecord{
		ID: "up-1", EntityID: "ent-1", RecordID: "rec-1",
		Bucket: "docs", Path: uploadPath, Primary: true, RegistryVisible: true,
	}))
}

func (f *consoleFixture) request(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("X-Entity-ID", "ent-1")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestResolutionEndpoint(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a.pdf")

	rec := f.request(t, http.MethodGet, "/records/rec-1/resolution", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResolutionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "uploaded", resp.Tier)
	assert.Equal(t, "docs", resp.Bucket)
	assert.Equal(t, "ent-1/minutes/a.pdf", resp.Path)
	assert.Nil(t, resp.Document)
}

func TestResolutionEndpoint_NoArtifact(t *testing.T) {
	f := newConsoleFixture(t)
	require.NoError(t, registry.NewRecordStore(f.db).Create(context.Background(), &registry.MinuteRecord{
		ID: "rec-1", EntityID: "ent-1", Category: "minutes",
	}))

	rec := f.request(t, http.MethodGet, "/records/rec-1/resolution", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no preview available")
}

func TestResolutionEndpoint_RecordNotFound(t *testing.T) {
	f := newConsoleFixture(t)

	rec := f.request(t, http.MethodGet, "/records/rec-missing/resolution", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingEntityHeaderRejected(t *testing.T) {
	f := newConsoleFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/records/rec-1/resolution", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-Entity-ID")
}

func TestFileURLEndpoint(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a.pdf")
	f.store.objects["docs"] = []objstore.ObjectInfo{{Name: "ent-1/minutes/a.pdf", Updated: time.Now()}}

	rec := f.request(t, http.MethodGet, "/records/rec-1/file-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FileURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://signed.example/docs/ent-1/minutes/a.pdf", resp.AccessURL)
	assert.False(t, resp.Repaired)
}

// A stale recorded path triggers the repair search and the response
// carries the resolved path.
func TestFileURLEndpoint_Repair(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d-old.pdf")
	f.store.objects["docs"] = []objstore.ObjectInfo{
		{Name: "ent-1/minutes/a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d-signed.pdf", Updated: time.Now()},
	}

	rec := f.request(t, http.MethodGet, "/records/rec-1/file-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FileURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Repaired)
	assert.Equal(t, "ent-1/minutes/a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d-signed.pdf", resp.Path)
}

func TestFileURLEndpoint_Download(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a.pdf")
	f.store.objects["docs"] = []objstore.ObjectInfo{{Name: "ent-1/minutes/a.pdf", Updated: time.Now()}}

	rec := f.request(t, http.MethodGet, "/records/rec-1/file-url?download=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FileURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.AccessURL, "download=Annual meeting.pdf")
}

func TestFileURLEndpoint_ObjectGone(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a.pdf")
	// Storage holds nothing; the repair search comes up empty too.

	rec := f.request(t, http.MethodGet, "/records/rec-1/file-url", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "stored file missing")
}

func TestCertifyEndpoint(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a.pdf")

	rec := f.request(t, http.MethodPost, "/records/rec-1/certify", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CertifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-issued", resp.DocumentID)
	assert.False(t, resp.Reused)
	assert.Equal(t, 1, f.certifier.calls)
}

func TestCertifyEndpoint_LedgerOriginatedRejected(t *testing.T) {
	f := newConsoleFixture(t)
	require.NoError(t, registry.NewRecordStore(f.db).Create(context.Background(), &registry.MinuteRecord{
		ID: "rec-1", EntityID: "ent-1", Category: "minutes", SourceLedgerID: "led-1",
	}))

	rec := f.request(t, http.MethodPost, "/records/rec-1/certify", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, f.certifier.calls)
}

func TestCertifyEndpoint_FunctionErrorVerbatim(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a.pdf")
	f.certifier.resp = &certify.Response{OK: false, Error: "upload missing sha256"}

	rec := f.request(t, http.MethodPost, "/records/rec-1/certify", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload missing sha256")
}

func TestAuditEndpoint(t *testing.T) {
	f := newConsoleFixture(t)
	f.seedRecord(t, "ent-1/minutes/a.pdf")

	rec := f.request(t, http.MethodPost, "/records/rec-1/certify", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/records/rec-1/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []audit.CertificationEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "certify", resp.Events[0].Action)
	assert.Equal(t, "success", resp.Events[0].Outcome)
}

func TestAlternateDirs(t *testing.T) {
	rec := &registry.MinuteRecord{Category: "resolutions"}
	assert.Equal(t, []string{"ent-1/resolutions"}, alternateDirs(rec, "ent-1/minutes/a.pdf"))
	assert.Nil(t, alternateDirs(rec, "ent-1/resolutions/a.pdf"), "matching category adds nothing")
	assert.Nil(t, alternateDirs(rec, "a.pdf"), "rootless path adds nothing")
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "Annual meeting.pdf",
		downloadName(&registry.MinuteRecord{Title: "Annual meeting"}, "e/c/a.pdf"))
	assert.Equal(t, "a.pdf", downloadName(&registry.MinuteRecord{}, "e/c/a.pdf"))
}
