// Package locate turns a recorded (bucket, path) into a time-boxed access
// URL, repairing stale paths by a bounded directory search before giving
// up. Historical records can point at objects that were moved or renamed;
// treating the first miss as fatal would regress previously-working links
// every time storage hygiene work happens upstream.
package locate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/objstore"
)

// NotFoundError reports that the exact path was missing and the repair
// search exhausted every candidate directory. It carries the originally
// requested location for diagnostics.
type NotFoundError struct {
	Bucket string
	Path   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object %s/%s not found after repair search", e.Bucket, e.Path)
}

// Unwrap allows errors.Is(err, objstore.ErrObjectNotFound).
func (e *NotFoundError) Unwrap() error { return objstore.ErrObjectNotFound }

// Result is a successful location. Bucket and Path are the location that
// actually resolved, which may differ from the requested one after repair;
// callers must display the resolved location for audit fidelity.
type Result struct {
	AccessURL string
	Bucket    string
	Path      string
	// Repaired is true when the result came from the repair search
	// rather than the recorded path.
	Repaired bool
}

// Options tunes a single Locate call.
type Options struct {
	// DownloadName forces the browser download filename.
	DownloadName string
	// AlternateDirs are extra directories to search during repair, used
	// when a record's category folder may have moved or been renamed
	// with different casing.
	AlternateDirs []string
}

// Locator resolves recorded storage locations against an object store.
type Locator struct {
	store  objstore.Store
	cfg    *Config
	cache  *objstore.URLCache
	logger *slog.Logger
}

// New creates a Locator. A nil config uses defaults.
func New(store objstore.Store, cfg *Config, logger *slog.Logger) *Locator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		store:  store,
		cfg:    cfg,
		cache:  objstore.NewURLCache(cfg.CacheSize, cfg.CacheTTL),
		logger: logger,
	}
}

// Cache exposes the signed-URL memo so callers can invalidate entries
// after a reissue replaces a stored object.
func (l *Locator) Cache() *objstore.URLCache { return l.cache }

// Locate mints a signed access URL for (bucket, path). On an exact-path
// miss it runs the repair search; any other storage error propagates
// immediately and never triggers repair.
func (l *Locator) Locate(ctx context.Context, bucket, path string, opts Options) (*Result, error) {
	path = normalizePath(path)

	key := objstore.CacheKey{Bucket: bucket, Path: path, DownloadName: opts.DownloadName}
	if url, ok := l.cache.Get(key); ok {
		return &Result{AccessURL: url, Bucket: bucket, Path: path}, nil
	}

	signOpts := objstore.SignOptions{TTL: l.cfg.URLTTL, DownloadName: opts.DownloadName}
	url, err := l.store.SignURL(ctx, bucket, path, signOpts)
	if err == nil {
		l.cache.Set(key, url)
		return &Result{AccessURL: url, Bucket: bucket, Path: path}, nil
	}
	if !errors.Is(err, objstore.ErrObjectNotFound) {
		return nil, fmt.Errorf("sign url for %s/%s: %w", bucket, path, err)
	}

	return l.repair(ctx, bucket, path, opts, signOpts)
}

// repair searches candidate directories for the intended object after a
// confirmed exact-path miss.
func (l *Locator) repair(ctx context.Context, bucket, path string, opts Options, signOpts objstore.SignOptions) (*Result, error) {
	dir, file := splitPath(path)
	spec := newMatchSpec(file)
	dirs := candidateDirs(dir, opts.AlternateDirs)

	l.logger.Debug("storage repair search",
		"bucket", bucket, "path", path, "dirs", len(dirs), "uuidPrefix", spec.prefix != "")

	// Candidate directories are independent reads with no ordering
	// requirement; list them concurrently and merge before filtering.
	var (
		mu      sync.Mutex
		merged  []objstore.ObjectInfo
		listErr error
		wg      sync.WaitGroup
	)
	for _, d := range dirs {
		wg.Add(1)
		go func(d string) {
			defer wg.Done()
			entries, err := l.store.List(ctx, bucket, d, l.cfg.ListLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if listErr == nil {
					listErr = fmt.Errorf("list %s/%s: %w", bucket, d, err)
				}
				return
			}
			merged = append(merged, entries...)
		}(d)
	}
	wg.Wait()
	if listErr != nil {
		return nil, listErr
	}

	match := bestMatch(merged, spec)
	if match == nil {
		return nil, &NotFoundError{Bucket: bucket, Path: path}
	}

	url, err := l.store.SignURL(ctx, bucket, match.Name, signOpts)
	if err != nil {
		// The listing just reported the object; a miss here means the
		// store mutated mid-search. Surface whatever came back.
		return nil, fmt.Errorf("sign url for repaired %s/%s: %w", bucket, match.Name, err)
	}

	l.logger.Info("storage path repaired",
		"bucket", bucket, "requested", path, "resolved", match.Name)

	l.cache.Set(objstore.CacheKey{Bucket: bucket, Path: match.Name, DownloadName: opts.DownloadName}, url)
	return &Result{AccessURL: url, Bucket: bucket, Path: match.Name, Repaired: true}, nil
}
