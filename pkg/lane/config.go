package lane

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Default bucket names. Overridable via env or a watched YAML file.
const (
	DefaultTestBucket = "oasis-sandbox-docs"
	DefaultRealBucket = "oasis-verified-docs"
)

// bucketConfig is the swappable part of a BucketTable.
type bucketConfig struct {
	TestBucket string `yaml:"testBucket"`
	RealBucket string `yaml:"realBucket"`
	// Strict makes Unknown candidates invisible under every lane.
	// Off by default: legacy rows predate lane flags and must stay
	// reachable under the real lane.
	Strict bool `yaml:"strict"`
}

// BucketTable maps storage bucket names to lanes. The table is safe for
// concurrent use and may be swapped at runtime via Load or a file watcher.
type BucketTable struct {
	cfg atomic.Pointer[bucketConfig]
}

// NewBucketTable creates a table with the default bucket names.
func NewBucketTable() *BucketTable {
	t := &BucketTable{}
	t.cfg.Store(&bucketConfig{
		TestBucket: DefaultTestBucket,
		RealBucket: DefaultRealBucket,
	})
	return t
}

// BucketTableFromEnv creates a table from OASIS_LANE_TEST_BUCKET,
// OASIS_LANE_REAL_BUCKET and OASIS_LANE_STRICT.
func BucketTableFromEnv() *BucketTable {
	t := NewBucketTable()
	cfg := *t.cfg.Load()
	if v := os.Getenv("OASIS_LANE_TEST_BUCKET"); v != "" {
		cfg.TestBucket = v
	}
	if v := os.Getenv("OASIS_LANE_REAL_BUCKET"); v != "" {
		cfg.RealBucket = v
	}
	if v := os.Getenv("OASIS_LANE_STRICT"); v != "" {
		cfg.Strict, _ = strconv.ParseBool(v)
	}
	t.cfg.Store(&cfg)
	return t
}

// ClassifyBucket maps a bucket name to a lane. Unrecognized buckets are
// Unknown.
func (t *BucketTable) ClassifyBucket(bucket string) Lane {
	cfg := t.cfg.Load()
	switch bucket {
	case cfg.TestBucket:
		return Test
	case cfg.RealBucket:
		return Real
	default:
		return Unknown
	}
}

// Buckets returns the current (test, real) bucket names.
func (t *BucketTable) Buckets() (test, real string) {
	cfg := t.cfg.Load()
	return cfg.TestBucket, cfg.RealBucket
}

// Bucket returns the bucket name for a lane, or "" for Unknown.
func (t *BucketTable) Bucket(l Lane) string {
	cfg := t.cfg.Load()
	switch l {
	case Test:
		return cfg.TestBucket
	case Real:
		return cfg.RealBucket
	default:
		return ""
	}
}

func (t *BucketTable) strict() bool {
	return t.cfg.Load().Strict
}

// Load replaces the table from a YAML file. Missing fields keep their
// current values.
func (t *BucketTable) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bucket table: %w", err)
	}
	cfg := *t.cfg.Load()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse bucket table %s: %w", path, err)
	}
	if cfg.TestBucket == "" || cfg.RealBucket == "" {
		return fmt.Errorf("bucket table %s: testBucket and realBucket are required", path)
	}
	if cfg.TestBucket == cfg.RealBucket {
		return fmt.Errorf("bucket table %s: testBucket and realBucket must differ", path)
	}
	t.cfg.Store(&cfg)
	return nil
}

// WatchFile reloads the table whenever the file changes. It returns a stop
// function. A reload failure keeps the previous table and logs at error.
func (t *BucketTable) WatchFile(path string, logger *slog.Logger) (func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := t.Load(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors and configmap mounts replace the file
	// rather than writing it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := t.Load(path); err != nil {
					logger.Error("bucket table reload failed", "path", path, "error", err)
					continue
				}
				test, real := t.Buckets()
				logger.Info("bucket table reloaded", "path", path, "testBucket", test, "realBucket", real)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("bucket table watcher error", "error", err)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
