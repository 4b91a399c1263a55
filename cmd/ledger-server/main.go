// Package main provides the governance-console engine server. It hosts
// the artifact-resolution routes the console views call.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang/glog"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/internal/db"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/audit"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/authority"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/certify"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/console"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/ha"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/lane"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/locate"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/objstore"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/registry"
)

func main() {
	var (
		listenAddr   string
		databaseType string
		databaseDSN  string
		storageURL   string
		certifyURL   string
		lanesPath    string
	)

	flag.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	flag.StringVar(&databaseType, "db-type", "postgres", "Database type (postgres, mysql, or sqlite)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.StringVar(&storageURL, "storage-url", "", "Storage gateway base URL")
	flag.StringVar(&certifyURL, "certify-url", "", "Certification function base URL")
	flag.StringVar(&lanesPath, "lanes", "", "Path to lane bucket table YAML (optional, hot-reloaded)")
	flag.Parse()

	// Initialize glog for backwards compatibility
	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ledger server", "listen", listenAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if databaseDSN == "" {
		databaseDSN = os.Getenv("DATABASE_DSN")
	}
	gormDB, err := db.Connect(databaseType, databaseDSN)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	haCfg := ha.ConfigFromEnv()
	locker := ha.NoopMigrationLocker()
	if haCfg.MigrationLockEnabled {
		locker = ha.NewMigrationLocker(gormDB)
	}
	err = locker.WithLock(ctx, func() error {
		return registry.AutoMigrate(gormDB)
	})
	if err != nil {
		glog.Fatalf("Failed to migrate registry tables: %v", err)
	}

	if storageURL == "" {
		storageURL = os.Getenv("OASIS_STORAGE_URL")
	}
	if storageURL == "" {
		glog.Fatalf("Storage gateway URL is required (use -storage-url or OASIS_STORAGE_URL)")
	}
	if certifyURL == "" {
		certifyURL = os.Getenv("OASIS_CERTIFY_URL")
	}
	if certifyURL == "" {
		glog.Fatalf("Certification function URL is required (use -certify-url or OASIS_CERTIFY_URL)")
	}

	// Lane bucket table: env defaults, optionally overridden by a
	// hot-reloaded YAML file.
	lanes := lane.BucketTableFromEnv()
	if lanesPath != "" {
		stop, err := lanes.WatchFile(lanesPath, logger)
		if err != nil {
			glog.Fatalf("Failed to load lane bucket table: %v", err)
		}
		defer stop()
		test, real := lanes.Buckets()
		logger.Info("lane bucket table loaded", "path", lanesPath, "testBucket", test, "realBucket", real)
	}

	records := registry.NewRecordStore(gormDB)
	uploads := registry.NewUploadStore(gormDB)
	docs := registry.NewDocumentStore(gormDB)
	ledger := registry.NewLedgerStore(gormDB)

	trail := audit.NewStore(gormDB)
	if err := trail.AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate audit table: %v", err)
	}
	auditCfg := audit.ConfigFromEnv()

	// The retention sweep runs on one replica at a time, behind a
	// database lease.
	lease := ha.NewWorkerLease(gormDB, haCfg, logger)
	if err := lease.AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate worker lease table: %v", err)
	}
	retention := audit.NewRetentionWorker(trail, auditCfg.RetentionDays, logger)
	go lease.Run(ctx, retention.Run)

	store := objstore.NewHTTPClient(storageURL)
	locator := locate.New(store, locate.ConfigFromEnv(), logger)
	resolver := authority.NewResolver(docs, ledger, uploads, lanes, logger)
	coordinator := certify.NewCoordinator(
		certify.NewHTTPCertifier(certifyURL), docs, trail, auditCfg, locator.Cache(), logger)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Entity-ID", "X-Lane", "X-User-Principal"},
	}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Mount("/api/v1", console.NewRouter(records, resolver, locator, coordinator, trail))

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("ledger server ready", "listen", listenAddr)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("ledger server stopped")
}
