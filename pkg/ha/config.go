// Package ha provides the primitives for running the ledger server with
// multiple replicas: a migration lock around schema changes and a
// database lease that confines singleton background loops (such as audit
// retention) to one replica.
package ha

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds high-availability settings.
type Config struct {
	// MigrationLockEnabled controls whether schema migrations are
	// serialized across replicas.
	MigrationLockEnabled bool

	// LeaseName identifies the singleton-worker lease row.
	LeaseName string

	// LeaseTTL is how long a held lease stays valid without renewal. A
	// crashed holder's lease expires after this and another replica takes
	// over.
	LeaseTTL time.Duration

	// RenewInterval is how often the holder refreshes the lease and how
	// often non-holders retry acquisition. Must be well below LeaseTTL.
	RenewInterval time.Duration

	// Identity is this replica's unique name. Defaults to the pod name or
	// hostname.
	Identity string
}

// DefaultConfig returns the default HA configuration.
func DefaultConfig() *Config {
	return &Config{
		MigrationLockEnabled: true,
		LeaseName:            "ledger-server-workers",
		LeaseTTL:             60 * time.Second,
		RenewInterval:        15 * time.Second,
		Identity:             defaultIdentity(),
	}
}

// ConfigFromEnv reads HA configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - OASIS_HA_MIGRATION_LOCK_ENABLED: "true" or "false" (default: "true")
//   - OASIS_HA_LEASE_NAME: lease row name (default: "ledger-server-workers")
//   - OASIS_HA_LEASE_TTL: seconds (default: 60)
//   - OASIS_HA_RENEW_INTERVAL: seconds (default: 15)
//   - POD_NAME: replica identity
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("OASIS_HA_MIGRATION_LOCK_ENABLED"); v != "" {
		cfg.MigrationLockEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("OASIS_HA_LEASE_NAME"); v != "" {
		cfg.LeaseName = v
	}
	if v := os.Getenv("OASIS_HA_LEASE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.LeaseTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("OASIS_HA_RENEW_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RenewInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("POD_NAME"); v != "" {
		cfg.Identity = v
	}

	return cfg
}

func defaultIdentity() string {
	if v := os.Getenv("POD_NAME"); v != "" {
		return v
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
