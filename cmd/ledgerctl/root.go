package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	entityID  string
	laneName  string
	actor     string
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "CLI for the governance-console engine server",
	Long: `ledgerctl is an operator CLI for the governance-console engine.

It resolves a record's authoritative artifact, mints access URLs (running
the storage repair search when recorded paths are stale), drives
certification and reissue, and tails the certification audit trail.

Every command runs within one entity scope and one lane; cross-lane
documents are never visible.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Ledger server URL")
	rootCmd.PersistentFlags().StringVarP(&entityID, "entity", "e", "", "Owning-entity scope (default: from OASIS_ENTITY_ID env)")
	rootCmd.PersistentFlags().StringVar(&laneName, "lane", "real", "Active lane: test or real")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Acting principal recorded in audit events")

	rootCmd.AddCommand(resolutionCmd)
	rootCmd.AddCommand(fileURLCmd)
	rootCmd.AddCommand(certifyCmd)
	rootCmd.AddCommand(auditCmd)
}

// resolvedEntity returns the effective entity scope.
// Priority: --entity flag > OASIS_ENTITY_ID env var.
func resolvedEntity() string {
	if entityID != "" {
		return entityID
	}
	return os.Getenv("OASIS_ENTITY_ID")
}
