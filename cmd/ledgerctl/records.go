package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var resolutionCmd = &cobra.Command{
	Use:   "resolution [record-id]",
	Short: "Show which artifact is authoritative for a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var out map[string]any
		if err := client.do("GET", "/records/"+url.PathEscape(args[0])+"/resolution", nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var fileURLCmd = &cobra.Command{
	Use:   "file-url [record-id]",
	Short: "Mint a time-boxed access URL for a record's artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		download, _ := cmd.Flags().GetBool("download")
		client, err := newClient()
		if err != nil {
			return err
		}
		path := "/records/" + url.PathEscape(args[0]) + "/file-url"
		if download {
			path += "?download=1"
		}
		var out map[string]any
		if err := client.do("GET", path, nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var certifyCmd = &cobra.Command{
	Use:   "certify [record-id]",
	Short: "Promote a record's upload into a verified document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		client, err := newClient()
		if err != nil {
			return err
		}
		var out map[string]any
		if err := client.do("POST", "/records/"+url.PathEscape(args[0])+"/certify",
			map[string]bool{"force": force}, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit [record-id]",
	Short: "Show a record's certification audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		client, err := newClient()
		if err != nil {
			return err
		}
		path := "/records/" + url.PathEscape(args[0]) + "/audit"
		if limit > 0 {
			path += fmt.Sprintf("?limit=%d", limit)
		}
		var out map[string]any
		if err := client.do("GET", path, nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

func init() {
	fileURLCmd.Flags().Bool("download", false, "Force a download filename derived from the record title")
	certifyCmd.Flags().Bool("force", false, "Reissue an existing promoted document")
	auditCmd.Flags().Int("limit", 0, "Max events to return")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
