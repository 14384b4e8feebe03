/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fulmenhq/licensepage/pkg/buildinfo"
	"github.com/fulmenhq/licensepage/pkg/licensepage"
	"github.com/fulmenhq/licensepage/pkg/licensetext"
	"github.com/fulmenhq/licensepage/pkg/spdx"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show build details and bundled license data")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	info := map[string]interface{}{
		"version":   buildinfo.Version(),
		"goVersion": runtime.Version(),
		"platform":  runtime.GOOS,
		"arch":      runtime.GOARCH,
	}
	if buildinfo.Commit != "" {
		info["commit"] = buildinfo.Commit
	}
	if buildinfo.BuildDate != "" {
		info["buildDate"] = buildinfo.BuildDate
	}
	if extended || jsonOutput {
		catalog, err := spdx.Default()
		if err != nil {
			return err
		}
		store, err := licensetext.Default()
		if err != nil {
			return err
		}
		info["spdxLicenses"] = len(catalog.Licenses())
		info["spdxExceptions"] = len(catalog.Exceptions())
		info["licenseTexts"] = store.Len()
	}

	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(data)); err != nil {
			return &licensepage.OutputError{Err: err}
		}
		return nil
	}

	if _, err := fmt.Fprintf(out, "licensepage %s\n", info["version"]); err != nil {
		return &licensepage.OutputError{Err: err}
	}
	if !extended {
		return nil
	}
	lines := []string{
		fmt.Sprintf("Go version: %s", info["goVersion"]),
		fmt.Sprintf("Platform: %s/%s", info["platform"], info["arch"]),
	}
	if c, ok := info["commit"]; ok {
		lines = append(lines, fmt.Sprintf("Commit: %s", c))
	}
	if d, ok := info["buildDate"]; ok {
		lines = append(lines, fmt.Sprintf("Built: %s", d))
	}
	lines = append(lines,
		fmt.Sprintf("SPDX catalog: %d licenses, %d exceptions", info["spdxLicenses"], info["spdxExceptions"]),
		fmt.Sprintf("License texts: %d", info["licenseTexts"]),
	)
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return &licensepage.OutputError{Err: err}
		}
	}
	return nil
}
