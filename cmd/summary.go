/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"

	"github.com/fulmenhq/licensepage/pkg/licensepage"
	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/spf13/cobra"
)

func newSummaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [path]",
		Short: "Show license expressions and how many crates use each",
		Long: `Summary groups the project's dependencies by license expression, the same
way the license page does, and prints one row per group.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSummary,
	}
	cmd.Flags().String("format", "table", "Output format (table|json)")
	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return usageError{errInvalidFormat(format)}
	}

	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	list, err := loadCrates(ctx, cmd, cfg, dir)
	if err != nil {
		return err
	}

	rows := licensepage.Summarize(list.ByLicense())
	logger.Debug("Summarized licenses", logger.Int("crates", list.Len()), logger.Int("groups", len(rows)))

	if format == "json" {
		return licensepage.WriteSummaryJSON(cmd.OutOrStdout(), rows)
	}
	return licensepage.WriteSummaryTable(cmd.OutOrStdout(), rows)
}
