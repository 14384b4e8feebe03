/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/licensepage/internal/ops"
	"github.com/fulmenhq/licensepage/pkg/buildinfo"
	"github.com/fulmenhq/licensepage/pkg/exitcode"
	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// Tests build isolated command trees from it without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "licensepage [path]",
		Short: "Generate a Markdown page of third-party crate licenses",
		Long: `licensepage lists the dependencies of a Rust project grouped by license
expression, followed by the full text of every license and exception used.

Examples:
   licensepage                        # page for the project in the current directory
   licensepage ./crates/server -o THIRD_PARTY.md
   licensepage --style fenced --avoid-dev-deps
   licensepage summary                # license expressions and crate counts`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeLogger(cmd)
		},
		RunE: runGenerate,
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.String("log-level", "warn", "Set log level (trace|debug|info|warn|error)")
	pf.Bool("log-json", false, "Output logs in JSON format")
	pf.Bool("no-color", false, "Disable colored log output")
	pf.String("config", "", "Configuration file (default: licensepage.yaml in the project directory)")

	// Dependency selection, shared by generate and summary
	pf.Bool("avoid-dev-deps", false, "Skip dev-dependencies")
	pf.Bool("avoid-build-deps", false, "Skip build-dependencies")
	pf.Bool("avoid-proc-macros", false, "Skip proc-macro crates and crates only they depend on")
	pf.Bool("include-workspace-members", false, "List the project's own workspace members")
	pf.StringSlice("exclude", nil, "Crate name glob to leave out (repeatable)")
	pf.Bool("offline", false, "Run cargo metadata with --offline")
	pf.Duration("cargo-timeout", defaultCargoTimeout, "Time limit for cargo metadata")

	// Rendering
	f := cmd.Flags()
	f.StringP("output", "o", "", "Write the page to a file instead of stdout")
	f.String("style", "quote", "License text rendering (quote|fenced)")
	f.String("title", "", "Heading of the crate listing")
	f.String("texts-title", "", "Heading of the license text section")
	f.String("preamble-section", "", "Template printed before the listing heading")
	f.String("crate-licenses-preamble", "", "Template printed after the listing heading")
	f.String("texts-dir", "", "Directory of <license-id>.txt files overriding bundled texts")
	f.String("spdx-data-dir", "", "SPDX license-list-data json/ directory extending the catalog")
	f.Bool("no-text-store", false, "Take every text from the SPDX catalog")
	f.Bool("enrich", false, "Look up missing repository links on crates.io")
	f.Duration("registry-timeout", 0, "HTTP timeout for crates.io lookups")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("licensepage {{.Version}}\n")

	registerSubcommands(cmd)
	return cmd
}

// registerSubcommands adds all subcommands to the root command and sorts
// them into help groups.
func registerSubcommands(root *cobra.Command) {
	reg := ops.NewRegistry()
	subs := []struct {
		cmd   *cobra.Command
		group ops.CommandGroup
	}{
		{newSummaryCommand(), ops.GroupReport},
		{newTextsCommand(), ops.GroupData},
		{newVersionCommand(), ops.GroupSupport},
	}
	for _, s := range subs {
		root.AddCommand(s.cmd)
		if err := reg.Register(s.cmd.Name(), s.group, s.cmd, s.cmd.Short); err != nil {
			panic(err)
		}
	}
	reg.Apply(root)
	root.SetHelpCommandGroupID(string(ops.GroupSupport))
	root.SetCompletionCommandGroupID(string(ops.GroupSupport))
}

// Execute runs the command line and exits with the code matching the failure.
// This is called by main.main().
func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError logs a failed run and returns its exit code. Without a
// logger the error goes to w.
func reportError(w io.Writer, err error) int {
	code := exitCodeFor(err)
	if logger.Enabled(logger.ErrorLevel) {
		logger.Error("Command execution failed", logger.Err(err),
			logger.Int("exit_code", code), logger.String("reason", exitcode.String(code)))
	} else {
		fmt.Fprintf(w, "Error: %v (%s)\n", err, exitcode.String(code))
	}
	return code
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) error {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("log-json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	level, err := logger.ParseLevel(logLevelStr)
	if err != nil {
		return usageError{err}
	}

	_, noColorEnv := os.LookupEnv("NO_COLOR")
	return logger.Initialize(logger.Config{
		Level:     level,
		UseColor:  !noColor && !noColorEnv && !jsonLogs,
		JSON:      jsonLogs,
		Component: "licensepage",
		Output:    cmd.ErrOrStderr(),
	})
}
