package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fulmenhq/licensepage/pkg/licensepage"
	"github.com/fulmenhq/licensepage/pkg/licensetext"
	"github.com/fulmenhq/licensepage/pkg/safeio"
	"github.com/fulmenhq/licensepage/pkg/spdx"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// Text sources reported by the texts command.
const (
	sourceStore     = "store"
	sourceCatalog   = "catalog"
	sourceReference = "reference"
	sourceNone      = "none"
)

func errInvalidFormat(format string) error {
	return fmt.Errorf("invalid format %q (want table or json)", format)
}

// textCoverage says where the page would take an identifier's text from.
type textCoverage struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}

func newTextsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texts",
		Short: "List license and exception texts available to the page",
		Long: `Texts lists every identifier in the SPDX catalog and where its full text
comes from. Store texts win over catalog texts. SPDX-listed identifiers
without a bundled text are printed as a link to the published text; other
identifiers without any text make page generation fail when a dependency
uses them.`,
		Args: cobra.NoArgs,
		RunE: runTexts,
	}
	cmd.Flags().String("format", "table", "Output format (table|json)")
	cmd.Flags().Bool("missing", false, "Only list identifiers without a text")
	cmd.Flags().String("texts-dir", "", "Directory of <license-id>.txt files overriding bundled texts")
	cmd.Flags().String("spdx-data-dir", "", "SPDX license-list-data json/ directory extending the catalog")
	cmd.Flags().Bool("no-text-store", false, "Ignore the license text store")
	return cmd
}

func runTexts(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return usageError{errInvalidFormat(format)}
	}
	missing, _ := cmd.Flags().GetBool("missing")

	dir, err := projectDir(nil)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(safeio.ResolvePath(dir, cfg.Sources.SPDXDataDir))
	if err != nil {
		return fmt.Errorf("failed to load SPDX catalog: %w", err)
	}
	store, err := loadStore(cfg.Render.TextStore, safeio.ResolvePath(dir, cfg.Sources.TextsDir))
	if err != nil {
		return fmt.Errorf("failed to load license texts: %w", err)
	}

	rows := coverage(catalog, store)
	if missing {
		kept := rows[:0]
		for _, r := range rows {
			if r.Source == sourceNone {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return &licensepage.OutputError{Err: err}
		}
		return nil
	}
	return writeCoverageTable(out, rows)
}

// coverage reports every catalog identifier plus store entries the catalog
// does not list. Exceptions only ever come from the catalog.
func coverage(catalog *spdx.Catalog, store *licensetext.Store) []textCoverage {
	var rows []textCoverage
	listed := make(map[string]bool)

	for _, l := range catalog.Licenses() {
		listed[strings.ToLower(l.ID)] = true
		src := sourceNone
		if _, ok := lookupStore(store, l.ID); ok {
			src = sourceStore
		} else if strings.TrimSpace(l.Text) != "" {
			src = sourceCatalog
		} else if l.Listed {
			src = sourceReference
		}
		rows = append(rows, textCoverage{ID: l.ID, Kind: licensepage.KindLicense.String(), Name: l.Name, Source: src})
	}
	if store != nil {
		for _, id := range store.Keys() {
			if !listed[id] {
				rows = append(rows, textCoverage{ID: id, Kind: licensepage.KindLicense.String(), Source: sourceStore})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].ID) < strings.ToLower(rows[j].ID)
	})

	for _, e := range catalog.Exceptions() {
		src := sourceNone
		if strings.TrimSpace(e.Text) != "" {
			src = sourceCatalog
		} else if e.Listed {
			src = sourceReference
		}
		rows = append(rows, textCoverage{ID: e.ID, Kind: licensepage.KindException.String(), Name: e.Name, Source: src})
	}
	return rows
}

func lookupStore(store *licensetext.Store, id string) (string, bool) {
	if store == nil {
		return "", false
	}
	return store.Lookup(id)
}

func writeCoverageTable(w io.Writer, rows []textCoverage) error {
	cells := [][]string{{"ID", "KIND", "SOURCE", "NAME"}}
	counts := make(map[string]int)
	for _, r := range rows {
		cells = append(cells, []string{r.ID, r.Kind, r.Source, r.Name})
		counts[r.Source]++
	}

	widths := make([]int, 3)
	for _, row := range cells {
		for i := range widths {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	for _, row := range cells {
		var b strings.Builder
		for i := range widths {
			b.WriteString(runewidth.FillRight(row[i], widths[i]))
			b.WriteString("  ")
		}
		b.WriteString(row[3])
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return &licensepage.OutputError{Err: err}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d identifiers: %d from store, %d from catalog, %d linked to SPDX, %d without text\n",
		len(rows), counts[sourceStore], counts[sourceCatalog], counts[sourceReference], counts[sourceNone])
	if err != nil {
		return &licensepage.OutputError{Err: err}
	}
	return nil
}
