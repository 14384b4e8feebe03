package licensepage

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fulmenhq/licensepage/pkg/crates"
	"github.com/mattn/go-runewidth"
)

// SummaryRow is one license group reduced to names.
type SummaryRow struct {
	Expression string   `json:"expression"`
	Count      int      `json:"count"`
	Crates     []string `json:"crates"`
}

// Summarize keeps group order.
func Summarize(groups []crates.LicenseGroup) []SummaryRow {
	rows := make([]SummaryRow, 0, len(groups))
	for _, g := range groups {
		names := make([]string, 0, len(g.Crates))
		for _, c := range g.Crates {
			names = append(names, c.Name)
		}
		rows = append(rows, SummaryRow{Expression: g.Expression.String(), Count: g.Count, Crates: names})
	}
	return rows
}

// WriteSummaryJSON writes rows as an indented JSON array.
func WriteSummaryJSON(w io.Writer, rows []SummaryRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return &OutputError{Err: err}
	}
	return nil
}

// WriteSummaryTable writes an aligned LICENSE / COUNT / CRATES table. Column
// widths are measured in terminal cells.
func WriteSummaryTable(w io.Writer, rows []SummaryRow) error {
	header := []string{"LICENSE", "COUNT", "CRATES"}
	cells := [][]string{header}
	total := 0
	for _, r := range rows {
		total += r.Count
		cells = append(cells, []string{r.Expression, strconv.Itoa(r.Count), strings.Join(r.Crates, ", ")})
	}

	widths := make([]int, 2)
	for _, row := range cells {
		for i := range widths {
			if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for _, row := range cells {
		line := runewidth.FillRight(row[0], widths[0]) + "  " +
			runewidth.FillLeft(row[1], widths[1]) + "  " + row[2]
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return &OutputError{Err: err}
		}
	}
	if _, err := fmt.Fprintf(w, "\n%d crates under %d license expressions\n", total, len(rows)); err != nil {
		return &OutputError{Err: err}
	}
	return nil
}
