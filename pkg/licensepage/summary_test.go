package licensepage

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	rows := Summarize(groupsOf(dep("b", "1", "MIT"), dep("a", "1", "Apache-2.0"), dep("c", "1", "MIT")))

	assert.Equal(t, []SummaryRow{
		{Expression: "Apache-2.0", Count: 1, Crates: []string{"a"}},
		{Expression: "MIT", Count: 2, Crates: []string{"b", "c"}},
	}, rows)
}

func TestWriteSummaryTable(t *testing.T) {
	rows := []SummaryRow{
		{Expression: "Apache-2.0", Count: 1, Crates: []string{"a"}},
		{Expression: "MIT OR Apache-2.0", Count: 12, Crates: []string{"b", "c"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryTable(&buf, rows))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "LICENSE            COUNT  CRATES", lines[0])
	assert.Equal(t, "Apache-2.0             1  a", lines[1])
	assert.Equal(t, "MIT OR Apache-2.0     12  b, c", lines[2])
	assert.Equal(t, "13 crates under 2 license expressions", lines[4])
}

func TestWriteSummaryTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryTable(&buf, nil))
	assert.Equal(t, "LICENSE  COUNT  CRATES\n\n0 crates under 0 license expressions\n", buf.String())
}

func TestWriteSummaryJSON(t *testing.T) {
	rows := []SummaryRow{{Expression: "MIT", Count: 1, Crates: []string{"a"}}}
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryJSON(&buf, rows))

	var decoded []SummaryRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rows, decoded)
	assert.Contains(t, buf.String(), `"expression": "MIT"`)
}

func TestWriteSummary_WriteFailure(t *testing.T) {
	rows := []SummaryRow{{Expression: "MIT", Count: 1, Crates: []string{"a"}}}

	var outErr *OutputError
	assert.True(t, errors.As(WriteSummaryTable(&failingWriter{}, rows), &outErr))
	assert.True(t, errors.As(WriteSummaryJSON(&failingWriter{}, rows), &outErr))
}
