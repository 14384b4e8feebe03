package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/licensepage/pkg/licensetext"
	"github.com/fulmenhq/licensepage/pkg/spdx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverage(t *testing.T) {
	catalog := spdx.NewCatalog(
		[]spdx.License{
			{ID: "MIT", Name: "MIT License", Text: "mit"},
			{ID: "Apache-2.0", Name: "Apache License 2.0"},
			{ID: "Zlib", Name: "zlib License"},
			{ID: "AGPL-3.0-only", Name: "AGPL-3.0-only", Listed: true},
		},
		[]spdx.Exception{{ID: "LLVM-exception", Name: "LLVM Exception", Text: "llvm"}},
	)
	store, err := licensetext.New([]licensetext.Entry{
		{ID: "apache-2.0", Text: "apache"},
		{ID: "custom-1.0", Text: "custom"},
	})
	require.NoError(t, err)

	rows := coverage(catalog, store)
	assert.Equal(t, []textCoverage{
		{ID: "AGPL-3.0-only", Kind: "license", Name: "AGPL-3.0-only", Source: sourceReference},
		{ID: "Apache-2.0", Kind: "license", Name: "Apache License 2.0", Source: sourceStore},
		{ID: "custom-1.0", Kind: "license", Source: sourceStore},
		{ID: "MIT", Kind: "license", Name: "MIT License", Source: sourceCatalog},
		{ID: "Zlib", Kind: "license", Name: "zlib License", Source: sourceNone},
		{ID: "LLVM-exception", Kind: "exception", Name: "LLVM Exception", Source: sourceCatalog},
	}, rows)

	rows = coverage(catalog, nil)
	assert.Equal(t, sourceNone, rows[1].Source, "without a store Apache-2.0 has no text")
}

func TestTexts_Table(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execRoot(t, []string{"texts"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 3)
	assert.Regexp(t, `^ID\s+KIND\s+SOURCE\s+NAME$`, lines[0])
	assert.Regexp(t, `(?m)^MIT\s+license\s+store\s+MIT License$`, out)
	assert.Regexp(t, `(?m)^LLVM-exception\s+exception\s+catalog\s+LLVM Exception$`, out)
	assert.Regexp(t, `(?m)^GPL-2\.0-only\s+license\s+catalog\s+GNU General Public License v2\.0 only$`, out)
	assert.Regexp(t, `(?m)^AGPL-3\.0-only\s+license\s+reference\s+AGPL-3\.0-only$`, out)
	assert.Regexp(t, `identifiers: \d+ from store, \d+ from catalog, \d+ linked to SPDX, 0 without text$`, lines[len(lines)-1])
}

func TestTexts_JSONMissingWithOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	data := filepath.Join(dir, "spdx")
	require.NoError(t, os.MkdirAll(filepath.Join(data, "details"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "details", "NoText-1.0.json"),
		[]byte(`{"licenseId": "NoText-1.0", "name": "License Without Text", "isOsiApproved": false}`), 0o644))

	out, _, err := execRoot(t, []string{"texts", "--spdx-data-dir", "spdx", "--missing", "--format", "json"})
	require.NoError(t, err)

	var rows []textCoverage
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, textCoverage{ID: "NoText-1.0", Kind: "license", Name: "License Without Text", Source: sourceNone}, rows[0])
}

func TestTexts_NoTextStore(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execRoot(t, []string{"texts", "--no-text-store"})
	require.NoError(t, err)
	assert.NotRegexp(t, `(?m)\sstore\s`, out)
}
