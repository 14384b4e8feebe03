package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreambleContext_GitState(t *testing.T) {
	dir := rustProject(t, "")
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("Cargo.toml")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)

	ctx := preambleContext(dir, nil, 4)
	assert.Equal(t, "app", ctx.Project)
	assert.Equal(t, 4, ctx.CrateCount)
	assert.Equal(t, hash.String()[:12], ctx.Revision)
	assert.False(t, ctx.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"app\"\nversion = \"0.2.0\"\n"), 0o644))
	assert.True(t, preambleContext(dir, nil, 4).Dirty)
}

func TestPreambleContext_OutsideRepository(t *testing.T) {
	dir := t.TempDir()

	ctx := preambleContext(dir, nil, 0)
	assert.Equal(t, filepath.Base(dir), ctx.Project)
	assert.Empty(t, ctx.Revision)
	assert.False(t, ctx.Dirty)
}
