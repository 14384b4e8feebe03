package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "quote", cfg.Render.Style)
	assert.True(t, cfg.Render.TextStore)
	assert.Equal(t, "Crate Licenses", cfg.Render.Title)
	assert.Equal(t, "License and Exception Full Texts", cfg.Render.TextsTitle)
	assert.False(t, cfg.Filter.AvoidDevDeps)
	assert.Empty(t, cfg.Filter.Exclude)
	assert.False(t, cfg.Registry.Enrich)
	assert.Equal(t, 30*time.Second, cfg.Registry.Timeout)
	assert.Empty(t, cfg.File)
	assert.False(t, cfg.CargoSection)
}

func TestDefault_IsCopy(t *testing.T) {
	a := Default()
	a.Filter.Exclude = append(a.Filter.Exclude, "x")
	a.Render.Style = "fenced"

	b := Default()
	assert.Empty(t, b.Filter.Exclude)
	assert.Equal(t, "quote", b.Render.Style)
}

func TestLoad_ProjectFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".licensepage.yaml", `
render:
  style: fenced
  title: Third-Party Notices
filter:
  avoid_dev_deps: true
  exclude: ["windows-*", "internal-*"]
registry:
  enrich: true
  timeout: 5s
`)

	cfg, err := Load(LoadOptions{ProjectDir: dir})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".licensepage.yaml"), cfg.File)
	assert.Equal(t, "fenced", cfg.Render.Style)
	assert.Equal(t, "Third-Party Notices", cfg.Render.Title)
	assert.Equal(t, "License and Exception Full Texts", cfg.Render.TextsTitle, "unset keys keep defaults")
	assert.True(t, cfg.Filter.AvoidDevDeps)
	assert.Equal(t, []string{"windows-*", "internal-*"}, cfg.Filter.Exclude)
	assert.True(t, cfg.Registry.Enrich)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
}

func TestLoad_FileSearchOrder(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "licensepage.yaml", "render:\n  title: First\n")
	write(t, dir, ".licensepage.yaml", "render:\n  title: Second\n")

	cfg, err := Load(LoadOptions{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "First", cfg.Render.Title)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "licensepage.yaml", "render:\n  title: Project\n")
	explicit := write(t, t.TempDir(), "custom.json", `{"render": {"title": "Explicit"}}`)

	cfg, err := Load(LoadOptions{ProjectDir: dir, ConfigFile: explicit})
	require.NoError(t, err)
	assert.Equal(t, "Explicit", cfg.Render.Title)
	assert.Equal(t, explicit, cfg.File)

	_, err = Load(LoadOptions{ProjectDir: dir, ConfigFile: filepath.Join(dir, "missing.yaml")})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown style", "render:\n  style: html\n"},
		{"unknown key", "render:\n  colour: red\n"},
		{"unknown section", "output:\n  path: x\n"},
		{"wrong type", "filter:\n  avoid_dev_deps: \"yes please\"\n"},
		{"bad duration", "registry:\n  timeout: soon\n"},
		{"not yaml", "render: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			write(t, dir, "licensepage.yaml", tt.content)

			_, err := Load(LoadOptions{ProjectDir: dir})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoad_CargoSection(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "Cargo.toml", `[package]
name = "app"
version = "0.1.0"

[package.metadata.licensepage.render]
style = "fenced"
title = "From Cargo"

[package.metadata.licensepage.filter]
avoid_build_deps = true
`)

	cfg, err := Load(LoadOptions{ProjectDir: dir})
	require.NoError(t, err)
	assert.True(t, cfg.CargoSection)
	assert.Equal(t, "fenced", cfg.Render.Style)
	assert.Equal(t, "From Cargo", cfg.Render.Title)
	assert.True(t, cfg.Filter.AvoidBuildDeps)

	write(t, dir, "licensepage.yaml", "render:\n  title: From File\n")
	cfg, err = Load(LoadOptions{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "From File", cfg.Render.Title, "the file outranks Cargo.toml")
	assert.Equal(t, "fenced", cfg.Render.Style, "Cargo.toml still fills the rest")
}

func TestLoad_CargoSectionInvalid(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "Cargo.toml", "[package]\nname = \"app\"\n\n[package.metadata.licensepage]\nrender = { style = \"html\" }\n")

	_, err := Load(LoadOptions{ProjectDir: dir})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "licensepage.yaml", "render:\n  style: fenced\n")
	t.Setenv("LICENSEPAGE_RENDER_STYLE", "quote")
	t.Setenv("LICENSEPAGE_FILTER_AVOID_PROC_MACROS", "true")

	cfg, err := Load(LoadOptions{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "quote", cfg.Render.Style)
	assert.True(t, cfg.Filter.AvoidProcMacros)
}

func TestLoad_EnvInvalidStyle(t *testing.T) {
	t.Setenv("LICENSEPAGE_RENDER_STYLE", "html")

	_, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoad_FlagsOverrideOnlyWhenSet(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "licensepage.yaml", "render:\n  style: fenced\n  title: File Title\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("style", "quote", "")
	flags.String("title", "Crate Licenses", "")
	require.NoError(t, flags.Parse([]string{"--title", "Flag Title"}))

	cfg, err := Load(LoadOptions{ProjectDir: dir, Flags: map[string]*pflag.Flag{
		"render.style": flags.Lookup("style"),
		"render.title": flags.Lookup("title"),
		"render.nope":  nil,
	}})
	require.NoError(t, err)
	assert.Equal(t, "fenced", cfg.Render.Style, "unset flag does not override the file")
	assert.Equal(t, "Flag Title", cfg.Render.Title)
}

func TestReadCargoSection(t *testing.T) {
	dir := t.TempDir()

	section, err := ReadCargoSection(filepath.Join(dir, "Cargo.toml"))
	require.NoError(t, err)
	assert.Nil(t, section)

	path := write(t, dir, "Cargo.toml", "[workspace]\nmembers = [\"a\"]\n\n[workspace.metadata.licensepage.registry]\nenrich = true\n")
	section, err = ReadCargoSection(path)
	require.NoError(t, err)
	require.NotNil(t, section)
	registry, ok := section["registry"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, registry["enrich"])

	write(t, dir, "Cargo.toml", "[package]\nname = \"a\"\n\n[package.metadata]\nlicensepage = \"nope\"\n")
	_, err = ReadCargoSection(path)
	assert.True(t, errors.Is(err, ErrInvalid))

	write(t, dir, "Cargo.toml", "[package\n")
	_, err = ReadCargoSection(path)
	assert.True(t, errors.Is(err, ErrInvalid))
}
