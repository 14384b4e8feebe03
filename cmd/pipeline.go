package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/licensepage/internal/gitctx"
	"github.com/fulmenhq/licensepage/pkg/config"
	"github.com/fulmenhq/licensepage/pkg/crates"
	"github.com/fulmenhq/licensepage/pkg/licensepage"
	"github.com/fulmenhq/licensepage/pkg/licensetext"
	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/fulmenhq/licensepage/pkg/registry"
	"github.com/fulmenhq/licensepage/pkg/safeio"
	"github.com/fulmenhq/licensepage/pkg/spdx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCargoTimeout = 2 * time.Minute
	registryCacheTTL    = time.Hour
)

// crateSource produces the dependency records of a project.
type crateSource interface {
	FromCrateDirectory(ctx context.Context, dir string) (*crates.CrateList, error)
}

// Constructors for the external collaborators; tests replace them.
var (
	newCrateSource = func(opts crates.Options, timeout time.Duration, offline bool) crateSource {
		p := crates.NewProvider(opts, timeout)
		p.Offline = offline
		return p
	}
	newLicenseClassifier = func() crates.LicenseClassifier {
		return crates.NewCorpusClassifier()
	}
	newRepositoryLookup = func(timeout time.Duration) crates.RepositoryLookup {
		return registry.NewClient(timeout, registryCacheTTL)
	}
)

// configFlags maps configuration keys to the flags that override them.
var configFlags = map[string]string{
	"render.style":                     "style",
	"render.title":                     "title",
	"render.texts_title":               "texts-title",
	"render.preamble_section":          "preamble-section",
	"render.crate_licenses_preamble":   "crate-licenses-preamble",
	"filter.avoid_dev_deps":            "avoid-dev-deps",
	"filter.avoid_build_deps":          "avoid-build-deps",
	"filter.avoid_proc_macros":         "avoid-proc-macros",
	"filter.include_workspace_members": "include-workspace-members",
	"filter.exclude":                   "exclude",
	"sources.texts_dir":                "texts-dir",
	"sources.spdx_data_dir":            "spdx-data-dir",
	"registry.enrich":                  "enrich",
	"registry.timeout":                 "registry-timeout",
}

// projectDir returns the absolute project directory named by args.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", usageError{fmt.Errorf("%s is not a directory", dir)}
	}
	return abs, nil
}

func loadConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	flags := make(map[string]*pflag.Flag, len(configFlags))
	for key, name := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}

	cfg, err := config.Load(config.LoadOptions{ProjectDir: dir, ConfigFile: path, Flags: flags})
	if err != nil {
		return nil, err
	}
	if noStore, _ := cmd.Flags().GetBool("no-text-store"); noStore {
		cfg.Render.TextStore = false
	}
	if cfg.File != "" {
		logger.Debug("Loaded configuration", logger.String("file", cfg.File), logger.Bool("cargo_section", cfg.CargoSection))
	}
	return cfg, nil
}

func crateOptions(f config.FilterConfig) crates.Options {
	return crates.Options{
		AvoidDevDeps:            f.AvoidDevDeps,
		AvoidBuildDeps:          f.AvoidBuildDeps,
		AvoidProcMacros:         f.AvoidProcMacros,
		IncludeWorkspaceMembers: f.IncludeWorkspaceMembers,
		LicenseFiles:            newLicenseClassifier(),
	}
}

// loadCrates runs the metadata provider and applies the exclusion globs.
func loadCrates(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dir string) (*crates.CrateList, error) {
	offline, _ := cmd.Flags().GetBool("offline")
	timeout, _ := cmd.Flags().GetDuration("cargo-timeout")

	list, err := newCrateSource(crateOptions(cfg.Filter), timeout, offline).FromCrateDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(cfg.Filter.Exclude) > 0 {
		before := list.Len()
		if list, err = list.Exclude(cfg.Filter.Exclude); err != nil {
			return nil, fmt.Errorf("%w: filter.exclude: %v", config.ErrInvalid, err)
		}
		logger.Debug("Excluded crates", logger.Int("removed", before-list.Len()), logger.Strings("patterns", cfg.Filter.Exclude))
	}
	return list, nil
}

// loadCatalog returns the bundled SPDX catalog, extended from an SPDX
// license-list-data checkout when one is configured.
func loadCatalog(dir string) (*spdx.Catalog, error) {
	catalog, err := spdx.Default()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return catalog, nil
	}
	extra, err := spdx.LoadLicenseListData(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	logger.Debug("Extended SPDX catalog", logger.String("dir", dir), logger.Int("licenses", len(extra.Licenses())))
	return catalog.Merge(extra), nil
}

// loadStore returns the bundled text store with files from dir taking
// precedence. A disabled store is nil.
func loadStore(enabled bool, dir string) (*licensetext.Store, error) {
	if !enabled {
		return nil, nil
	}
	store, err := licensetext.Default()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return store, nil
	}
	overrides, err := licensetext.Load(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	entries := overrides.Entries()
	for _, e := range store.Entries() {
		if _, ok := overrides.Lookup(e.ID); !ok {
			entries = append(entries, e)
		}
	}
	logger.Debug("Loaded license text overrides", logger.String("dir", dir), logger.Int("texts", overrides.Len()))
	return licensetext.New(entries)
}

// pageInputs is everything the document is built from.
type pageInputs struct {
	catalog *spdx.Catalog
	store   *licensetext.Store
	crates  *crates.CrateList
}

// loadInputs reads the catalog, the text store and the crate list
// concurrently. The first failure cancels cargo.
func loadInputs(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dir string) (*pageInputs, error) {
	var in pageInputs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := loadCatalog(safeio.ResolvePath(dir, cfg.Sources.SPDXDataDir))
		if err != nil {
			return fmt.Errorf("failed to load SPDX catalog: %w", err)
		}
		in.catalog = c
		return nil
	})
	g.Go(func() error {
		s, err := loadStore(cfg.Render.TextStore, safeio.ResolvePath(dir, cfg.Sources.TextsDir))
		if err != nil {
			return fmt.Errorf("failed to load license texts: %w", err)
		}
		in.store = s
		return nil
	})
	g.Go(func() error {
		l, err := loadCrates(gctx, cmd, cfg, dir)
		if err != nil {
			return err
		}
		in.crates = l
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &in, nil
}

// preambleContext describes the project for preamble templates.
func preambleContext(dir string, groups []crates.LicenseGroup, crateCount int) licensepage.PreambleContext {
	ctx := licensepage.PreambleContext{
		Project:    filepath.Base(dir),
		CrateCount: crateCount,
		GroupCount: len(groups),
	}
	if project := crates.DetectRustProject(dir); project != nil {
		if m, err := crates.ReadManifest(project.CargoTomlPath); err == nil && m.PackageName() != "" {
			ctx.Project = m.PackageName()
		}
	}
	if info := gitctx.Collect(dir); info != nil {
		ctx.Revision = info.ShortRevision()
		ctx.Branch = info.Branch
		ctx.Dirty = info.Dirty
	}
	return ctx
}

func pageOptions(cfg *config.Config, pctx licensepage.PreambleContext) (licensepage.Options, error) {
	style, err := licensepage.ParseStyle(cfg.Render.Style)
	if err != nil {
		return licensepage.Options{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	opts := licensepage.Options{
		Style:      style,
		Title:      strings.TrimSpace(cfg.Render.Title),
		TextsTitle: strings.TrimSpace(cfg.Render.TextsTitle),
	}
	if opts.PreambleSection, err = licensepage.RenderPreamble(cfg.Render.PreambleSection, pctx); err != nil {
		return opts, fmt.Errorf("%w: render.preamble_section: %v", config.ErrInvalid, err)
	}
	if opts.CrateLicensesPreamble, err = licensepage.RenderPreamble(cfg.Render.CrateLicensesPreamble, pctx); err != nil {
		return opts, fmt.Errorf("%w: render.crate_licenses_preamble: %v", config.ErrInvalid, err)
	}
	return opts, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
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
	in, err := loadInputs(ctx, cmd, cfg, dir)
	if err != nil {
		return err
	}

	if cfg.Registry.Enrich {
		in.crates.Enrich(ctx, newRepositoryLookup(cfg.Registry.Timeout))
	}

	groups := in.crates.ByLicense()
	opts, err := pageOptions(cfg, preambleContext(dir, groups, in.crates.Len()))
	if err != nil {
		return err
	}
	assembler := licensepage.NewAssembler(licensepage.NewResolver(in.catalog, in.store), opts)

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		if err := assembler.Assemble(cmd.OutOrStdout(), groups); err != nil {
			return err
		}
	} else {
		page, err := assembler.Render(groups)
		if err != nil {
			return err
		}
		if err := safeio.WriteFileAtomic(output, page); err != nil {
			return &licensepage.OutputError{Err: err}
		}
	}

	logger.Info("Generated license page",
		logger.Int("crates", in.crates.Len()),
		logger.Int("groups", len(groups)),
		logger.String("output", outputName(output)),
		logger.Duration("took", time.Since(start)))
	return nil
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
