package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every configuration problem: unreadable files, schema
// violations and values that do not decode.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is prepended to environment overrides, e.g. LICENSEPAGE_RENDER_STYLE.
const EnvPrefix = "LICENSEPAGE"

// ProjectConfigFiles are searched for in the project directory, in order.
var ProjectConfigFiles = []string{
	"licensepage.yaml",
	"licensepage.yml",
	".licensepage.yaml",
	".licensepage.yml",
}

// Config holds all configuration for licensepage
type Config struct {
	Render   RenderConfig   `mapstructure:"render"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Registry RegistryConfig `mapstructure:"registry"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
	// CargoSection reports whether Cargo.toml metadata contributed values.
	CargoSection bool `mapstructure:"-"`
}

// RenderConfig controls the generated document.
type RenderConfig struct {
	Style                 string `mapstructure:"style"` // "quote", "fenced"
	TextStore             bool   `mapstructure:"text_store"`
	Title                 string `mapstructure:"title"`
	TextsTitle            string `mapstructure:"texts_title"`
	CrateLicensesPreamble string `mapstructure:"crate_licenses_preamble"`
	PreambleSection       string `mapstructure:"preamble_section"`
}

// FilterConfig selects which crates are listed.
type FilterConfig struct {
	AvoidDevDeps            bool     `mapstructure:"avoid_dev_deps"`
	AvoidBuildDeps          bool     `mapstructure:"avoid_build_deps"`
	AvoidProcMacros         bool     `mapstructure:"avoid_proc_macros"`
	IncludeWorkspaceMembers bool     `mapstructure:"include_workspace_members"`
	Exclude                 []string `mapstructure:"exclude"`
}

// SourcesConfig points at license data on disk.
type SourcesConfig struct {
	TextsDir    string `mapstructure:"texts_dir"`
	SPDXDataDir string `mapstructure:"spdx_data_dir"`
}

// RegistryConfig controls crates.io enrichment.
type RegistryConfig struct {
	Enrich  bool          `mapstructure:"enrich"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var defaultConfig = Config{
	Render: RenderConfig{
		Style:      "quote",
		TextStore:  true,
		Title:      "Crate Licenses",
		TextsTitle: "License and Exception Full Texts",
	},
	Filter: FilterConfig{
		Exclude: []string{},
	},
	Registry: RegistryConfig{
		Timeout: parseDurationDefault("30s"),
	},
}

// Default returns the built-in configuration.
func Default() *Config {
	c := defaultConfig
	c.Filter.Exclude = append([]string{}, defaultConfig.Filter.Exclude...)
	return &c
}

// LoadOptions say where configuration comes from.
type LoadOptions struct {
	// ProjectDir is searched for ProjectConfigFiles and Cargo.toml.
	ProjectDir string
	// ConfigFile overrides the search. It must exist.
	ConfigFile string
	// Flags maps configuration keys to command-line flags. A flag only
	// overrides when it was set explicitly.
	Flags map[string]*pflag.Flag
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("render.style", defaultConfig.Render.Style)
	v.SetDefault("render.text_store", defaultConfig.Render.TextStore)
	v.SetDefault("render.title", defaultConfig.Render.Title)
	v.SetDefault("render.texts_title", defaultConfig.Render.TextsTitle)
	v.SetDefault("render.crate_licenses_preamble", defaultConfig.Render.CrateLicensesPreamble)
	v.SetDefault("render.preamble_section", defaultConfig.Render.PreambleSection)

	v.SetDefault("filter.avoid_dev_deps", defaultConfig.Filter.AvoidDevDeps)
	v.SetDefault("filter.avoid_build_deps", defaultConfig.Filter.AvoidBuildDeps)
	v.SetDefault("filter.avoid_proc_macros", defaultConfig.Filter.AvoidProcMacros)
	v.SetDefault("filter.include_workspace_members", defaultConfig.Filter.IncludeWorkspaceMembers)
	v.SetDefault("filter.exclude", defaultConfig.Filter.Exclude)

	v.SetDefault("sources.texts_dir", defaultConfig.Sources.TextsDir)
	v.SetDefault("sources.spdx_data_dir", defaultConfig.Sources.SPDXDataDir)

	v.SetDefault("registry.enrich", defaultConfig.Registry.Enrich)
	v.SetDefault("registry.timeout", defaultConfig.Registry.Timeout)
}

// Load merges, lowest precedence first: defaults, the Cargo.toml metadata
// section, the configuration file, LICENSEPAGE_* environment variables and
// explicitly set flags.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	dir := opts.ProjectDir
	if dir == "" {
		dir = "."
	}

	cargoSection, err := ReadCargoSection(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return nil, err
	}
	if cargoSection != nil {
		if err := ValidateDocument(cargoSection); err != nil {
			return nil, fmt.Errorf("Cargo.toml metadata.licensepage: %w", err)
		}
		if err := v.MergeConfigMap(cargoSection); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	file, err := findConfigFile(dir, opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if file != "" {
		data, err := os.ReadFile(file) // #nosec G304 -- user-selected configuration file
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		delete(doc, "$schema")
		if err := v.MergeConfigMap(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("%w: binding flag %s: %v", ErrInvalid, flag.Name, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling config: %v", ErrInvalid, err)
	}
	config.File = file
	config.CargoSection = cargoSection != nil

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that can arrive from env or flags, which bypass
// the schema.
func (c *Config) Validate() error {
	switch c.Render.Style {
	case "quote", "fenced":
	default:
		return fmt.Errorf("%w: render.style must be \"quote\" or \"fenced\", got %q", ErrInvalid, c.Render.Style)
	}
	if c.Registry.Timeout < 0 {
		return fmt.Errorf("%w: registry.timeout must not be negative", ErrInvalid)
	}
	return nil
}

func findConfigFile(dir, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return explicit, nil
	}
	for _, name := range ProjectConfigFiles {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// parseDurationDefault is a helper to create default duration values from string literal
func parseDurationDefault(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
