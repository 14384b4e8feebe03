/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package crates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fulmenhq/licensepage/pkg/logger"
)

var (
	// ErrCargoUnavailable is returned when the cargo binary cannot be found.
	ErrCargoUnavailable = errors.New("cargo is not available")
	// ErrNotRustProject is returned when no Cargo.toml is found for the target.
	ErrNotRustProject = errors.New("no Cargo.toml found")
)

// Runner executes cargo. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ExecRunner runs the real cargo binary.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes cargo in dir and returns its stdout.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath("cargo"); err != nil {
		return nil, ErrCargoUnavailable
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "cargo", args...) // #nosec G204 -- args are built by this package
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("cargo %s failed: %w", strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("cargo %s failed: %w: %s", strings.Join(args, " "), err, msg)
	}
	return stdout.Bytes(), nil
}

// Provider loads the crate list for a project directory.
type Provider struct {
	Runner  Runner
	Options Options
	// Offline passes --offline so cargo does not touch the network.
	Offline bool
}

// NewProvider returns a provider backed by the real cargo binary.
func NewProvider(opts Options, timeout time.Duration) *Provider {
	return &Provider{Runner: ExecRunner{Timeout: timeout}, Options: opts}
}

// FromCrateDirectory runs cargo metadata for the project containing dir and
// builds its crate list.
func (p *Provider) FromCrateDirectory(ctx context.Context, dir string) (*CrateList, error) {
	project := DetectRustProject(dir)
	if project == nil || project.CargoTomlPath == "" {
		return nil, fmt.Errorf("%w in %s or its parents", ErrNotRustProject, dir)
	}

	args := []string{"metadata", "--format-version", "1", "--manifest-path", project.CargoTomlPath}
	if p.Offline {
		args = append(args, "--offline")
	}

	logger.Debug("Running cargo metadata",
		logger.String("manifest", project.CargoTomlPath),
		logger.Bool("workspace", project.IsWorkspace))

	start := time.Now()
	out, err := p.Runner.Run(ctx, project.EffectiveRoot(), args...)
	if err != nil {
		return nil, err
	}
	logger.Debug("cargo metadata finished", logger.String("duration", time.Since(start).String()))

	return FromMetadata(out, p.Options)
}
