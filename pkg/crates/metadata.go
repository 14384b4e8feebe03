package crates

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/fulmenhq/licensepage/pkg/spdx"
)

// ErrMissingLicense is returned for a crate that declares no SPDX expression.
var ErrMissingLicense = errors.New("crate has no license expression")

// Options selects which dependencies are reported.
type Options struct {
	AvoidDevDeps            bool
	AvoidBuildDeps          bool
	AvoidProcMacros         bool
	IncludeWorkspaceMembers bool
	// LicenseFiles classifies crates that only declare a license-file.
	// Nil rejects such crates.
	LicenseFiles            LicenseClassifier
}

// cargoMetadata mirrors the parts of `cargo metadata --format-version 1`
// that are needed to build the crate list.
type cargoMetadata struct {
	Packages         []cargoPackage `json:"packages"`
	WorkspaceMembers []string       `json:"workspace_members"`
	Resolve          *cargoResolve  `json:"resolve"`
}

type cargoPackage struct {
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	ID           string        `json:"id"`
	ManifestPath string        `json:"manifest_path"`
	License      *string       `json:"license"`
	LicenseFile  *string       `json:"license_file"`
	Authors      []string      `json:"authors"`
	Repository   *string       `json:"repository"`
	Targets      []cargoTarget `json:"targets"`
}

type cargoTarget struct {
	Name string   `json:"name"`
	Kind []string `json:"kind"`
}

type cargoResolve struct {
	Nodes []cargoNode `json:"nodes"`
}

type cargoNode struct {
	ID   string         `json:"id"`
	Deps []cargoNodeDep `json:"deps"`
}

type cargoNodeDep struct {
	Name     string         `json:"name"`
	Pkg      string         `json:"pkg"`
	DepKinds []cargoDepKind `json:"dep_kinds"`
}

type cargoDepKind struct {
	Kind   *string `json:"kind"`
	Target *string `json:"target"`
}

func (p cargoPackage) isProcMacro() bool {
	for _, t := range p.Targets {
		for _, k := range t.Kind {
			if k == "proc-macro" {
				return true
			}
		}
	}
	return false
}

// FromMetadata builds a crate list from cargo metadata JSON. The resolve
// graph is walked from the workspace members; edges and packages rejected by
// opts are not followed.
func FromMetadata(data []byte, opts Options) (*CrateList, error) {
	var meta cargoMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode cargo metadata: %w", err)
	}

	packages := make(map[string]cargoPackage, len(meta.Packages))
	for _, p := range meta.Packages {
		packages[p.ID] = p
	}
	members := make(map[string]bool, len(meta.WorkspaceMembers))
	for _, id := range meta.WorkspaceMembers {
		members[id] = true
	}

	reachable := reachablePackages(meta, packages, opts)

	var crates []Crate
	for id := range reachable {
		if members[id] && !opts.IncludeWorkspaceMembers {
			continue
		}
		pkg, ok := packages[id]
		if !ok {
			return nil, fmt.Errorf("cargo metadata references unknown package %q", id)
		}
		c, err := crateFromPackage(pkg, opts.LicenseFiles)
		if err != nil {
			return nil, err
		}
		crates = append(crates, c)
	}

	sort.Slice(crates, func(i, j int) bool {
		if crates[i].Name != crates[j].Name {
			return crates[i].Name < crates[j].Name
		}
		if v := compareVersions(crates[i].Version, crates[j].Version); v != 0 {
			return v < 0
		}
		return crates[i].ID < crates[j].ID
	})

	logger.Debug("Collected crates from cargo metadata",
		logger.Int("packages", len(meta.Packages)),
		logger.Int("reported", len(crates)))

	return NewCrateList(crates)
}

// reachablePackages returns the ids reachable from the workspace members.
// Without a resolve graph (cargo metadata --no-deps) every package counts.
func reachablePackages(meta cargoMetadata, packages map[string]cargoPackage, opts Options) map[string]bool {
	seen := make(map[string]bool)
	if meta.Resolve == nil {
		for id, p := range packages {
			if opts.AvoidProcMacros && p.isProcMacro() {
				continue
			}
			seen[id] = true
		}
		return seen
	}

	nodes := make(map[string]cargoNode, len(meta.Resolve.Nodes))
	for _, n := range meta.Resolve.Nodes {
		nodes[n.ID] = n
	}

	queue := append([]string(nil), meta.WorkspaceMembers...)
	for _, id := range queue {
		seen[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range nodes[id].Deps {
			if seen[dep.Pkg] || !edgeAllowed(dep.DepKinds, opts) {
				continue
			}
			if opts.AvoidProcMacros && packages[dep.Pkg].isProcMacro() {
				continue
			}
			seen[dep.Pkg] = true
			queue = append(queue, dep.Pkg)
		}
	}
	return seen
}

func edgeAllowed(kinds []cargoDepKind, opts Options) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		switch {
		case k.Kind == nil:
			return true
		case *k.Kind == "dev" && !opts.AvoidDevDeps:
			return true
		case *k.Kind == "build" && !opts.AvoidBuildDeps:
			return true
		}
	}
	return false
}

func crateFromPackage(p cargoPackage, cls LicenseClassifier) (Crate, error) {
	var (
		expr *spdx.Expression
		err  error
	)
	switch {
	case p.License != nil && strings.TrimSpace(*p.License) != "":
		if expr, err = spdx.Parse(*p.License); err != nil {
			return Crate{}, fmt.Errorf("crate %s %s: %w", p.Name, p.Version, err)
		}
	case p.LicenseFile != nil && *p.LicenseFile != "":
		if cls == nil {
			return Crate{}, fmt.Errorf("%w: %s %s only declares license-file %s", ErrMissingLicense, p.Name, p.Version, *p.LicenseFile)
		}
		if expr, err = licenseFromFile(p, cls); err != nil {
			return Crate{}, err
		}
	default:
		return Crate{}, fmt.Errorf("%w: %s %s", ErrMissingLicense, p.Name, p.Version)
	}
	c := Crate{
		ID:      p.ID,
		Name:    p.Name,
		Version: p.Version,
		Authors: append([]string(nil), p.Authors...),
		License: expr,
	}
	if p.Repository != nil {
		c.Repository = strings.TrimSpace(*p.Repository)
	}
	return c, nil
}

// compareVersions orders semver strings by their numeric core, then puts a
// pre-release before its release. Build metadata is ignored. Segments that
// are not numbers fall back to string order.
func compareVersions(a, b string) int {
	a, _, _ = strings.Cut(a, "+")
	b, _, _ = strings.Cut(b, "+")
	coreA, preA, hasPreA := strings.Cut(a, "-")
	coreB, preB, hasPreB := strings.Cut(b, "-")

	if c := compareDotted(coreA, coreB); c != 0 {
		return c
	}
	switch {
	case hasPreA && !hasPreB:
		return -1
	case !hasPreA && hasPreB:
		return 1
	}
	return compareDotted(preA, preB)
}

func compareDotted(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		na, errA := strconv.ParseUint(as[i], 10, 64)
		nb, errB := strconv.ParseUint(bs[i], 10, 64)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return cmp.Compare(na, nb)
			}
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(as), len(bs))
}
