package crates

import (
	"os"
	"path/filepath"

	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/pelletier/go-toml/v2"
)

// maxParentDepth bounds the upward search for a manifest.
const maxParentDepth = 10

// RustProject is a detected Cargo project.
type RustProject struct {
	// CargoTomlPath is the path to the Cargo.toml file
	CargoTomlPath string
	// RootPath is the directory containing the Cargo.toml
	RootPath string
	// IsWorkspace indicates if this is a workspace root
	IsWorkspace bool
	// IsWorkspaceMember indicates if this is a workspace member (not root)
	IsWorkspaceMember bool
	// WorkspaceRootPath is the path to the workspace root (if member)
	WorkspaceRootPath string
}

// EffectiveRoot returns the directory cargo should run in: the workspace
// root for members, the project root otherwise.
func (p *RustProject) EffectiveRoot() string {
	if p.IsWorkspaceMember && p.WorkspaceRootPath != "" {
		return p.WorkspaceRootPath
	}
	return p.RootPath
}

// Manifest is the subset of Cargo.toml this tool reads.
type Manifest struct {
	Package   map[string]interface{} `toml:"package"`
	Workspace map[string]interface{} `toml:"workspace"`
}

// ReadManifest parses a Cargo.toml file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a Cargo.toml derived from the target directory
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// IsWorkspaceRoot reports whether the manifest has a [workspace] table.
func (m *Manifest) IsWorkspaceRoot() bool {
	return m.Workspace != nil
}

// DeclaresWorkspace reports whether [package] points at a workspace.
func (m *Manifest) DeclaresWorkspace() bool {
	if m.Package == nil {
		return false
	}
	_, ok := m.Package["workspace"]
	return ok
}

// PackageName returns [package].name, or "" for virtual manifests.
func (m *Manifest) PackageName() string {
	if m.Package == nil {
		return ""
	}
	name, _ := m.Package["name"].(string)
	return name
}

// DetectRustProject finds the Cargo project for target, looking in target
// first and then its parents. Returns nil when none is found.
func DetectRustProject(target string) *RustProject {
	cargoPath := filepath.Join(target, "Cargo.toml")
	if _, err := os.Stat(cargoPath); err == nil {
		return analyzeCargoToml(cargoPath, target)
	}
	return findCargoInParents(target)
}

func analyzeCargoToml(cargoPath, rootPath string) *RustProject {
	project := &RustProject{
		CargoTomlPath: cargoPath,
		RootPath:      rootPath,
	}

	manifest, err := ReadManifest(cargoPath)
	if err != nil {
		logger.Debug("Failed to read Cargo.toml", logger.String("path", cargoPath), logger.Err(err))
		return project
	}

	if manifest.IsWorkspaceRoot() {
		project.IsWorkspace = true
		return project
	}

	if wsRoot := findWorkspaceRoot(rootPath); wsRoot != "" {
		project.IsWorkspaceMember = true
		project.WorkspaceRootPath = wsRoot
	} else if manifest.DeclaresWorkspace() {
		project.IsWorkspaceMember = true
	}
	return project
}

func findCargoInParents(startPath string) *RustProject {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil
	}

	var firstProject *RustProject
	current := absPath
	for i := 0; i < maxParentDepth; i++ {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}

		cargoPath := filepath.Join(parent, "Cargo.toml")
		if _, err := os.Stat(cargoPath); err == nil {
			project := analyzeCargoToml(cargoPath, parent)
			if project.IsWorkspace || !project.IsWorkspaceMember {
				return project
			}
			if firstProject == nil {
				firstProject = project
			}
		}
		current = parent
	}
	return firstProject
}

// findWorkspaceRoot walks up from a member directory to the first manifest
// with a [workspace] table.
func findWorkspaceRoot(memberPath string) string {
	absPath, err := filepath.Abs(memberPath)
	if err != nil {
		return ""
	}

	current := filepath.Dir(absPath)
	for i := 0; i < maxParentDepth; i++ {
		cargoPath := filepath.Join(current, "Cargo.toml")
		if m, err := ReadManifest(cargoPath); err == nil && m.IsWorkspaceRoot() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return ""
}
