package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// CargoMetadataKey is the table read from [package.metadata] or
// [workspace.metadata].
const CargoMetadataKey = "licensepage"

type cargoManifest struct {
	Package struct {
		Metadata map[string]interface{} `toml:"metadata"`
	} `toml:"package"`
	Workspace struct {
		Metadata map[string]interface{} `toml:"metadata"`
	} `toml:"workspace"`
}

// ReadCargoSection returns [package.metadata.licensepage], or the workspace
// equivalent when the package has none. A missing manifest or section
// yields nil without error.
func ReadCargoSection(manifestPath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(manifestPath) // #nosec G304 -- Cargo.toml in the project directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, manifestPath, err)
	}

	for _, meta := range []map[string]interface{}{m.Package.Metadata, m.Workspace.Metadata} {
		raw, ok := meta[CargoMetadataKey]
		if !ok {
			continue
		}
		section, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s: metadata.%s must be a table", ErrInvalid, manifestPath, CargoMetadataKey)
		}
		return section, nil
	}
	return nil, nil
}
