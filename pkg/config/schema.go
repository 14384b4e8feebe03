package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/licensepage-config-v1.0.0.json
var schemaV1 []byte

// CurrentSchemaVersion is the version assumed when a file names none.
const CurrentSchemaVersion = "1.0.0"

// SchemaVersion represents a configuration schema version
type SchemaVersion struct {
	Major int
	Minor int
	Patch int
}

// String returns the string representation of the version
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseSchemaVersion parses a version string into SchemaVersion
func ParseSchemaVersion(version string) (SchemaVersion, error) {
	version = strings.TrimPrefix(version, "v")
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return SchemaVersion{}, fmt.Errorf("invalid version format: %s", version)
	}

	var v SchemaVersion
	if _, err := fmt.Sscanf(version, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch); err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to parse version: %v", err)
	}
	return v, nil
}

// DetectSchemaVersion reads the version from a "$schema" URL ending in
// /vX.Y.Z, defaulting to the current version.
func DetectSchemaVersion(doc map[string]interface{}) (string, error) {
	raw, ok := doc["$schema"]
	if !ok {
		return CurrentSchemaVersion, nil
	}
	schemaStr, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("$schema must be a string")
	}
	idx := strings.LastIndex(schemaStr, "/v")
	if idx < 0 {
		return CurrentSchemaVersion, nil
	}
	v, err := ParseSchemaVersion(strings.TrimSuffix(schemaStr[idx+1:], ".json"))
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// getSchemaLoader returns the appropriate schema loader for the given version
func getSchemaLoader(version string) (gojsonschema.JSONLoader, error) {
	switch version {
	case "1.0.0":
		return gojsonschema.NewBytesLoader(schemaV1), nil
	default:
		return nil, fmt.Errorf("unsupported schema version: %s", version)
	}
}

// ValidateDocument checks a decoded configuration document against the
// schema it declares.
func ValidateDocument(doc map[string]interface{}) error {
	version, err := DetectSchemaVersion(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	schemaLoader, err := getSchemaLoader(version)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: schema validation error: %v", ErrInvalid, err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("%w:\n%s", ErrInvalid, strings.Join(errors, "\n"))
	}
	return nil
}

// ValidateConfig validates YAML or JSON configuration bytes.
func ValidateConfig(configData []byte) error {
	_, err := decodeDocument(configData)
	return err
}

// decodeDocument parses and validates a configuration file body.
func decodeDocument(data []byte) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
