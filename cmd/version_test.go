package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fulmenhq/licensepage/pkg/buildinfo"
	"github.com/fulmenhq/licensepage/pkg/logger"
	"github.com/spf13/cobra"
)

func TestVersion_Plain(t *testing.T) {
	out, _, err := execRoot(t, []string{"version"})
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "licensepage "+buildinfo.Version()+"\n" {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestVersion_Flag(t *testing.T) {
	out, _, err := execRoot(t, []string{"--version"})
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.HasPrefix(out, "licensepage ") {
		t.Errorf("unexpected --version output %q", out)
	}
}

func TestVersion_Extended(t *testing.T) {
	out, _, err := execRoot(t, []string{"version", "--extended"})
	if err != nil {
		t.Fatalf("version --extended failed: %v", err)
	}
	for _, want := range []string{"Go version: go", "Platform: ", "SPDX catalog: ", "License texts: "} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestVersion_JSON(t *testing.T) {
	out, _, err := execRoot(t, []string{"version", "--json"})
	if err != nil {
		t.Fatalf("version --json failed: %v\n%s", err, out)
	}
	var v map[string]any
	if json.Unmarshal([]byte(out), &v) != nil {
		t.Fatalf("version output is not valid JSON: %s", out)
	}
	if _, ok := v["version"].(string); !ok {
		t.Errorf("expected version field in JSON")
	}
	if _, ok := v["goVersion"].(string); !ok {
		t.Errorf("expected goVersion field in JSON")
	}
	if n, ok := v["licenseTexts"].(float64); !ok || n < 1 {
		t.Errorf("expected licenseTexts count in JSON, got %v", v["licenseTexts"])
	}
}

func TestInitializeLogger(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "debug", "")
	cmd.Flags().Bool("log-json", true, "")
	cmd.Flags().Bool("no-color", false, "")
	if err := initializeLogger(cmd); err != nil {
		t.Fatalf("initializeLogger failed: %v", err)
	}
	if !logger.Enabled(logger.DebugLevel) {
		t.Error("debug level was not applied")
	}
}

func TestInitializeLogger_InvalidLevel(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "loud", "")
	if err := initializeLogger(cmd); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}
