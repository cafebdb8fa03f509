// Package testutil provides shared test helpers for scopegate tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/constants"
)

// SetupTestConfig points SCOPEGATE_CONFIG at a temporary directory holding
// configContent (or the embedded defaults when empty) and reloads config.
// The returned function restores the previous state.
func SetupTestConfig(t *testing.T, configContent string) func() {
	t.Helper()

	tmpDir := t.TempDir()
	prev, hadPrev := os.LookupEnv(constants.EnvConfigDir)
	os.Setenv(constants.EnvConfigDir, tmpDir)

	if configContent != "" {
		configPath := filepath.Join(tmpDir, constants.ConfigFileName)
		if err := os.WriteFile(configPath, []byte(configContent), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	config.Reset()
	if err := config.Init(); err != nil {
		t.Fatalf("test config failed to load: %v", err)
	}

	return func() {
		if hadPrev {
			os.Setenv(constants.EnvConfigDir, prev)
		} else {
			os.Unsetenv(constants.EnvConfigDir)
		}
		config.Reset()
	}
}

// WriteFile writes content under dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), constants.FileMode); err != nil {
		t.Fatal(err)
	}
	return path
}

// MinimalTestConfig enables every linter and inline python -c detection
// with no wrappers or excludes.
const MinimalTestConfig = `
timeout = "5s"
fail_policy = "closed"

[[inline.interpreters]]
name = "python"
commands = ["python"]

[[wrappers.simple]]
commands = ["env"]
`
