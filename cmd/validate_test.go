package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/testutil"
)

func runValidateOutput(t *testing.T) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	err := runValidate(cmd, []string{})
	return stdout.String(), err
}

func TestRunValidateWithDefaultConfig(t *testing.T) {
	setupTestConfig(t, "")

	output, err := runValidateOutput(t)
	if err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}

	expected := []string{
		"Configuration valid!",
		"File: ",
		"Timeout: 5s",
		"Fail policy: closed",
		"Language: en",
		"Linters: python, json, yaml",
		"Exclude globs: 4",
		"**/.venv/**",
		"Inline code: enabled",
		"Interpreter patterns: 2",
		"- python: ^python(\\d+(\\.\\d+)*)?$",
		"- timeout: ^timeout\\s+",
		"- uv run: ",
		"Audit log: enabled",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestRunValidateWithCustomConfig(t *testing.T) {
	setupTestConfig(t, `
fail_policy = "open"
language = "ja"

[python]
extra_builtins = ["display", "get_ipython"]

[json]
enabled = false

[yaml]
enabled = false

[inline]
enabled = false
`)

	output, err := runValidateOutput(t)
	if err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	for _, want := range []string{
		"Fail policy: open",
		"Language: ja",
		"Linters: python\n",
		"Extra builtins: display, get_ipython",
		"Inline code: disabled",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestRunValidateWithInvalidConfig(t *testing.T) {
	dir := setupTestConfig(t, "")
	testutil.WriteFile(t, dir, "config.toml", `fail_policy = "sometimes"`)
	config.Reset()
	config.Init()

	output, err := runValidateOutput(t)
	if err == nil {
		t.Fatalf("expected error for invalid config, got output:\n%s", output)
	}
	if !strings.Contains(err.Error(), "configuration invalid") {
		t.Errorf("error = %v", err)
	}
}

func TestRunValidateUnknownKey(t *testing.T) {
	dir := setupTestConfig(t, "")
	testutil.WriteFile(t, dir, "config.toml", `timeot = "5s"`)
	config.Reset()
	config.Init()

	if _, err := runValidateOutput(t); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidateCmdRegistered(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "validate" {
			found = true
			break
		}
	}
	if !found {
		t.Error("validate command should be registered with root")
	}
}
