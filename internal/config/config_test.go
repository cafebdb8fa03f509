package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgerlanc/scopegate/internal/constants"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := LoadConfig(GetDefaultConfig())
	if err != nil {
		t.Fatalf("embedded config failed to load: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.FailPolicy != FailClosed || cfg.FailsOpen() {
		t.Errorf("FailPolicy = %q, want closed", cfg.FailPolicy)
	}
	if cfg.Language != LangEnglish {
		t.Errorf("Language = %q, want en", cfg.Language)
	}
	if !cfg.Python.Enabled || !cfg.Inline.Enabled || !cfg.JSON.Enabled || !cfg.YAML.Enabled {
		t.Error("expected every linter to be enabled by default")
	}
	if len(cfg.Inline.Interpreters) == 0 {
		t.Error("expected default interpreters")
	}
	if len(cfg.WrapperPatterns) == 0 {
		t.Error("expected default wrappers")
	}
	if cfg.Audit.MaxSize != DefaultAuditMaxSize {
		t.Errorf("Audit.MaxSize = %d, want %d", cfg.Audit.MaxSize, DefaultAuditMaxSize)
	}
}

func TestLoadConfigEmptyUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig(nil) error = %v", err)
	}
	if cfg.Timeout != DefaultTimeout || cfg.FailPolicy != FailClosed || cfg.Language != LangEnglish {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Python.Enabled {
		t.Error("python linter should default to enabled")
	}
	if len(cfg.WrapperPatterns) != 0 || len(cfg.Inline.Interpreters) != 0 {
		t.Error("an empty file configures no patterns")
	}
}

func TestLoadConfigValues(t *testing.T) {
	data := []byte(`
timeout = "250ms"
fail_policy = "OPEN"
language = "ja"
log_format = "json"
exclude = ["**/generated/**"]

[python]
enabled = true
extra_builtins = ["display", "spark"]

[inline]
enabled = false

[[inline.interpreters]]
name = "python"
commands = ["python"]

[[inline.interpreters]]
name = "conda python"
pattern = '^conda-python$'

[json]
enabled = false

[audit]
enabled = false
path = "/tmp/scopegate-audit.log"
max_size = 2048
`)
	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.FailsOpen() {
		t.Error("fail_policy should be case-insensitive")
	}
	if cfg.Language != LangJapanese || cfg.LogFormat != "json" {
		t.Errorf("Language/LogFormat = %q/%q", cfg.Language, cfg.LogFormat)
	}
	if got := strings.Join(cfg.Python.ExtraBuiltins, ","); got != "display,spark" {
		t.Errorf("ExtraBuiltins = %q", got)
	}
	if cfg.Inline.Enabled || cfg.JSON.Enabled {
		t.Error("explicit enabled = false must be honored")
	}
	if !cfg.YAML.Enabled {
		t.Error("absent [yaml] should stay enabled")
	}
	if len(cfg.Inline.Interpreters) != 2 {
		t.Fatalf("expected 2 interpreters, got %d", len(cfg.Inline.Interpreters))
	}
	if p := cfg.Inline.Interpreters[1]; p.Name != "conda python" || !p.Regex.MatchString("conda-python") {
		t.Errorf("regex interpreter = %+v", p)
	}
	if cfg.Audit.Enabled || cfg.Audit.Path != "/tmp/scopegate-audit.log" || cfg.Audit.MaxSize != 2048 {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool // wraps ErrInvalidConfig
	}{
		{"bad toml", `timeout = `, false},
		{"bad duration", `timeout = "soon"`, true},
		{"negative duration", `timeout = "-1s"`, true},
		{"bad fail policy", `fail_policy = "maybe"`, true},
		{"bad language", `language = "fr"`, true},
		{"bad log format", `log_format = "xml"`, true},
		{"bad max size", "[audit]\nmax_size = 0", true},
		{"unknown key", `colour = "blue"`, true},
		{"unknown nested key", "[python]\nstrict = true", true},
		{"bad wrapper regex", "[[wrappers.regex]]\nname = \"x\"\npattern = \"[\"", false},
		{"unknown wrapper section", "[[wrappers.subcommand]]\ncommand = \"git\"", true},
		{"unknown wrapper key", "[[wrappers.command]]\ncommand = \"nice\"\nflag = [\"-n <arg>\"]", true},
		{"unknown interpreter key", "[[inline.interpreters]]\nname = \"py\"\ncommand = \"python\"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.data))
			if err == nil {
				t.Fatalf("LoadConfig(%q) succeeded, want error", tt.data)
			}
			if tt.invalid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfigPatternTables(t *testing.T) {
	data := []byte(`
[[inline.interpreters]]
name = "python"
commands = ["python", "pypy"]

[[inline.interpreters]]
name = "ipython"
pattern = '^ipython3?$'

[[wrappers.simple]]
commands = ["env", "nohup"]

[[wrappers.command]]
command = "nice"
flags = ["-n <arg>"]

[[wrappers.regex]]
name = "uv run"
pattern = '^uv\s+run\s+'
`)
	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	var interpreters []string
	for _, p := range cfg.Inline.Interpreters {
		interpreters = append(interpreters, p.Name)
	}
	if got, want := strings.Join(interpreters, ","), "python,python,ipython"; got != want {
		t.Errorf("interpreters = %s, want %s", got, want)
	}

	var wrappers []string
	for _, p := range cfg.WrapperPatterns {
		wrappers = append(wrappers, p.Name)
	}
	if got, want := strings.Join(wrappers, ","), "env,nohup,nice,uv run"; got != want {
		t.Errorf("wrappers = %s, want %s", got, want)
	}
}

func TestWrapperPatterns(t *testing.T) {
	cfg, err := LoadConfig(GetDefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input string
		name  string
	}{
		{"timeout 30 python3 -c x", "timeout"},
		{"env python3", "env"},
		{"nice -n 5 python", "nice"},
		{"PYTHONPATH=. python", "env var"},
		{"uv run --quiet python", "uv run"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var matched string
			for _, p := range cfg.WrapperPatterns {
				if loc := p.Regex.FindStringIndex(tt.input); loc != nil && loc[0] == 0 {
					matched = p.Name
					break
				}
			}
			if matched != tt.name {
				t.Errorf("wrapper for %q = %q, want %q", tt.input, matched, tt.name)
			}
		})
	}
}

func TestExcluded(t *testing.T) {
	cfg, err := LoadConfig([]byte(`exclude = ["**/.venv/**", "**/*_pb2.py"]`))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		cwd  string
		want bool
	}{
		{"/work/.venv/lib/site.py", "", true},
		{".venv/lib/site.py", "/work", true},
		{"/work/api/service_pb2.py", "", true},
		{"/work/app.py", "", false},
		{"app.py", "/work", false},
		{"", "/work", false},
	}
	for _, tt := range tests {
		if got := cfg.Excluded(tt.path, tt.cwd); got != tt.want {
			t.Errorf("Excluded(%q, %q) = %v, want %v", tt.path, tt.cwd, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(""); got != "config.toml" {
		t.Errorf("FileName(\"\") = %q", got)
	}
	if got := FileName("ci"); got != "config.ci.toml" {
		t.Errorf("FileName(\"ci\") = %q", got)
	}
}

func TestGetConfigDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("GetConfigDir() = %q, want %q", got, dir)
	}
}

func TestInitWritesDefaultConfig(t *testing.T) {
	defer Reset()
	dir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, dir)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	written, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if string(written) != string(GetDefaultConfig()) {
		t.Error("written config differs from embedded default")
	}
	if GetConfigPath() != filepath.Join(dir, "config.toml") {
		t.Errorf("GetConfigPath() = %q", GetConfigPath())
	}
	if InitError() != nil {
		t.Errorf("InitError() = %v", InitError())
	}
}

func TestInitProfile(t *testing.T) {
	defer Reset()
	dir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, dir)
	if err := os.WriteFile(filepath.Join(dir, "config.strict.toml"), []byte("timeout = \"1s\"\nlanguage = \"ja\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	SetProfile("strict")
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg := Get()
	if cfg.Timeout != time.Second || cfg.Language != LangJapanese {
		t.Errorf("profile not applied: timeout=%v language=%q", cfg.Timeout, cfg.Language)
	}
}

func TestInitFallsBackToDefaults(t *testing.T) {
	defer Reset()
	dir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, dir)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`fail_policy = "sometimes"`), 0644); err != nil {
		t.Fatal(err)
	}

	err := Init()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Init() error = %v, want ErrInvalidConfig", err)
	}
	cfg := Get()
	if cfg == nil || cfg.FailPolicy != FailClosed {
		t.Fatalf("expected embedded defaults after a failed load, got %+v", cfg)
	}
	if GetConfigPath() != "" {
		t.Errorf("GetConfigPath() = %q, want empty for embedded defaults", GetConfigPath())
	}
	if InitError() == nil {
		t.Error("InitError() should report the load failure")
	}
}

func TestInitMissingProfile(t *testing.T) {
	defer Reset()
	t.Setenv(constants.EnvConfigDir, t.TempDir())

	SetProfile("absent")
	if err := Init(); err == nil {
		t.Fatal("Init() with a missing profile should fail")
	}
	if Get() == nil {
		t.Fatal("Get() should fall back to defaults")
	}
}
