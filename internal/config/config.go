// Package config handles configuration loading and parsing for scopegate.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"github.com/dgerlanc/scopegate/internal/constants"
	"github.com/dgerlanc/scopegate/internal/logger"
	"github.com/dgerlanc/scopegate/internal/patterns"
)

//go:embed config.toml
var defaultConfig []byte

// Fail policies
const (
	FailClosed = "closed"
	FailOpen   = "open"
)

// Supported message languages
const (
	LangEnglish  = "en"
	LangJapanese = "ja"
)

// Defaults applied when a key is absent.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultAuditMaxSize = 10 << 20
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the compiled form of config.toml.
type Config struct {
	Timeout    time.Duration
	FailPolicy string
	Language   string
	LogFormat  string

	// Exclude holds the glob sources; the compiled globs back Excluded.
	Exclude     []string
	excludeGlob []glob.Glob

	Python PythonConfig
	Inline InlineConfig
	// WrapperPatterns are prefixes stripped from a shell command before the
	// interpreter is looked up
	WrapperPatterns []patterns.Pattern

	JSON  LinterConfig
	YAML  LinterConfig
	Audit AuditConfig
}

// PythonConfig controls the .py linter.
type PythonConfig struct {
	Enabled       bool
	ExtraBuiltins []string
}

// InlineConfig controls linting of Python embedded in shell commands.
type InlineConfig struct {
	Enabled      bool
	Interpreters []patterns.Pattern
}

// LinterConfig toggles a linter without options.
type LinterConfig struct {
	Enabled bool
}

// AuditConfig controls the decision log.
type AuditConfig struct {
	Enabled bool
	Path    string
	MaxSize int64
}

// FailsOpen reports whether indeterminate results should be allowed.
func (c *Config) FailsOpen() bool {
	return c.FailPolicy == FailOpen
}

// Excluded reports whether path matches any exclude glob. Relative paths are
// resolved against cwd first.
func (c *Config) Excluded(path, cwd string) bool {
	if path == "" || len(c.excludeGlob) == 0 {
		return false
	}
	if !filepath.IsAbs(path) && cwd != "" {
		path = filepath.Join(cwd, path)
	}
	path = filepath.ToSlash(filepath.Clean(path))
	for _, g := range c.excludeGlob {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// fileConfig mirrors the TOML layout. Pointers distinguish an absent key
// from an explicit false or zero.
type fileConfig struct {
	Timeout    string   `toml:"timeout"`
	FailPolicy string   `toml:"fail_policy"`
	Language   string   `toml:"language"`
	LogFormat  string   `toml:"log_format"`
	Exclude    []string `toml:"exclude"`
	Python     struct {
		Enabled       *bool    `toml:"enabled"`
		ExtraBuiltins []string `toml:"extra_builtins"`
	} `toml:"python"`
	Inline struct {
		Enabled      *bool              `toml:"enabled"`
		Interpreters []interpreterEntry `toml:"interpreters"`
	} `toml:"inline"`
	Wrappers wrapperSection `toml:"wrappers"`
	JSON     toggle         `toml:"json"`
	YAML     toggle         `toml:"yaml"`
	Audit    struct {
		Enabled *bool  `toml:"enabled"`
		Path    string `toml:"path"`
		MaxSize *int64 `toml:"max_size"`
	} `toml:"audit"`
}

// interpreterEntry lists command names, or gives a raw regex matched
// against the command's base name.
type interpreterEntry struct {
	Name     string   `toml:"name"`
	Pattern  string   `toml:"pattern"`
	Commands []string `toml:"commands"`
}

type wrapperSection struct {
	Simple []struct {
		Commands []string `toml:"commands"`
	} `toml:"simple"`
	Command []struct {
		Command string   `toml:"command"`
		Flags   []string `toml:"flags"`
	} `toml:"command"`
	Regex []struct {
		Name    string `toml:"name"`
		Pattern string `toml:"pattern"`
	} `toml:"regex"`
}

type toggle struct {
	Enabled *bool `toml:"enabled"`
}

func enabled(b *bool) bool {
	return b == nil || *b
}

var (
	// globalConfig is the loaded configuration
	globalConfig *Config
	// configInitialized tracks whether config has been loaded
	configInitialized bool
	// activeProfile selects config.<profile>.toml
	activeProfile string
	// loadedPath is the file globalConfig came from, empty for embedded defaults
	loadedPath string
	// initErr is the error from the last Init, kept for audit entries
	initErr error
)

// GetConfigDir returns the config directory path.
// Uses SCOPEGATE_CONFIG env var if set, otherwise ~/.config/scopegate
func GetConfigDir() (string, error) {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGConfigSubdir, constants.AppName), nil
}

// FileName returns the config file name for a profile.
func FileName(profile string) string {
	if profile == "" {
		return constants.ConfigFileName
	}
	return "config." + profile + ".toml"
}

// EnsureConfigFiles creates the config directory and writes the default
// config.toml if it doesn't exist.
func EnsureConfigFiles(configDir string) error {
	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, constants.ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, defaultConfig, constants.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", constants.ConfigFileName, err)
		}
	}

	return nil
}

// LoadConfig parses TOML data into a Config. Absent keys take their default
// values; unknown keys and invalid values are errors.
func LoadConfig(data []byte) (*Config, error) {
	var raw fileConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	cfg := &Config{
		Timeout:    DefaultTimeout,
		FailPolicy: FailClosed,
		Language:   LangEnglish,
		LogFormat:  logger.FormatText,
		Exclude:    raw.Exclude,
		Python: PythonConfig{
			Enabled:       enabled(raw.Python.Enabled),
			ExtraBuiltins: raw.Python.ExtraBuiltins,
		},
		Inline: InlineConfig{Enabled: enabled(raw.Inline.Enabled)},
		JSON:   LinterConfig{Enabled: enabled(raw.JSON.Enabled)},
		YAML:   LinterConfig{Enabled: enabled(raw.YAML.Enabled)},
		Audit: AuditConfig{
			Enabled: enabled(raw.Audit.Enabled),
			Path:    raw.Audit.Path,
			MaxSize: DefaultAuditMaxSize,
		},
	}

	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: timeout: %w", ErrInvalidConfig, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, raw.Timeout)
		}
		cfg.Timeout = d
	}
	if raw.FailPolicy != "" {
		cfg.FailPolicy = strings.ToLower(raw.FailPolicy)
	}
	if cfg.FailPolicy != FailClosed && cfg.FailPolicy != FailOpen {
		return nil, fmt.Errorf("%w: fail_policy must be %q or %q, got %q", ErrInvalidConfig, FailClosed, FailOpen, raw.FailPolicy)
	}
	if raw.Language != "" {
		cfg.Language = strings.ToLower(raw.Language)
	}
	if cfg.Language != LangEnglish && cfg.Language != LangJapanese {
		return nil, fmt.Errorf("%w: language must be %q or %q, got %q", ErrInvalidConfig, LangEnglish, LangJapanese, raw.Language)
	}
	if raw.LogFormat != "" {
		cfg.LogFormat = strings.ToLower(raw.LogFormat)
	}
	if cfg.LogFormat != logger.FormatText && cfg.LogFormat != logger.FormatJSON {
		return nil, fmt.Errorf("%w: log_format must be %q or %q, got %q", ErrInvalidConfig, logger.FormatText, logger.FormatJSON, raw.LogFormat)
	}
	if raw.Audit.MaxSize != nil {
		if *raw.Audit.MaxSize <= 0 {
			return nil, fmt.Errorf("%w: audit.max_size must be positive", ErrInvalidConfig)
		}
		cfg.Audit.MaxSize = *raw.Audit.MaxSize
	}

	for _, pattern := range raw.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: exclude pattern %q: %w", ErrInvalidConfig, pattern, err)
		}
		cfg.excludeGlob = append(cfg.excludeGlob, g)
	}

	interpreters, err := parseInterpreters(raw.Inline.Interpreters)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inline.interpreters: %w", err)
	}
	cfg.Inline.Interpreters = interpreters

	wrappers, err := parseWrappers(raw.Wrappers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wrappers: %w", err)
	}
	cfg.WrapperPatterns = wrappers

	return cfg, nil
}

// parseInterpreters compiles [[inline.interpreters]] entries.
func parseInterpreters(entries []interpreterEntry) ([]patterns.Pattern, error) {
	var result []patterns.Pattern
	for _, entry := range entries {
		if entry.Pattern != "" {
			p, err := patterns.Compile(entry.Pattern, entry.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid interpreter pattern %q: %w", entry.Pattern, err)
			}
			p.Type = patterns.TypeRegex
			result = append(result, p)
		}
		for _, cmd := range entry.Commands {
			label := entry.Name
			if label == "" {
				label = cmd
			}
			p, err := patterns.Compile(patterns.BuildInterpreterPattern(cmd), label)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern for interpreter %q: %w", cmd, err)
			}
			p.Type = patterns.TypeInterpreter
			result = append(result, p)
		}
	}
	return result, nil
}

// parseWrappers compiles the [wrappers] section. Subsections are visited
// in a fixed order so patterns are tried deterministically.
func parseWrappers(section wrapperSection) ([]patterns.Pattern, error) {
	var result []patterns.Pattern

	for _, entry := range section.Simple {
		for _, cmd := range entry.Commands {
			p, err := compileWrapper(patterns.BuildWrapperPattern(cmd, nil), cmd)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern for command %q: %w", cmd, err)
			}
			result = append(result, p)
		}
	}

	for _, entry := range section.Command {
		if entry.Command == "" {
			continue
		}
		p, err := compileWrapper(patterns.BuildWrapperPattern(entry.Command, entry.Flags), entry.Command)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for command %q: %w", entry.Command, err)
		}
		result = append(result, p)
	}

	for _, entry := range section.Regex {
		if entry.Pattern == "" {
			continue
		}
		p, err := compileWrapper(entry.Pattern, entry.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", entry.Pattern, err)
		}
		p.Type = patterns.TypeRegex
		result = append(result, p)
	}

	return result, nil
}

func compileWrapper(pattern, name string) (patterns.Pattern, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return patterns.Pattern{}, err
	}
	return patterns.Pattern{Regex: re, Name: name, Type: patterns.TypeWrapper, Pattern: pattern}, nil
}

// loadEmbeddedDefaults loads the embedded default config file.
func loadEmbeddedDefaults() *Config {
	cfg, err := LoadConfig(defaultConfig)
	if err != nil {
		// the embedded file is covered by tests
		panic(fmt.Sprintf("embedded config is invalid: %v", err))
	}
	return cfg
}

// SetProfile selects config.<name>.toml for the next Init. An empty name
// selects config.toml.
func SetProfile(name string) {
	activeProfile = name
}

// GetProfile returns the profile selected by SetProfile.
func GetProfile() string {
	return activeProfile
}

// Init loads configuration from files, creating defaults if necessary.
// If loading fails, it falls back to embedded defaults and returns the error.
func Init() error {
	if configInitialized {
		return initErr
	}
	configInitialized = true
	globalConfig, loadedPath, initErr = load(activeProfile)
	if initErr != nil {
		logger.Debug("using embedded defaults", "profile", activeProfile, "error", initErr)
		globalConfig = loadEmbeddedDefaults()
		return initErr
	}
	logger.Debug("config loaded",
		"path", loadedPath,
		"profile", activeProfile,
		"wrappers", len(globalConfig.WrapperPatterns),
		"interpreters", len(globalConfig.Inline.Interpreters))
	return nil
}

func load(profile string) (*Config, string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, "", err
	}
	if err := EnsureConfigFiles(configDir); err != nil {
		return nil, "", err
	}

	configPath := filepath.Join(configDir, FileName(profile))
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("failed to read %s: %w", filepath.Base(configPath), err)
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, configPath, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	return cfg, configPath, nil
}

// Get returns the current configuration.
// If Init has not been called, it initializes with defaults.
func Get() *Config {
	if !configInitialized {
		Init()
	}
	return globalConfig
}

// GetConfigPath returns the file the active config was read from, or "" when
// the embedded defaults are in use.
func GetConfigPath() string {
	if initErr != nil {
		return ""
	}
	return loadedPath
}

// InitError returns the error from the last Init, if any.
func InitError() error {
	return initErr
}

// Reset resets the configuration state. Used for testing.
func Reset() {
	configInitialized = false
	globalConfig = nil
	activeProfile = ""
	loadedPath = ""
	initErr = nil
}

// GetDefaultConfig returns the embedded default configuration.
func GetDefaultConfig() []byte {
	return defaultConfig
}
