// Package audit records one JSON line per hook decision. When the log grows
// past its size limit it is rotated into a zstd-compressed archive next to it.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/dgerlanc/scopegate/internal/constants"
	"github.com/dgerlanc/scopegate/internal/logger"
)

// Version is the audit entry format version.
const Version = 1

// TimestampFormat is the format used for audit log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.0Z07:00"

// rotateFormat names rotated archives: audit.log.<rotateFormat>.zst
const rotateFormat = "20060102T150405.000000000Z"

// ArchiveExt is the suffix of rotated archives.
const ArchiveExt = ".zst"

// Decisions
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Entry is a single audit log line.
type Entry struct {
	Version     int     `json:"version"`
	ID          string  `json:"id"`
	ToolUseID   string  `json:"tool_use_id,omitempty"`
	SessionID   string  `json:"session_id,omitempty"`
	Timestamp   string  `json:"timestamp"`
	DurationMs  float64 `json:"duration_ms"`
	Tool        string  `json:"tool"`
	Path        string  `json:"path,omitempty"`
	Decision    string  `json:"decision"`
	Kind        string  `json:"kind,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Cwd         string  `json:"cwd,omitempty"`
	ConfigPath  string  `json:"config_path,omitempty"`
	ConfigError string  `json:"config_error,omitempty"`
}

// Options configures Init.
type Options struct {
	// Path of the live log; empty means DefaultLogPath
	Path string
	// Disabled turns Log into a no-op
	Disabled bool
	// MaxSize is the byte size that triggers rotation; zero disables it
	MaxSize int64
}

var (
	auditFile *os.File
	auditPath string
	written   int64
	maxSize   int64
	mu        sync.Mutex
	enabled   bool
)

// DefaultLogPath returns ~/.local/share/scopegate/audit.log
func DefaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.XDGDataSubdir, constants.AppName, constants.AuditFileName), nil
}

// Init opens the audit log for appending.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Disabled {
		enabled = false
		return nil
	}

	path := opts.Path
	if path == "" {
		var err error
		path, err = DefaultLogPath()
		if err != nil {
			logger.Debug("failed to get default audit log path", "error", err)
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
		logger.Debug("failed to create audit log directory", "error", err)
		return fmt.Errorf("create audit directory: %w", err)
	}
	if err := open(path); err != nil {
		logger.Debug("failed to open audit log file", "error", err)
		return err
	}

	maxSize = opts.MaxSize
	enabled = true
	logger.Debug("audit logging initialized", "path", path, "max_size", maxSize)
	return nil
}

// open must be called with mu held.
func open(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat audit log: %w", err)
	}
	auditFile = f
	auditPath = path
	written = info.Size()
	return nil
}

// Close closes the audit log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	enabled = false
	if auditFile == nil {
		return nil
	}
	err := auditFile.Close()
	auditFile = nil
	return err
}

// Log stamps entry with an id and timestamp and appends it. It is a no-op
// when audit logging is not initialized.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || auditFile == nil {
		return nil
	}

	entry.Version = Version
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Timestamp = time.Now().UTC().Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Debug("failed to marshal audit entry", "error", err)
		return err
	}

	n, err := auditFile.Write(append(data, '\n'))
	written += int64(n)
	if err != nil {
		logger.Debug("failed to write audit entry", "error", err)
		return err
	}

	if maxSize > 0 && written >= maxSize {
		if err := rotate(); err != nil {
			logger.Warn("audit log rotation failed", "path", auditPath, "error", err)
			return err
		}
	}
	return nil
}

// rotate compresses the live log into a timestamped archive and starts a
// new one. Must be called with mu held.
func rotate() error {
	if err := auditFile.Close(); err != nil {
		return err
	}
	auditFile = nil

	archive := fmt.Sprintf("%s.%s%s", auditPath, time.Now().UTC().Format(rotateFormat), ArchiveExt)
	if err := compressFile(auditPath, archive); err != nil {
		// keep appending to the uncompressed log
		if openErr := open(auditPath); openErr != nil {
			enabled = false
		}
		return fmt.Errorf("compress %s: %w", filepath.Base(auditPath), err)
	}
	if err := os.Remove(auditPath); err != nil {
		return err
	}
	logger.Debug("audit log rotated", "archive", archive)
	return open(auditPath)
}

func compressFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Archives lists the rotated archives of the log at path, oldest first.
func Archives(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".*" + ArchiveExt)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadEntries decodes every entry in a live log or a .zst archive.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ArchiveExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return entries, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// IsEnabled returns whether audit logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Reset resets the audit state. Used for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if auditFile != nil {
		auditFile.Close()
	}
	auditFile = nil
	auditPath = ""
	written = 0
	maxSize = 0
	enabled = false
}
