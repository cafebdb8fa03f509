// Package constants defines shared constants used across the scopegate codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// Environment variables
const (
	EnvConfigDir = "SCOPEGATE_CONFIG"
	EnvProfile   = "SCOPEGATE_PROFILE"
)

// Application paths
const (
	AppName         = "scopegate"
	XDGConfigSubdir = ".config"
	XDGDataSubdir   = ".local/share"
	ConfigFileName  = "config.toml"
	AuditFileName   = "audit.log"
)

// InlinePath is the pseudo path used when linting code extracted from a shell command.
const InlinePath = "<inline>.py"
