// Package patterns builds the regexes that recognize shell command prefixes:
// wrappers that are stripped before a command, and the interpreters whose
// inline code gets linted.
package patterns

import (
	"regexp"
	"strings"
)

// Pattern kinds
const (
	TypeWrapper     = "wrapper"
	TypeInterpreter = "interpreter"
	TypeRegex       = "regex"
)

// Pattern holds a compiled regex and its description.
type Pattern struct {
	Regex   *regexp.Regexp
	Name    string
	Type    string // wrapper, interpreter, regex
	Pattern string // original pattern string
}

// BuildFlagPattern converts a flag such as "-n" or "-n <arg>" to a regex pattern.
// "-f" becomes "(-f\s+)?"
// "-f <arg>" becomes "(-f\s*\S+\s+)?" (allows -f10 or -f 10)
// "<arg>" becomes "(\S+\s+)?" (positional argument)
// "" (empty) becomes ""
func BuildFlagPattern(flag string) string {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return ""
	}
	if flag == "<arg>" {
		return `(\S+\s+)?`
	}
	if strings.HasSuffix(flag, " <arg>") {
		flagName := strings.TrimSuffix(flag, " <arg>")
		return `(` + regexp.QuoteMeta(flagName) + `\s*\S+\s+)?`
	}
	return `(` + regexp.QuoteMeta(flag) + `\s+)?`
}

// BuildWrapperPattern creates a regex for a wrapper command followed by its
// optional flags. "timeout" with flags=["<arg>"] becomes "^timeout\s+(\S+\s+)?"
func BuildWrapperPattern(cmd string, flags []string) string {
	var flagPatterns string
	for _, f := range flags {
		flagPatterns += BuildFlagPattern(f)
	}
	return `^` + regexp.QuoteMeta(cmd) + `\s+` + flagPatterns
}

// BuildInterpreterPattern matches an interpreter name with an optional
// version suffix. "python" matches "python", "python3" and "python3.12",
// but not "pythonista".
func BuildInterpreterPattern(cmd string) string {
	return `^` + regexp.QuoteMeta(cmd) + `(\d+(\.\d+)*)?$`
}

// Compile compiles a pattern string into a Pattern with the given name.
// Returns an error if the pattern is invalid.
func Compile(pattern, name string) (Pattern, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{Regex: re, Name: name, Pattern: pattern}, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern, name string) Pattern {
	p, err := Compile(pattern, name)
	if err != nil {
		panic(err)
	}
	return p
}

// First returns the first pattern matching s.
func First(list []Pattern, s string) (Pattern, bool) {
	for _, p := range list {
		if p.Regex.MatchString(s) {
			return p, true
		}
	}
	return Pattern{}, false
}
