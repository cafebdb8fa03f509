package linter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/scope"
)

// catalog holds the agent-facing text for one language.
type catalog struct {
	// written formats a failure of a source linter: label, tool, path
	written string
	// malformed formats a failure of a data linter: label, tool, path
	malformed string
	timeout   string
	internal  string
}

var catalogs = map[string]catalog{
	config.LangEnglish: {
		written:   "🚫 %s: %[3]s written by %[2]s has errors.",
		malformed: "🚫 %s: %[3]s is malformed after %[2]s.",
		timeout:   "the check did not finish within %s.",
		internal:  "an unexpected error occurred.",
	},
	config.LangJapanese: {
		written:   "🚫 %s: %s で書き込もうとした %s にエラーがあります。",
		malformed: "🚫 %s: %s 後の %s の構文が不正だ。",
		timeout:   "%s 以内に検査が終わりませんでした。",
		internal:  "予期せぬエラーが発生しました。",
	},
}

func catalogFor(lang string) catalog {
	if c, ok := catalogs[strings.ToLower(lang)]; ok {
		return c
	}
	return catalogs[config.LangEnglish]
}

// label names a finding kind the way the agent sees it.
func (catalog) label(kind string) string {
	switch kind {
	case string(scope.KindSyntaxError):
		return "Python Syntax Error"
	case string(scope.KindUndefinedName):
		return "Python Linter Error"
	case KindJSONError:
		return "JSON Lint Error"
	case KindYAMLError:
		return "YAML Lint Error"
	}
	return "Lint Error"
}

// linterError is the label used when a linter could not finish.
func (catalog) linterError(linter string) string {
	switch linter {
	case pythonName:
		return "Python Linter Error"
	case jsonName:
		return "JSON Lint Error"
	case yamlName:
		return "YAML Lint Error"
	}
	return "Linter Error"
}

func (c catalog) failed(kind, label, tool, path, detail string) string {
	format := c.written
	if kind == KindJSONError || kind == KindYAMLError {
		format = c.malformed
	}
	msg := fmt.Sprintf(format, label, tool, path)
	if detail != "" {
		msg += "\n" + detail
	}
	return msg
}

func (c catalog) timedOut(d time.Duration) string {
	return fmt.Sprintf(c.timeout, d)
}

func (c catalog) unexpected(detail string) string {
	return c.internal + "\n" + detail
}
