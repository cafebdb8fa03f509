package hook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// errNothingToCheck means the tool call cannot produce lintable content:
// the target file is gone or an old string is not in it. The tool itself
// will fail, so the hook allows it.
var errNothingToCheck = errors.New("nothing to check")

// normalizeNewlines converts CRLF line endings to LF.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// resolvePath makes a relative file_path absolute against the hook cwd.
func resolvePath(path, cwd string) string {
	if path == "" || filepath.IsAbs(path) || cwd == "" {
		return path
	}
	return filepath.Join(cwd, path)
}

// readCurrent returns the file's content with LF line endings. A missing
// file reads as absent.
func readCurrent(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return normalizeNewlines(string(data)), true, nil
}

// applyEdit replaces the first occurrence of old in content with repl, or every
// occurrence with all set.
func applyEdit(content, old, repl string, all bool) (string, error) {
	old = normalizeNewlines(old)
	repl = normalizeNewlines(repl)
	if old == "" || !strings.Contains(content, old) {
		return "", errNothingToCheck
	}
	if all {
		return strings.ReplaceAll(content, old, repl), nil
	}
	return strings.Replace(content, old, repl, 1), nil
}

// editedContent rebuilds the file after a replace/Edit call.
func editedContent(path string, in ToolInputData) (string, error) {
	if in.OldString == nil || in.NewString == nil {
		return "", errNothingToCheck
	}
	current, exists, err := readCurrent(path)
	if err != nil {
		return "", err
	}
	if !exists {
		// an empty old_string creates the file
		if *in.OldString == "" {
			return normalizeNewlines(*in.NewString), nil
		}
		return "", errNothingToCheck
	}
	return applyEdit(current, *in.OldString, *in.NewString, in.ReplaceAll)
}

// multiEditedContent applies every edit in order, each to the result of
// the previous one.
func multiEditedContent(path string, in ToolInputData) (string, error) {
	if len(in.Edits) == 0 {
		return "", errNothingToCheck
	}
	content, exists, err := readCurrent(path)
	if err != nil {
		return "", err
	}
	edits := in.Edits
	if !exists {
		if edits[0].OldString != "" {
			return "", errNothingToCheck
		}
		content = normalizeNewlines(edits[0].NewString)
		edits = edits[1:]
	}
	for _, e := range edits {
		content, err = applyEdit(content, e.OldString, e.NewString, e.ReplaceAll)
		if err != nil {
			return "", err
		}
	}
	return content, nil
}
