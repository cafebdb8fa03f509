package linter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	jsonName = "json"
	yamlName = "yaml"
)

// JSON checks that content is a single well-formed JSON value.
type JSON struct{}

func (JSON) Name() string { return jsonName }

func (JSON) Lint(_ context.Context, _ string, content []byte) (*Finding, error) {
	var v any
	err := json.Unmarshal(content, &v)
	if err == nil {
		return nil, nil
	}

	f := &Finding{Kind: KindJSONError, Message: err.Error()}
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		line, col := offsetPosition(content, syn.Offset)
		f.Line = line
		f.Message = fmt.Sprintf("%s at line %d, column %d", err, line, col)
	}
	f.Detail = f.Message
	return f, nil
}

// offsetPosition converts a json.SyntaxError offset, which counts the
// offending byte, into a 1-based line and column.
func offsetPosition(content []byte, offset int64) (line, col int) {
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	before := content[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	col = max(int(offset)-bytes.LastIndexByte(before, '\n')-1, 1)
	return line, col
}

// YAML checks that every document in a YAML stream parses.
type YAML struct{}

func (YAML) Name() string { return yamlName }

func (YAML) Lint(ctx context.Context, _ string, content []byte) (*Finding, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return &Finding{Kind: KindYAMLError, Line: yamlLine(err), Message: err.Error(), Detail: err.Error()}, nil
		}
	}
}

// yamlLine pulls the line out of "yaml: line N: ..." messages.
func yamlLine(err error) int {
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr != nil {
		return 0
	}
	return line
}
