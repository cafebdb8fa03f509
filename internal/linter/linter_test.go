package linter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/scope"
)

func defaultRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r := NewRegistry(opts...)
	r.Register(NewPython(), ".py")
	r.Register(JSON{}, ".json")
	r.Register(YAML{}, ".yaml", ".yml")
	return r
}

func TestRegistryDispatch(t *testing.T) {
	r := defaultRegistry(t)

	l, ok := r.For("pkg/Module.PY")
	require.True(t, ok)
	assert.Equal(t, "python", l.Name())

	l, ok = r.For("deploy.yml")
	require.True(t, ok)
	assert.Equal(t, "yaml", l.Name())

	assert.False(t, r.Handles("README.md"))
	assert.False(t, r.Handles("Makefile"))
}

func TestLintSkipsUnknownAndEmpty(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Lint(context.Background(), Request{Path: "notes.md", Tool: "Write", Content: []byte("# hi")})
	assert.True(t, res.Valid)
	assert.True(t, res.Skipped)

	res = r.Lint(context.Background(), Request{Path: "empty.py", Tool: "Write"})
	assert.True(t, res.Valid)
	assert.False(t, res.Skipped)
}

func TestLintEmptyContent(t *testing.T) {
	r := defaultRegistry(t)

	tests := []struct {
		path  string
		valid bool
		kind  string
	}{
		{"empty.py", true, ""},
		{"empty.yaml", true, ""},
		{"empty.json", false, KindJSONError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := r.Lint(context.Background(), Request{Path: tt.path, Tool: "Write", Content: []byte{}})
			assert.Equal(t, tt.valid, res.Valid, "reason: %s", res.Reason)
			assert.Equal(t, tt.kind, res.Kind)
		})
	}
}

func TestLintPython(t *testing.T) {
	r := defaultRegistry(t)

	tests := []struct {
		name  string
		src   string
		valid bool
		kind  string
	}{
		{"valid", "def f():\n    return x\nx = 1\n", true, ""},
		{"undefined", "print(x)\nx = 1\n", false, string(scope.KindUndefinedName)},
		{"syntax", "def f(:\n", false, string(scope.KindSyntaxError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Lint(context.Background(), Request{Path: "test.py", Tool: "write_file", Content: []byte(tt.src)})
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.kind, res.Kind)
			if !tt.valid {
				require.NotNil(t, res.Finding)
				assert.Contains(t, res.Reason, "test.py")
				assert.Contains(t, res.SystemMessage, "test.py")
			}
		})
	}
}

func TestLintPythonMessages(t *testing.T) {
	src := []byte("print(x)\nx = 1\n")

	en := defaultRegistry(t).Lint(context.Background(), Request{Path: "test.py", Tool: "write_file", Content: src})
	assert.True(t, strings.HasPrefix(en.SystemMessage, "🚫 Python Linter Error: test.py written by write_file has errors.\n"), en.SystemMessage)
	assert.Contains(t, en.SystemMessage, "line 1: name 'x' is not defined")

	ja := defaultRegistry(t, WithLanguage(config.LangJapanese)).Lint(context.Background(), Request{Path: "test.py", Tool: "write_file", Content: src})
	assert.True(t, strings.HasPrefix(ja.SystemMessage, "🚫 Python Linter Error: write_file で書き込もうとした test.py にエラーがあります。\n"), ja.SystemMessage)

	syn := defaultRegistry(t).Lint(context.Background(), Request{Path: "bad.py", Tool: "Write", Content: []byte("x = (\n")})
	assert.Contains(t, syn.SystemMessage, "🚫 Python Syntax Error")
	assert.Contains(t, syn.SystemMessage, `File "bad.py"`)
}

func TestLintExtraBuiltins(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPython("display"), ".py")

	res := r.Lint(context.Background(), Request{Path: "nb.py", Tool: "Write", Content: []byte("display(1)\n")})
	assert.True(t, res.Valid)
}

func TestLintJSON(t *testing.T) {
	r := defaultRegistry(t, WithLanguage(config.LangJapanese))

	assert.True(t, r.Lint(context.Background(), Request{Path: "a.json", Tool: "replace", Content: []byte(`{"a": [1, 2]}`)}).Valid)

	res := r.Lint(context.Background(), Request{Path: "a.json", Tool: "replace", Content: []byte("{\n  \"a\": ,\n}")})
	require.False(t, res.Valid)
	assert.Equal(t, KindJSONError, res.Kind)
	assert.Equal(t, 2, res.Finding.Line)
	assert.True(t, strings.HasPrefix(res.Reason, "JSON Lint Error after replace in 'a.json': "), res.Reason)
	assert.True(t, strings.HasPrefix(res.SystemMessage, "🚫 JSON Lint Error: replace 後の a.json の構文が不正だ。"), res.SystemMessage)

	trailing := r.Lint(context.Background(), Request{Path: "a.json", Tool: "Write", Content: []byte(`{} {}`)})
	assert.False(t, trailing.Valid)
}

func TestLintYAML(t *testing.T) {
	r := defaultRegistry(t)

	valid := "a: 1\nlist:\n  - x\n---\nsecond: doc\n"
	assert.True(t, r.Lint(context.Background(), Request{Path: "c.yaml", Tool: "Write", Content: []byte(valid)}).Valid)

	res := r.Lint(context.Background(), Request{Path: "c.yml", Tool: "Write", Content: []byte("a: [1, 2\nb: 3\n")})
	require.False(t, res.Valid)
	assert.Equal(t, KindYAMLError, res.Kind)
	assert.Contains(t, res.SystemMessage, "c.yml is malformed after Write.")
}

// stubLinter returns a fixed outcome, optionally after waiting on ctx.
type stubLinter struct {
	err   error
	block bool
}

func (s stubLinter) Name() string { return "python" }

func (s stubLinter) Lint(ctx context.Context, _ string, _ []byte) (*Finding, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, s.err
}

func TestLintFailPolicy(t *testing.T) {
	tests := []struct {
		name     string
		linter   stubLinter
		failOpen bool
		valid    bool
		kind     string
	}{
		{"internal closed", stubLinter{err: errors.New("boom")}, false, false, KindInternal},
		{"internal open", stubLinter{err: errors.New("boom")}, true, true, KindInternal},
		{"timeout closed", stubLinter{block: true}, false, false, KindTimeout},
		{"timeout open", stubLinter{block: true}, true, true, KindTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(WithFailOpen(tt.failOpen), WithTimeout(10*time.Millisecond))
			r.Register(tt.linter, ".py")

			res := r.Lint(context.Background(), Request{Path: "x.py", Tool: "Write", Content: []byte("x = 1\n")})
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.kind, res.Kind)
			assert.True(t, strings.HasPrefix(res.Reason, "Linter Error: "), res.Reason)
			if !tt.valid {
				assert.Contains(t, res.SystemMessage, "🚫 Python Linter Error: ")
			}
		})
	}
}

func TestLintTimeoutMessage(t *testing.T) {
	r := NewRegistry(WithTimeout(5*time.Millisecond), WithLanguage(config.LangJapanese))
	r.Register(stubLinter{block: true}, ".py")

	res := r.Lint(context.Background(), Request{Path: "x.py", Tool: "Write", Content: []byte("x")})
	assert.Contains(t, res.SystemMessage, "5ms 以内に検査が終わりませんでした。")
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.LoadConfig([]byte("fail_policy = \"open\"\n[json]\nenabled = false\n[python]\nextra_builtins = [\"spark\"]\n"))
	require.NoError(t, err)

	r := FromConfig(cfg)
	assert.True(t, r.Handles("a.py"))
	assert.True(t, r.Handles("a.pyi"))
	assert.True(t, r.Handles("a.yaml"))
	assert.False(t, r.Handles("a.json"))
	assert.True(t, r.failOpen)
	assert.Equal(t, cfg.Timeout, r.timeout)

	res := r.Lint(context.Background(), Request{Path: "job.py", Tool: "Write", Content: []byte("spark.stop()\n")})
	assert.True(t, res.Valid)
}

func TestOffsetPosition(t *testing.T) {
	line, col := offsetPosition([]byte("ab\ncd"), 4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, _ = offsetPosition([]byte("x"), 10)
	assert.Equal(t, 1, line)
}
