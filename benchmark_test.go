package main

import (
	"context"
	"strings"
	"testing"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/hook"
	"github.com/dgerlanc/scopegate/internal/scope"
)

// benchSource is a module touching most scoping rules.
var benchSource = strings.Repeat(`import os
from dataclasses import dataclass

@dataclass
class Point:
    x: int
    y: int

    def norm(self) -> float:
        return (self.x ** 2 + self.y ** 2) ** 0.5

def walk(root, *, limit=10):
    seen = {p for p in os.listdir(root)}
    for i, name in enumerate(sorted(seen)):
        if (n := len(name)) > limit:
            continue
        yield Point(i, n)

total = sum(p.norm() for p in walk("."))
`, 20)

// BenchmarkCheck benchmarks the name checker
func BenchmarkCheck(b *testing.B) {
	benchmarks := []struct {
		name string
		src  string
	}{
		{"small_valid", "x = 1\nprint(x)\n"},
		{"small_undefined", "print(x)\n"},
		{"syntax_error", "def f(:\n"},
		{"module", benchSource},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			src := []byte(bm.src)
			for i := 0; i < b.N; i++ {
				_, _ = scope.Check(context.Background(), src)
			}
		})
	}
}

// BenchmarkProcess benchmarks the full hook decision
func BenchmarkProcess(b *testing.B) {
	// Ensure config is loaded before benchmark
	_ = config.Get()

	benchmarks := []struct {
		name  string
		input string
	}{
		{"write_valid", `{"hook_event_name":"PreToolUse","tool_name":"Write","tool_input":{"file_path":"a.py","content":"x = 1\nprint(x)\n"}}`},
		{"write_undefined", `{"hook_event_name":"PreToolUse","tool_name":"Write","tool_input":{"file_path":"a.py","content":"print(x)\n"}}`},
		{"bash_inline", `{"hook_event_name":"PreToolUse","tool_name":"Bash","tool_input":{"command":"timeout 30 python3 -c 'import sys; print(sys.argv)'"}}`},
		{"bash_no_python", `{"hook_event_name":"PreToolUse","tool_name":"Bash","tool_input":{"command":"git status && ls -la"}}`},
		{"other_tool", `{"hook_event_name":"PreToolUse","tool_name":"Read","tool_input":{"file_path":"/tmp/test"}}`},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = hook.ProcessWithResult(strings.NewReader(bm.input))
			}
		})
	}
}

// BenchmarkExtractScripts benchmarks shell parsing of inline code
func BenchmarkExtractScripts(b *testing.B) {
	cfg := config.Get()

	benchmarks := []struct {
		name string
		cmd  string
	}{
		{"flag", "python -c 'print(1)'"},
		{"wrapped", "env FOO=1 timeout 30 .venv/bin/python3 -c 'print(1)'"},
		{"heredoc", "uv run python - <<'EOF'\nimport os\nprint(os.sep)\nEOF"},
		{"chain", "cd src && git status && python -c 'a = 1' | tee out"},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = hook.ExtractScripts(bm.cmd, cfg.WrapperPatterns, cfg.Inline.Interpreters)
			}
		})
	}
}
