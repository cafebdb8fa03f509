package patterns

import (
	"regexp"
	"testing"
)

func TestBuildFlagPattern(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"positional arg", "<arg>", `(\S+\s+)?`},
		{"simple flag", "-i", `(-i\s+)?`},
		{"flag with arg", "-k <arg>", `(-k\s*\S+\s+)?`},
		{"long name with arg", "--signal <arg>", `(--signal\s*\S+\s+)?`},
		{"whitespace trimming", "  -i  ", `(-i\s+)?`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFlagPattern(tt.input)
			if got != tt.expected {
				t.Errorf("BuildFlagPattern(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildWrapperPattern_Regex(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		flags   []string
		input   string
		wantEnd int // -1 means no match
	}{
		{"env wrapper", "env", nil, "env python3 -c x", 4},
		{"env no space", "env", nil, "env", -1},
		{"timeout with arg", "timeout", []string{"<arg>"}, "timeout 30 python3", 11},
		{"timeout with signal", "timeout", []string{"-s <arg>", "<arg>"}, "timeout -s KILL 5 python", 18},
		{"nice compact flag", "nice", []string{"-n <arg>"}, "nice -n10 python", 10},
		{"not at start", "env", nil, "sudo env python", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := regexp.MustCompile(BuildWrapperPattern(tt.cmd, tt.flags))
			loc := re.FindStringIndex(tt.input)
			if tt.wantEnd < 0 {
				if loc != nil {
					t.Errorf("pattern matched %q at %v, want no match", tt.input, loc)
				}
				return
			}
			if loc == nil || loc[1] != tt.wantEnd {
				t.Errorf("pattern matching %q = %v, want end %d", tt.input, loc, tt.wantEnd)
			}
		})
	}
}

func TestBuildInterpreterPattern_Regex(t *testing.T) {
	tests := []struct {
		input   string
		matches bool
	}{
		{"python", true},
		{"python3", true},
		{"python3.12", true},
		{"python3.", false},
		{"pythonista", false},
		{"ipython", false},
	}

	re := regexp.MustCompile(BuildInterpreterPattern("python"))
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := re.MatchString(tt.input); got != tt.matches {
				t.Errorf("interpreter pattern matching %q = %v, want %v", tt.input, got, tt.matches)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	t.Run("valid pattern", func(t *testing.T) {
		p, err := Compile(`^uv\s+run\s+`, "uv run")
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if p.Name != "uv run" {
			t.Errorf("Pattern.Name = %q, want %q", p.Name, "uv run")
		}
		if p.Pattern != `^uv\s+run\s+` {
			t.Errorf("Pattern.Pattern = %q", p.Pattern)
		}
		if !p.Regex.MatchString("uv run python") {
			t.Error("Pattern should match 'uv run python'")
		}
	})

	t.Run("invalid pattern", func(t *testing.T) {
		if _, err := Compile(`[invalid`, "bad"); err == nil {
			t.Error("Compile() should return error for invalid pattern")
		}
	})
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustCompile() should panic for invalid pattern")
		}
	}()
	MustCompile(`[invalid`, "bad")
}

func TestFirst(t *testing.T) {
	list := []Pattern{
		MustCompile(BuildInterpreterPattern("python"), "python"),
		MustCompile(BuildInterpreterPattern("pypy"), "pypy"),
	}

	p, ok := First(list, "pypy3")
	if !ok || p.Name != "pypy" {
		t.Errorf("First(pypy3) = %q, %v; want pypy, true", p.Name, ok)
	}
	if _, ok := First(list, "node"); ok {
		t.Error("First(node) matched, want no match")
	}
}
