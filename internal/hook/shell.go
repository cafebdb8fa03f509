package hook

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/dgerlanc/scopegate/internal/patterns"
)

// ErrUnparseable is returned when a command cannot be parsed.
var ErrUnparseable = errors.New("unparseable command")

// How inline code reached the interpreter.
const (
	ViaFlag       = "-c"
	ViaHeredoc    = "heredoc"
	ViaHereString = "herestring"
)

// Script is Python source passed inline to an interpreter by a shell command.
type Script struct {
	Interpreter string   // name of the matched interpreter pattern
	Wrappers    []string // wrapper names stripped before the interpreter
	Command     string   // the simple command, reprinted
	Source      string
	Via         string
}

// ExtractScripts finds every simple command in cmd that runs a matching
// interpreter with inline code, either through -c or on stdin from a
// heredoc or here-string. Code whose text depends on an expansion (command
// substitution, parameters, arithmetic) is skipped since it is not final.
// Returns ErrUnparseable if cmd is not valid shell.
func ExtractScripts(cmd string, wrappers, interpreters []patterns.Pattern) ([]Script, error) {
	if strings.TrimSpace(cmd) == "" || len(interpreters) == 0 {
		return nil, nil
	}

	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	printer := syntax.NewPrinter()
	var scripts []Script
	syntax.Walk(prog, func(node syntax.Node) bool {
		stmt, ok := node.(*syntax.Stmt)
		if !ok {
			return true
		}
		call, ok := stmt.Cmd.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		s, ok := scriptFrom(stmt, call, printer, wrappers, interpreters)
		if ok {
			var buf strings.Builder
			printer.Print(&buf, call)
			s.Command = strings.TrimSpace(buf.String())
			scripts = append(scripts, s)
		}
		return true
	})
	return scripts, nil
}

// shellWord is a command argument with its expanded value. Words that
// depend on runtime expansions keep their source text and are not final.
type shellWord struct {
	value string
	final bool
}

func shellWords(args []*syntax.Word, printer *syntax.Printer) []shellWord {
	words := make([]shellWord, len(args))
	for i, w := range args {
		if isFinal(w.Parts) {
			if v, err := expand.Literal(nil, w); err == nil {
				words[i] = shellWord{value: v, final: true}
				continue
			}
		}
		var buf strings.Builder
		printer.Print(&buf, w)
		words[i] = shellWord{value: buf.String()}
	}
	return words
}

// isFinal reports whether parts contain only quoting and literal text.
func isFinal(parts []syntax.WordPart) bool {
	for _, part := range parts {
		switch p := part.(type) {
		case *syntax.Lit, *syntax.SglQuoted:
		case *syntax.DblQuoted:
			if !isFinal(p.Parts) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func scriptFrom(stmt *syntax.Stmt, call *syntax.CallExpr, printer *syntax.Printer, wrappers, interpreters []patterns.Pattern) (Script, bool) {
	words := shellWords(call.Args, printer)
	k, names := stripWrappers(words, wrappers)
	if k >= len(words) || !words[k].final {
		return Script{}, false
	}
	interp, ok := patterns.First(interpreters, path.Base(words[k].value))
	if !ok {
		return Script{}, false
	}
	s := Script{Interpreter: interp.Name, Wrappers: names}

	src, found, ok := flagSource(words[k+1:])
	if !ok {
		return Script{}, false
	}
	if found {
		s.Source, s.Via = src, ViaFlag
		return s, true
	}

	for _, r := range stmt.Redirs {
		if r.N != nil && r.N.Value != "0" {
			continue
		}
		switch r.Op {
		case syntax.Hdoc, syntax.DashHdoc:
			body, ok := heredocBody(r)
			if !ok {
				return Script{}, false
			}
			s.Source, s.Via = body, ViaHeredoc
			return s, true
		case syntax.WordHdoc:
			if r.Word == nil || !isFinal(r.Word.Parts) {
				return Script{}, false
			}
			v, err := expand.Literal(nil, r.Word)
			if err != nil {
				return Script{}, false
			}
			s.Source, s.Via = v+"\n", ViaHereString
			return s, true
		}
	}
	return Script{}, false
}

// flagSource scans interpreter arguments for -c. found is false when the
// code comes from stdin; ok is false when the interpreter runs a script
// file or module, or the code is not final.
func flagSource(args []shellWord) (src string, found, ok bool) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !a.final {
			return "", false, false
		}
		switch {
		case a.value == "-":
			return "", false, true
		case a.value == "--":
			// the next word is the script; none or "-" means stdin
			if i+1 < len(args) && args[i+1].value != "-" {
				return "", false, false
			}
			return "", false, true
		case strings.HasPrefix(a.value, "--"):
			// long options such as --version take no code
			continue
		case !strings.HasPrefix(a.value, "-"):
			// a script path
			return "", false, false
		}

		// short option cluster such as -u, -Bc, -W error, -Xdev
		cluster := a.value[1:]
		for j := 0; j < len(cluster); j++ {
			switch cluster[j] {
			case 'c':
				if rest := cluster[j+1:]; rest != "" {
					return rest, true, true
				}
				if i+1 >= len(args) || !args[i+1].final {
					return "", false, false
				}
				return args[i+1].value, true, true
			case 'm':
				return "", false, false
			case 'W', 'X':
				if j == len(cluster)-1 {
					i++
				}
				j = len(cluster)
			}
		}
	}
	return "", false, true
}

// heredocBody returns the text a heredoc feeds to stdin. Quoted delimiters
// disable expansion; unquoted bodies are only used when they contain no
// expansions.
func heredocBody(r *syntax.Redirect) (string, bool) {
	if r.Hdoc == nil {
		return "", true
	}

	var body string
	if delimiterQuoted(r.Word) {
		var b strings.Builder
		for _, part := range r.Hdoc.Parts {
			switch p := part.(type) {
			case *syntax.Lit:
				b.WriteString(p.Value)
			case *syntax.SglQuoted:
				b.WriteString(p.Value)
			default:
				return "", false
			}
		}
		body = b.String()
	} else {
		if !isFinal(r.Hdoc.Parts) {
			return "", false
		}
		v, err := expand.Document(nil, r.Hdoc)
		if err != nil {
			return "", false
		}
		body = v
	}

	if r.Op == syntax.DashHdoc {
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimLeft(line, "\t")
		}
		body = strings.Join(lines, "\n")
	}
	return body, true
}

func delimiterQuoted(w *syntax.Word) bool {
	if w == nil {
		return false
	}
	for _, part := range w.Parts {
		switch part.(type) {
		case *syntax.SglQuoted, *syntax.DblQuoted:
			return true
		}
	}
	return strings.Contains(w.Lit(), `\`)
}

// stripWrappers skips leading words matched by wrapper patterns and returns
// the index of the core command word with the wrapper names, in order. A
// directory prefix on the head word (.venv/bin/timeout) is ignored.
func stripWrappers(words []shellWord, wrapperPatterns []patterns.Pattern) (int, []string) {
	var names []string
	k := 0
	for k < len(words) {
		rest := make([]string, len(words)-k)
		for i, w := range words[k:] {
			rest[i] = w.value
		}
		rest[0] = path.Base(rest[0])
		line := strings.Join(rest, " ")

		advanced := false
		for _, p := range wrapperPatterns {
			loc := p.Regex.FindStringIndex(line)
			if loc == nil || loc[0] != 0 {
				continue
			}
			if n := wordsBefore(rest, loc[1]); n > 0 {
				k += n
				names = append(names, p.Name)
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}
	return k, names
}

// wordsBefore counts the words of strings.Join(words, " ") that end
// before offset end.
func wordsBefore(words []string, end int) int {
	n, off := 0, 0
	for _, w := range words {
		if off+len(w) >= end {
			break
		}
		off += len(w) + 1
		n++
	}
	return n
}
