// scopegate - lint-on-write hook for Claude Code and Gemini CLI
//
// Before a Write, Edit, MultiEdit or Bash tool call runs, scopegate rebuilds
// the file (or the inline Python) the call would produce and denies the
// call when it does not parse or reads a name that is never defined.
//
// Usage in ~/.claude/settings.json:
//
//	"hooks": {
//	  "PreToolUse": [{
//	    "matcher": "Write|Edit|MultiEdit|Bash",
//	    "hooks": [{"type": "command", "command": "scopegate"}]
//	  }]
//	}
//
// Test:
//
//	echo '{"hook_event_name":"PreToolUse","tool_name":"Bash","tool_input":{"command":"python3 -c \"print(x)\""}}' | scopegate
package main

import (
	"os"

	"github.com/dgerlanc/scopegate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
