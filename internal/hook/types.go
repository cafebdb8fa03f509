package hook

/*
Type Relationships in the hook package:

Data Flow:
  Input (JSON from Claude Code or Gemini CLI)
    → ProcessWithResult()
      → collectTargets() → file content after the edit, or Python extracted
                    from a shell command by ExtractScripts()
      → linter.Registry.Lint() → linter.Result per target
    → Result (returned to caller)
    → Output (Claude hookSpecificOutput) or GeminiOutput (decision JSON)

Related packages:
  - config.Config: exclude globs, wrapper and interpreter patterns, fail policy
  - linter.Result: verdict for one piece of content
  - audit.Entry: logged for each decision
*/

// Input represents the JSON input received from a PreToolUse or BeforeTool hook.
//
// See: https://docs.anthropic.com/en/docs/claude-code/hooks
type Input struct {
	SessionID      string        `json:"session_id"`
	TranscriptPath string        `json:"transcript_path"`
	Cwd            string        `json:"cwd"`
	PermissionMode string        `json:"permission_mode"`
	HookEventName  string        `json:"hook_event_name"`
	ToolName       string        `json:"tool_name"`
	ToolInput      ToolInputData `json:"tool_input"`
	ToolUseID      string        `json:"tool_use_id"`
}

// ToolInputData carries the arguments of the intercepted tool call. Which
// fields are set depends on the tool.
type ToolInputData struct {
	FilePath   string     `json:"file_path,omitempty"`
	Content    *string    `json:"content,omitempty"`
	OldString  *string    `json:"old_string,omitempty"`
	NewString  *string    `json:"new_string,omitempty"`
	ReplaceAll bool       `json:"replace_all,omitempty"`
	Edits      []EditSpec `json:"edits,omitempty"`
	Command    string     `json:"command,omitempty"`
}

// EditSpec is one replacement of a MultiEdit call.
type EditSpec struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

// Output is the Claude Code response. It is only written on deny.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// SpecificOutput contains the permission decision details.
type SpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

// GeminiOutput is the response for every event other than PreToolUse.
type GeminiOutput struct {
	Decision      string `json:"decision"`
	Reason        string `json:"reason,omitempty"`
	SystemMessage string `json:"systemMessage,omitempty"`
}

// Result contains the outcome of processing one hook invocation.
type Result struct {
	Tool    string // Tool name from the input
	Path    string // Path that decided the outcome, if any
	Allowed bool
	Reason  string // Human-readable reason for the decision
	Kind    string // Finding kind on deny or fail-open allow
	Output  string // JSON written to stdout; empty means silent allow
	// Checked counts the pieces of content that were linted
	Checked int
}
