package hook

import (
	"encoding/json"

	"github.com/dgerlanc/scopegate/internal/logger"
)

// fallbackDeny is written when a verdict cannot be marshalled.
const fallbackDeny = `{"hookSpecificOutput":{"hookEventName":"PreToolUse","permissionDecision":"deny","permissionDecisionReason":"internal error"}}`

// FormatDeny returns the Claude Code deny output.
func FormatDeny(reason string) string {
	output := Output{
		HookSpecificOutput: SpecificOutput{
			HookEventName:            EventPreToolUse,
			PermissionDecision:       DecisionDeny,
			PermissionDecisionReason: reason,
		},
	}
	data, err := json.Marshal(output)
	if err != nil {
		logger.Debug("failed to marshal deny output", "error", err)
		return fallbackDeny
	}
	return string(data)
}

// FormatGemini returns the decision JSON used by Gemini CLI hooks.
func FormatGemini(allowed bool, reason, systemMessage string) string {
	output := GeminiOutput{Decision: DecisionAllow}
	if !allowed {
		output = GeminiOutput{Decision: DecisionDeny, Reason: reason, SystemMessage: systemMessage}
	}
	data, err := json.Marshal(output)
	if err != nil {
		logger.Debug("failed to marshal decision output", "error", err)
		return `{"decision":"deny","reason":"internal error"}`
	}
	return string(data)
}

// formatFor renders a verdict in the shape the calling agent expects.
// Claude Code treats empty stdout as no objection, so allow is silent there.
func formatFor(event string, allowed bool, reason, systemMessage string) string {
	if event == EventPreToolUse {
		if allowed {
			return ""
		}
		if systemMessage != "" {
			reason = systemMessage
		}
		return FormatDeny(reason)
	}
	return FormatGemini(allowed, reason, systemMessage)
}
