// Package redact provides helpers for keeping sensitive or bulky values out
// of log output.
//
// Two concerns are covered:
//   - Credentials (the Telegram bot token, the backend API key) must never
//     appear in log lines.  Transport errors are especially prone to leaking
//     them because net/url errors embed the full request URL, and the
//     Telegram Bot API puts the token in the URL path.
//   - User chat messages are logged only as short snippets, both to keep log
//     volume bounded and to avoid archiving whole conversations.
//
// Redaction is best-effort: it operates on string representations and relies
// on callers to pass the right set of sensitive terms.  It is NOT a substitute
// for keeping secrets out of log call-sites in the first place.
package redact

import "strings"

const placeholder = "[REDACTED]"

// String replaces every occurrence of each sensitive value in s with
// [REDACTED].  Values shorter than 4 characters are skipped to avoid
// spurious redaction of common substrings.
//
// Example:
//
//	safe := redact.String(err.Error(), botToken)
func String(s string, sensitiveValues ...string) string {
	for _, v := range sensitiveValues {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, placeholder)
	}
	return s
}

// Snippet returns at most n runes of s, with newlines flattened to spaces and
// an ellipsis appended when the text was cut.  Used when logging user
// utterances and bot replies.
func Snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
