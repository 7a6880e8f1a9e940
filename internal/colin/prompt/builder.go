// Package prompt renders the instruction block sent to the generation
// backend. The output uses the Phi-style role delimiters so the response
// validator can detect any of them leaking back in a reply.
package prompt

import (
	"strings"

	"github.com/colinbot/colin/internal/colin/state"
)

// Role segment delimiters. The validator strips and rejects these; keep the
// two packages in sync through these constants rather than string literals.
const (
	TokenSystem    = "<|system|>"
	TokenUser      = "<|user|>"
	TokenAssistant = "<|assistant|>"
	TokenEnd       = "<|end|>"
)

// historyWindow is how many trailing history turns are rendered into the
// prompt (two exchanges).
const historyWindow = 4

// System directives, one per mode. These are fixed texts, not user-editable.
const (
	grammarDirective = `You are an English tutor. Help the learner improve their English by:
- Checking grammar in their messages
- Providing corrections when needed
- Explaining mistakes briefly and clearly
- Keeping responses short (1-2 sentences)

Never mention that you are an AI. Act like a human English teacher.`

	conversationDirective = `You are a friendly person who enjoys chatting in English. Your goal is to:
- Have natural, engaging conversations in simple English
- Ask follow-up questions to continue the conversation
- Use vocabulary appropriate for English learners
- Keep responses short and conversational (1-2 sentences)

Never mention that you are an AI. Chat naturally like a human friend.`

	mixedDirective = `You are an English conversation partner. Help the learner by:
- Having natural conversations in simple, clear English
- Correcting obvious grammar mistakes gently
- Asking follow-up questions to keep conversations flowing
- Keeping responses short and clear (1-2 sentences)
- Using vocabulary appropriate for the learner's level

Never mention that you are an AI. Act like a human English learning partner.`
)

// Directive returns the system directive text for a mode. Unknown modes fall
// back to the mixed directive.
func Directive(m state.Mode) string {
	switch m {
	case state.ModeGrammar:
		return grammarDirective
	case state.ModeConversation:
		return conversationDirective
	default:
		return mixedDirective
	}
}

// Build renders the full prompt: the mode's system directive (with a level
// hint), up to the last four history turns, then the new utterance followed
// by an open assistant segment for the backend to complete. conv.History is
// the state before the utterance is recorded; the utterance itself appears
// only as the final user segment.
func Build(utterance string, conv state.Conversation) string {
	var b strings.Builder

	b.WriteString(TokenSystem)
	b.WriteString("\n")
	b.WriteString(Directive(conv.Mode))
	if conv.Level != "" {
		b.WriteString("\nThe learner's English level is ")
		b.WriteString(string(conv.Level))
		b.WriteString(".")
	}
	b.WriteString(TokenEnd)
	b.WriteString("\n")

	history := conv.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, turn := range history {
		if turn.Role == state.RoleUser {
			b.WriteString(TokenUser)
		} else {
			b.WriteString(TokenAssistant)
		}
		b.WriteString("\n")
		b.WriteString(turn.Content)
		b.WriteString(TokenEnd)
		b.WriteString("\n")
	}

	b.WriteString(TokenUser)
	b.WriteString("\n")
	b.WriteString(utterance)
	b.WriteString(TokenEnd)
	b.WriteString("\n")
	b.WriteString(TokenAssistant)
	b.WriteString("\n")

	return b.String()
}
