// Package state implements the in-memory conversation state store for Colin.
// Each chat has one Conversation holding a bounded rolling history plus a
// lightweight learner profile (mode, level, interests). State lives for the
// process lifetime only; nothing here touches disk or network.
package state

import "time"

// Mode selects the system-prompt behaviour for a conversation.
type Mode string

const (
	// ModeMixed combines grammar correction with casual conversation.
	ModeMixed Mode = "mixed"
	// ModeConversation is casual conversation practice only.
	ModeConversation Mode = "conversation"
	// ModeGrammar is grammar checking and correction only.
	ModeGrammar Mode = "grammar"
)

// ParseMode returns the Mode named by s, or false when s is not a known mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeMixed, ModeConversation, ModeGrammar:
		return Mode(s), true
	}
	return "", false
}

// Level is the learner's self-declared English level.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel returns the Level named by s, or false when s is not a known level.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return Level(s), true
	}
	return "", false
}

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single recorded message in a conversation.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Conversation is the per-chat state the resolver reads and mutates.
type Conversation struct {
	ID        string // session ID (UUID), regenerated on Clear
	ChatID    string // opaque chat identifier from the transport
	Mode      Mode
	Level     Level
	History   []Turn   // oldest first, bounded by the store's cap
	Interests []string // topic tags, grow-only within a session
	TurnCount int      // user messages processed this session
	StartedAt time.Time
	LastMsgAt time.Time
}

// interestKeywords maps a topic tag to the trigger words that imply it.
var interestKeywords = map[string][]string{
	"sports":     {"football", "soccer", "basketball", "tennis", "gym", "workout"},
	"movies":     {"movie", "film", "cinema", "actor", "actress", "director"},
	"music":      {"song", "music", "band", "singer", "concert", "album"},
	"travel":     {"travel", "trip", "vacation", "country", "city", "visit"},
	"food":       {"food", "restaurant", "cook", "recipe", "eat", "meal"},
	"technology": {"computer", "phone", "internet", "app", "software"},
}
