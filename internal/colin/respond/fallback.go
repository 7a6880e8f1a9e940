package respond

import (
	"math/rand"

	"github.com/colinbot/colin/internal/colin/state"
)

// Picker chooses an index in [0, n). Injected so tests can pin the choice;
// production uses math/rand.
type Picker func(n int) int

// encourageAfterTurns is the turn count past which long-running chats get
// encouragement instead of generic acknowledgements.
const encourageAfterTurns = 10

// Fallback reply pools. Each category holds a handful of fixed strings; the
// responder picks one uniformly at random within the matched category.
var (
	greetingPool = []string{
		"Hello! 👋 How are you today?",
		"Hi there! 😊 What would you like to talk about?",
		"Hey! 🌟 How can I help you practice English?",
		"Good to see you! Let's have a great English conversation! ✨",
	}

	farewellPool = []string{
		"Goodbye! 👋 Keep practicing your English!",
		"See you later! 🌟 You're doing great!",
		"Bye! 😊 Have a wonderful day!",
	}

	helpPool = []string{
		"I'm here to help! We can practice conversation, work on grammar, or discuss any topic you like! 💪",
		"Of course! I can help you with speaking practice, grammar questions, or just casual conversation! 🎯",
		"I'd love to help you improve your English! What would you like to work on? 📚",
	}

	grammarPracticePool = []string{
		"Grammar practice is great! Feel free to write sentences and I'll help you improve them! ✍️",
		"Let's work on your English together! Try writing about something you enjoy! 📝",
		"Perfect! The best way to learn is through practice. Tell me about your day! 🗣️",
	}

	questionPool = []string{
		"That's a great question! Let me think about that... 🤔",
		"Interesting question! I'd love to discuss that with you! 💭",
		"Good question! What are your thoughts on this? 🎯",
	}

	encouragementPool = []string{
		"Your English is really improving! I can see your progress! 📈",
		"You're becoming more confident with English! Keep it up! 🚀",
		"I'm impressed by your English skills! Let's keep practicing! ⭐",
	}

	// Generic acknowledgements vary by conversation mode.
	genericGrammarPool = []string{
		"That sentence looks good to me! ✅",
		"Your grammar is correct there. 👍",
		"I think that's well-written. 📝",
		"That's a proper way to express it. 💯",
	}

	genericConversationPool = []string{
		"That's interesting! 🤔 Can you tell me more?",
		"What do you think about that? 💭",
		"That's a good point! 💡",
		"Tell me more about that. 🔍",
	}

	genericMixedPool = []string{
		"That's well expressed! 👌",
		"Your English is improving! 📈",
		"Good way to say that. ✨",
		"You're communicating clearly. 🎯",
		"Great! What else would you like to discuss? 🌟",
	}
)

// Responder produces a locally computed reply when the backend path fails.
// It never errors, never blocks, and performs no I/O.
type Responder struct {
	pick Picker
}

// NewResponder returns a Responder using pick for selection; a nil pick
// falls back to math/rand.
func NewResponder(pick Picker) *Responder {
	if pick == nil {
		pick = rand.Intn
	}
	return &Responder{pick: pick}
}

// Reply selects a reply for the utterance. Categories are checked in a fixed
// order and the first match wins; the final generic category depends on the
// conversation mode.
func (r *Responder) Reply(utterance string, conv state.Conversation) string {
	switch {
	case IsGreeting(utterance):
		return r.choose(greetingPool)
	case IsFarewell(utterance):
		return r.choose(farewellPool)
	case isHelpRequest(utterance):
		return r.choose(helpPool)
	case isGrammarTopic(utterance):
		return r.choose(grammarPracticePool)
	case IsQuestion(utterance):
		return r.choose(questionPool)
	case conv.TurnCount > encourageAfterTurns:
		return r.choose(encouragementPool)
	}
	return r.choose(genericPool(conv.Mode))
}

// genericPool maps a conversation mode to its acknowledgement pool.
func genericPool(m state.Mode) []string {
	switch m {
	case state.ModeGrammar:
		return genericGrammarPool
	case state.ModeConversation:
		return genericConversationPool
	default:
		return genericMixedPool
	}
}

func (r *Responder) choose(pool []string) string {
	i := r.pick(len(pool))
	if i < 0 || i >= len(pool) {
		i = 0
	}
	return pool[i]
}
