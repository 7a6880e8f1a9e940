package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/colinbot/colin/internal/colin/state"
)

const welcomeText = `🌟 Hello! I'm Colin, your English learning companion!

I'm here to help you:
📚 Practice English conversation
✍️ Improve your grammar
🗣️ Build confidence in speaking
🌍 Learn about different topics

Just start chatting with me in English! I'll help you learn naturally through conversation.

Type /help anytime for more information.`

const helpText = `🤖 I'm Colin, your English teacher bot!

📝 Commands:
• /start - Welcome message
• /help - Show this help
• /mode - Switch practice mode
• /level - Set your English level
• /clear - Clear conversation history

💬 How to use me:
• Just chat with me in English!
• Ask me questions about grammar
• Tell me about your interests
• Practice describing things
• Don't worry about mistakes - I'm here to help!

🎯 Tips:
• Try to write complete sentences
• Ask me to explain words you don't know`

const clearedText = "✨ Conversation history cleared! 📚 Let's start fresh - send me a message to begin a new conversation! 🚀"

// modeLabels are the display names used in /mode replies.
var modeLabels = map[state.Mode]string{
	state.ModeMixed:        "🎯 Mixed",
	state.ModeConversation: "💬 Conversation",
	state.ModeGrammar:      "📝 Grammar",
}

// PrefsWriter persists mode and level choices across restarts. A nil writer
// disables persistence without affecting command behaviour.
type PrefsWriter interface {
	Set(chatID string, mode state.Mode, level state.Level) error
}

// Handlers implements the bot commands against the conversation store.
type Handlers struct {
	States *state.Store
	Prefs  PrefsWriter
}

// RegisterAll wires every command into the router.
func (h *Handlers) RegisterAll(r *Router) {
	r.Register("start", h.Start)
	r.Register("help", h.Help)
	r.Register("mode", h.Mode)
	r.Register("level", h.Level)
	r.Register("clear", h.Clear)
}

// Start handles /start.
func (h *Handlers) Start(_ context.Context, _ *Command, chatID string) (string, error) {
	h.States.GetOrCreate(chatID)
	return welcomeText, nil
}

// Help handles /help.
func (h *Handlers) Help(context.Context, *Command, string) (string, error) {
	return helpText, nil
}

// Mode handles /mode. Without arguments it reports the current mode; with one
// it switches mode and starts a fresh conversation, since history built under
// another mode tends to bleed into the new one.
func (h *Handlers) Mode(_ context.Context, cmd *Command, chatID string) (string, error) {
	conv := h.States.GetOrCreate(chatID)

	if len(cmd.Args) == 0 {
		return fmt.Sprintf("📊 Current mode: %s\n\nTo change: /mode [mixed/conversation/grammar]", modeLabels[conv.Mode]), nil
	}

	m, ok := state.ParseMode(strings.ToLower(cmd.Args[0]))
	if !ok {
		return "Please use: /mode mixed, /mode conversation, or /mode grammar", nil
	}

	h.States.SetMode(chatID, m)
	h.States.Clear(chatID)
	h.persist(chatID, m, conv.Level)
	return fmt.Sprintf("✅ Mode changed to: %s\n\nConversation history cleared for a fresh start! 🚀", modeLabels[m]), nil
}

// Level handles /level.
func (h *Handlers) Level(_ context.Context, cmd *Command, chatID string) (string, error) {
	conv := h.States.GetOrCreate(chatID)

	if len(cmd.Args) == 0 {
		return fmt.Sprintf("📊 Your current level: %s\n\nTo change: /level [beginner/intermediate/advanced]", titleCase(string(conv.Level))), nil
	}

	l, ok := state.ParseLevel(strings.ToLower(cmd.Args[0]))
	if !ok {
		return "Please use: /level beginner, /level intermediate, or /level advanced", nil
	}

	h.States.SetLevel(chatID, l)
	h.persist(chatID, conv.Mode, l)
	return fmt.Sprintf("✅ Your level is now set to: %s! 📊", titleCase(string(l))), nil
}

// Clear handles /clear.
func (h *Handlers) Clear(_ context.Context, _ *Command, chatID string) (string, error) {
	h.States.Clear(chatID)
	return clearedText, nil
}

// persist writes preferences when a store is configured. Preference writes are
// best effort; a failure is logged and the command still succeeds.
func (h *Handlers) persist(chatID string, m state.Mode, l state.Level) {
	if h.Prefs == nil {
		return
	}
	if err := h.Prefs.Set(chatID, m, l); err != nil {
		slog.Warn("failed to persist chat preferences", "chat_id", chatID, "error", err)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
