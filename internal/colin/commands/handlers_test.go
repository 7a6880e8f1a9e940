package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/colinbot/colin/internal/colin/state"
)

type recordingPrefs struct {
	chatID string
	mode   state.Mode
	level  state.Level
	err    error
	calls  int
}

func (p *recordingPrefs) Set(chatID string, m state.Mode, l state.Level) error {
	p.calls++
	p.chatID, p.mode, p.level = chatID, m, l
	return p.err
}

func newTestRouter(prefs PrefsWriter) (*Router, *state.Store) {
	states := state.NewStore(state.DefaultConfig())
	h := &Handlers{States: states, Prefs: prefs}
	r := NewRouter("/", "ColinBot")
	h.RegisterAll(r)
	return r, states
}

func TestStartAndHelp(t *testing.T) {
	r, states := newTestRouter(nil)
	ctx := context.Background()

	reply, err := r.Route(ctx, "/start", "chat-1")
	if err != nil {
		t.Fatalf("/start error = %v", err)
	}
	if !strings.Contains(reply, "Colin") {
		t.Errorf("/start reply %q does not introduce the bot", reply)
	}
	if states.Count() != 1 {
		t.Errorf("conversations = %d, want 1 after /start", states.Count())
	}

	reply, err = r.Route(ctx, "/help", "chat-1")
	if err != nil {
		t.Fatalf("/help error = %v", err)
	}
	for _, cmd := range []string{"/start", "/help", "/mode", "/level", "/clear"} {
		if !strings.Contains(reply, cmd) {
			t.Errorf("/help reply missing %s", cmd)
		}
	}
}

func TestModeCommand(t *testing.T) {
	prefs := &recordingPrefs{}
	r, states := newTestRouter(prefs)
	ctx := context.Background()

	// No argument reports the current mode.
	reply, err := r.Route(ctx, "/mode", "chat-1")
	if err != nil {
		t.Fatalf("/mode error = %v", err)
	}
	if !strings.Contains(reply, "Mixed") {
		t.Errorf("/mode reply %q missing default mode", reply)
	}
	if prefs.calls != 0 {
		t.Errorf("prefs written on read-only /mode")
	}

	// Switching mode resets the conversation.
	states.AppendTurn("chat-1", state.RoleUser, "some history")
	reply, err = r.Route(ctx, "/mode grammar", "chat-1")
	if err != nil {
		t.Fatalf("/mode grammar error = %v", err)
	}
	if !strings.Contains(reply, "Grammar") {
		t.Errorf("/mode grammar reply = %q", reply)
	}

	conv := states.GetOrCreate("chat-1")
	if conv.Mode != state.ModeGrammar {
		t.Errorf("mode = %q, want grammar", conv.Mode)
	}
	if len(conv.History) != 0 {
		t.Errorf("history not cleared on mode change: %v", conv.History)
	}
	if prefs.calls != 1 || prefs.mode != state.ModeGrammar {
		t.Errorf("prefs = %+v, want one write with grammar", prefs)
	}

	// Invalid argument leaves everything untouched.
	reply, err = r.Route(ctx, "/mode turbo", "chat-1")
	if err != nil {
		t.Fatalf("/mode turbo error = %v", err)
	}
	if !strings.Contains(reply, "/mode mixed") {
		t.Errorf("/mode turbo reply %q missing usage hint", reply)
	}
	if got := states.GetOrCreate("chat-1").Mode; got != state.ModeGrammar {
		t.Errorf("mode = %q after invalid argument, want grammar", got)
	}
}

func TestLevelCommand(t *testing.T) {
	prefs := &recordingPrefs{}
	r, states := newTestRouter(prefs)
	ctx := context.Background()

	reply, err := r.Route(ctx, "/level", "chat-1")
	if err != nil {
		t.Fatalf("/level error = %v", err)
	}
	if !strings.Contains(reply, "Beginner") {
		t.Errorf("/level reply %q missing default level", reply)
	}

	reply, err = r.Route(ctx, "/level advanced", "chat-1")
	if err != nil {
		t.Fatalf("/level advanced error = %v", err)
	}
	if !strings.Contains(reply, "Advanced") {
		t.Errorf("/level advanced reply = %q", reply)
	}
	if got := states.GetOrCreate("chat-1").Level; got != state.LevelAdvanced {
		t.Errorf("level = %q, want advanced", got)
	}
	if prefs.level != state.LevelAdvanced {
		t.Errorf("prefs level = %q, want advanced", prefs.level)
	}

	reply, err = r.Route(ctx, "/level wizard", "chat-1")
	if err != nil {
		t.Fatalf("/level wizard error = %v", err)
	}
	if !strings.Contains(reply, "/level beginner") {
		t.Errorf("/level wizard reply %q missing usage hint", reply)
	}
}

func TestClearCommand(t *testing.T) {
	r, states := newTestRouter(nil)
	ctx := context.Background()

	states.AppendTurn("chat-1", state.RoleUser, "hello there")
	before := states.GetOrCreate("chat-1")

	reply, err := r.Route(ctx, "/clear", "chat-1")
	if err != nil {
		t.Fatalf("/clear error = %v", err)
	}
	if !strings.Contains(reply, "cleared") {
		t.Errorf("/clear reply = %q", reply)
	}

	after := states.GetOrCreate("chat-1")
	if len(after.History) != 0 || after.TurnCount != 0 {
		t.Errorf("conversation not reset: %+v", after)
	}
	if after.ID == before.ID {
		t.Error("session ID unchanged after /clear")
	}
}

// A failing preference store must not fail the command.
func TestPrefsErrorIsSwallowed(t *testing.T) {
	prefs := &recordingPrefs{err: errors.New("disk full")}
	r, _ := newTestRouter(prefs)

	if _, err := r.Route(context.Background(), "/level advanced", "chat-1"); err != nil {
		t.Fatalf("/level advanced error = %v, want nil despite prefs failure", err)
	}
}
