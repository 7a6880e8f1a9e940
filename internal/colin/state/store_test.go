package state

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_CreatesWithDefaults(t *testing.T) {
	s := NewStore(DefaultConfig())

	c := s.GetOrCreate("chat-1")
	if c.Mode != ModeMixed {
		t.Errorf("default mode: got %q, want %q", c.Mode, ModeMixed)
	}
	if c.Level != LevelBeginner {
		t.Errorf("default level: got %q, want %q", c.Level, LevelBeginner)
	}
	if c.ID == "" {
		t.Error("expected non-empty session ID")
	}
	if len(c.History) != 0 || c.TurnCount != 0 {
		t.Errorf("fresh conversation should be empty, got %d turns, count %d", len(c.History), c.TurnCount)
	}
}

func TestStore_HistoryCapInvariant(t *testing.T) {
	s := NewStore(Config{HistoryCap: 20, HistoryKeep: 10})

	var last Conversation
	for i := 0; i < 100; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		last = s.AppendTurn("chat-1", role, fmt.Sprintf("message %d", i))

		if len(last.History) > 20 {
			t.Fatalf("after %d appends history length %d exceeds cap", i+1, len(last.History))
		}
	}

	// The retained entries must be a suffix of the appended sequence in the
	// original relative order.
	n := len(last.History)
	for j, turn := range last.History {
		want := fmt.Sprintf("message %d", 100-n+j)
		if turn.Content != want {
			t.Errorf("history[%d]: got %q, want %q", j, turn.Content, want)
		}
	}
}

func TestStore_TruncatesToKeep(t *testing.T) {
	s := NewStore(Config{HistoryCap: 20, HistoryKeep: 10})

	var c Conversation
	for i := 0; i < 21; i++ {
		c = s.AppendTurn("chat-1", RoleUser, fmt.Sprintf("m%d", i))
	}
	// The 21st append crosses the cap, so the buffer drops to the 10 newest.
	if len(c.History) != 10 {
		t.Fatalf("expected 10 entries after truncation, got %d", len(c.History))
	}
	if c.History[0].Content != "m11" {
		t.Errorf("oldest retained entry: got %q, want %q", c.History[0].Content, "m11")
	}
	if c.History[9].Content != "m20" {
		t.Errorf("newest retained entry: got %q, want %q", c.History[9].Content, "m20")
	}
}

func TestStore_ClearPreservesModeAndLevel(t *testing.T) {
	s := NewStore(DefaultConfig())
	s.SetMode("chat-1", ModeGrammar)
	s.SetLevel("chat-1", LevelAdvanced)
	s.AppendTurn("chat-1", RoleUser, "i like football")
	s.AppendTurn("chat-1", RoleAssistant, "Great!")

	before := s.GetOrCreate("chat-1")
	if before.TurnCount != 1 || len(before.History) != 2 {
		t.Fatalf("setup: unexpected state %+v", before)
	}

	s.Clear("chat-1")
	after := s.GetOrCreate("chat-1")

	if len(after.History) != 0 {
		t.Errorf("history should be empty after clear, got %d entries", len(after.History))
	}
	if after.TurnCount != 0 {
		t.Errorf("turn count should reset, got %d", after.TurnCount)
	}
	if len(after.Interests) != 0 {
		t.Errorf("interests should reset, got %v", after.Interests)
	}
	if after.Mode != ModeGrammar {
		t.Errorf("mode should survive clear: got %q", after.Mode)
	}
	if after.Level != LevelAdvanced {
		t.Errorf("level should survive clear: got %q", after.Level)
	}
	if after.ID == before.ID {
		t.Error("clear should assign a fresh session ID")
	}
}

func TestStore_ClearUnknownChatIsNoop(t *testing.T) {
	s := NewStore(DefaultConfig())
	s.Clear("never-seen")
	if s.Count() != 0 {
		t.Errorf("clear must not create conversations, count=%d", s.Count())
	}
}

func TestStore_InterestDetection(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"single topic", "I watched a movie yesterday", []string{"movies"}},
		{"two topics", "we ate great food on our trip", []string{"food", "travel"}},
		{"whole words only", "this is nothing", nil},
		{"punctuation stripped", "I love football!", []string{"sports"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(DefaultConfig())
			c := s.AppendTurn("chat-1", RoleUser, tt.message)
			if len(c.Interests) != len(tt.want) {
				t.Fatalf("interests: got %v, want %v", c.Interests, tt.want)
			}
			for i := range tt.want {
				if c.Interests[i] != tt.want[i] {
					t.Errorf("interests: got %v, want %v", c.Interests, tt.want)
				}
			}
		})
	}
}

func TestStore_InterestsGrowMonotonically(t *testing.T) {
	s := NewStore(DefaultConfig())
	s.AppendTurn("chat-1", RoleUser, "I like music")
	c := s.AppendTurn("chat-1", RoleUser, "and computer games")

	if len(c.Interests) != 2 {
		t.Fatalf("expected 2 interests, got %v", c.Interests)
	}
	// Assistant turns never change interests or the turn count.
	c = s.AppendTurn("chat-1", RoleAssistant, "sushi restaurant recipe")
	if len(c.Interests) != 2 {
		t.Errorf("assistant turn must not add interests, got %v", c.Interests)
	}
	if c.TurnCount != 2 {
		t.Errorf("assistant turn must not bump turn count, got %d", c.TurnCount)
	}
}

func TestStore_ModeIsolation(t *testing.T) {
	s := NewStore(DefaultConfig())
	s.SetLevel("chat-1", LevelIntermediate)
	s.AppendTurn("chat-1", RoleUser, "tell me about travel")

	s.SetMode("chat-1", ModeGrammar)
	c := s.GetOrCreate("chat-1")

	if c.Mode != ModeGrammar {
		t.Errorf("mode: got %q, want %q", c.Mode, ModeGrammar)
	}
	if c.Level != LevelIntermediate {
		t.Errorf("SetMode must not touch level, got %q", c.Level)
	}
	if len(c.Interests) != 1 || c.Interests[0] != "travel" {
		t.Errorf("SetMode must not touch interests, got %v", c.Interests)
	}
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := NewStore(DefaultConfig())
	c := s.AppendTurn("chat-1", RoleUser, "hello there")

	c.History[0].Content = "mutated"
	c.Mode = ModeGrammar

	fresh := s.GetOrCreate("chat-1")
	if fresh.History[0].Content != "hello there" {
		t.Error("mutating a snapshot must not affect the store")
	}
	if fresh.Mode != ModeMixed {
		t.Error("mutating a snapshot must not change the stored mode")
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore(Config{HistoryCap: 20, HistoryKeep: 10})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				chat := fmt.Sprintf("chat-%d", g%4)
				s.AppendTurn(chat, RoleUser, "ping")
			}
		}(g)
	}
	wg.Wait()

	if s.Count() != 4 {
		t.Errorf("expected 4 conversations, got %d", s.Count())
	}
	for g := 0; g < 4; g++ {
		c := s.GetOrCreate(fmt.Sprintf("chat-%d", g))
		if len(c.History) > 20 {
			t.Errorf("chat-%d: history %d exceeds cap under concurrency", g, len(c.History))
		}
	}
}
