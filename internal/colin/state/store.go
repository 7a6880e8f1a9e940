package state

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for the Store.
type Config struct {
	// HistoryCap is the maximum history length. When an append would exceed
	// it, the history is truncated down to HistoryKeep entries, oldest first.
	// Default: 20.
	HistoryCap int

	// HistoryKeep is the number of most-recent turns retained after a
	// truncation. Default: 10.
	HistoryKeep int
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{HistoryCap: 20, HistoryKeep: 10}
}

// Store holds all conversations, keyed by chat identifier.
// It is safe for concurrent use: every mutating operation applies fully
// before another caller's begins.
type Store struct {
	mu     sync.Mutex
	config Config
	convos map[string]*Conversation
}

// NewStore creates a Store with the given configuration.
func NewStore(cfg Config) *Store {
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = DefaultConfig().HistoryCap
	}
	if cfg.HistoryKeep <= 0 || cfg.HistoryKeep > cfg.HistoryCap {
		cfg.HistoryKeep = DefaultConfig().HistoryKeep
		if cfg.HistoryKeep > cfg.HistoryCap {
			cfg.HistoryKeep = cfg.HistoryCap
		}
	}
	return &Store{
		config: cfg,
		convos: make(map[string]*Conversation),
	}
}

// GetOrCreate returns a snapshot of the conversation for chatID, creating it
// with defaults (mode=mixed, level=beginner) on first contact.
func (s *Store) GetOrCreate(chatID string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.getOrCreateLocked(chatID))
}

// AppendTurn records one turn and returns a snapshot of the conversation
// after the append. User turns additionally bump TurnCount and update the
// interest tags derived from the message text. The history cap is enforced
// on every call.
func (s *Store) AppendTurn(chatID string, role Role, content string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreateLocked(chatID)
	now := time.Now()

	c.History = append(c.History, Turn{Role: role, Content: content, Timestamp: now})
	c.LastMsgAt = now
	if role == RoleUser {
		c.TurnCount++
		c.Interests = mergeInterests(c.Interests, content)
	}

	// Cap policy: let the buffer grow to HistoryCap, then cut down to the
	// most recent HistoryKeep entries in one step.
	if len(c.History) > s.config.HistoryCap {
		c.History = append([]Turn(nil), c.History[len(c.History)-s.config.HistoryKeep:]...)
	}

	return snapshot(c)
}

// Clear resets the conversation for chatID: history, turn count, and
// interests are dropped and a fresh session ID is assigned. Mode and level
// are preserved. Clearing an unknown chat is a no-op.
func (s *Store) Clear(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convos[chatID]
	if !ok {
		return
	}
	c.ID = uuid.New().String()
	c.History = nil
	c.Interests = nil
	c.TurnCount = 0
	c.StartedAt = time.Now()
}

// SetMode changes the conversation mode, creating the conversation if needed.
func (s *Store) SetMode(chatID string, m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(chatID).Mode = m
}

// SetLevel changes the learner level, creating the conversation if needed.
func (s *Store) SetLevel(chatID string, l Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(chatID).Level = l
}

// Lookup returns a snapshot of the conversation for chatID without creating
// it. The second return reports whether the chat is known.
func (s *Store) Lookup(chatID string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convos[chatID]
	if !ok {
		return Conversation{}, false
	}
	return snapshot(c), true
}

// Count returns the number of conversations currently held.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convos)
}

// getOrCreateLocked returns the live conversation for chatID. Must be called
// with mu held.
func (s *Store) getOrCreateLocked(chatID string) *Conversation {
	if c, ok := s.convos[chatID]; ok {
		return c
	}
	now := time.Now()
	c := &Conversation{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Mode:      ModeMixed,
		Level:     LevelBeginner,
		StartedAt: now,
		LastMsgAt: now,
	}
	s.convos[chatID] = c
	return c
}

// snapshot returns a deep copy so callers can read without holding the lock.
func snapshot(c *Conversation) Conversation {
	cp := *c
	cp.History = append([]Turn(nil), c.History...)
	cp.Interests = append([]string(nil), c.Interests...)
	return cp
}

// mergeInterests adds any topic tags triggered by content that are not
// already present. Matching is on whole words so that "this" does not light
// up short keywords like "hi" elsewhere in the system.
func mergeInterests(existing []string, content string) []string {
	words := tokenize(content)
	if len(words) == 0 {
		return existing
	}

	have := make(map[string]bool, len(existing))
	for _, tag := range existing {
		have[tag] = true
	}

	var added bool
	for tag, keywords := range interestKeywords {
		if have[tag] {
			continue
		}
		for _, kw := range keywords {
			if words[kw] {
				existing = append(existing, tag)
				have[tag] = true
				added = true
				break
			}
		}
	}
	if added {
		sort.Strings(existing)
	}
	return existing
}

// tokenize lowercases content and splits it into a word set, stripping
// surrounding punctuation from each token.
func tokenize(content string) map[string]bool {
	fields := strings.Fields(strings.ToLower(content))
	words := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"()")
		if f != "" {
			words[f] = true
		}
	}
	return words
}
