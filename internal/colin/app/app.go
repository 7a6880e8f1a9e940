// Package app wires the Colin bot together: Telegram long polling, per-chat
// workers, command routing, and the reply resolution pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/colinbot/colin/common/redact"
	"github.com/colinbot/colin/common/trace"
	"github.com/colinbot/colin/internal/colin/commands"
	"github.com/colinbot/colin/internal/colin/generate"
	"github.com/colinbot/colin/internal/colin/prefs"
	"github.com/colinbot/colin/internal/colin/respond"
	"github.com/colinbot/colin/internal/colin/state"
	"github.com/colinbot/colin/internal/colin/telegram"
)

// Config holds application configuration.
type Config struct {
	// Token is the Telegram bot token. Required.
	Token string

	// TelegramBaseURL overrides the Bot API endpoint, mainly for tests.
	TelegramBaseURL string

	// BackendURL is the text-generation backend root. Empty disables the
	// backend; every reply comes from the fallback responder.
	BackendURL string

	// BackendAPIKey, when non-empty, is sent as a bearer token to the backend.
	BackendAPIKey string

	// CandidatesPath points to an optional YAML file overriding the built-in
	// endpoint candidate list.
	CandidatesPath string

	// DatabasePath is the SQLite file for persisted chat preferences.
	// Empty disables persistence.
	DatabasePath string

	// HTTPAddr is the TCP address for the health/status HTTP server
	// (e.g. ":8080"). When empty the server is disabled.
	HTTPAddr string

	// PollTimeout is the long-poll duration for getUpdates. Defaults to 30s.
	PollTimeout time.Duration

	// AttemptTimeout is the per-candidate backend timeout.
	AttemptTimeout time.Duration

	// RateLimit is the maximum backend calls per chat per minute.
	// Defaults to generate.DefaultRateLimit.
	RateLimit int
}

// job is one unit of per-chat work.
type job struct {
	update telegram.Update
}

// App is the running bot.
type App struct {
	config  Config
	tg      *telegram.Client
	states  *state.Store
	prefs   *prefs.Store
	router  *commands.Router
	resolve *respond.Resolver
	health  *HealthServer

	mu      sync.Mutex
	workers map[int64]chan job
	wg      sync.WaitGroup
}

// New builds an App from the configuration. It verifies the Telegram token
// with getMe before returning.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token is required")
	}

	tg := telegram.New(nil, cfg.TelegramBaseURL, cfg.Token)
	me, err := tg.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify bot token: %w", err)
	}
	slog.Info("telegram identity verified", "username", me.Username, "id", me.ID)

	states := state.NewStore(state.DefaultConfig())

	var prefStore *prefs.Store
	if cfg.DatabasePath != "" {
		prefStore, err = prefs.Open(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open preferences database: %w", err)
		}
	}

	var gen respond.Generator
	if cfg.BackendURL != "" {
		candidates := generate.DefaultCandidates()
		if cfg.CandidatesPath != "" {
			candidates, err = generate.LoadCandidates(cfg.CandidatesPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load candidates config: %w", err)
			}
		}
		gen = generate.New(generate.Config{
			BaseURL:        cfg.BackendURL,
			APIKey:         cfg.BackendAPIKey,
			Candidates:     candidates,
			AttemptTimeout: cfg.AttemptTimeout,
		})
	} else {
		slog.Warn("no backend configured; replies use the fallback responder only")
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = generate.DefaultRateLimit
	}
	limiter := generate.NewRateLimiter(limit, time.Minute)

	resolver := respond.NewResolver(states, gen, respond.NewResponder(nil), limiter)

	router := commands.NewRouter("/", me.Username)
	var pw commands.PrefsWriter
	if prefStore != nil {
		pw = prefStore
	}
	handlers := &commands.Handlers{States: states, Prefs: pw}
	handlers.RegisterAll(router)

	a := &App{
		config:  cfg,
		tg:      tg,
		states:  states,
		prefs:   prefStore,
		router:  router,
		resolve: resolver,
		workers: make(map[int64]chan job),
	}
	if cfg.HTTPAddr != "" {
		a.health = NewHealthServer(cfg.HTTPAddr, states, healthFlags{
			tokenConfigured:   cfg.Token != "",
			backendConfigured: cfg.BackendURL != "",
		})
	}
	return a, nil
}

// Run polls Telegram until ctx is cancelled, then drains the per-chat workers.
func (a *App) Run(ctx context.Context) error {
	if a.health != nil {
		if err := a.health.Start(ctx); err != nil {
			slog.Warn("health server failed to start; continuing without it", "err", err)
		}
	}

	pollTimeout := a.config.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	slog.Info("starting telegram long polling", "timeout", pollTimeout)

	var offset int64
	for {
		if ctx.Err() != nil {
			break
		}

		updates, next, err := a.tg.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if telegram.IsPollTimeout(err) {
				continue
			}
			slog.Warn("getUpdates failed", "err", redact.String(err.Error(), a.config.Token))
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			a.dispatch(ctx, u)
		}
	}

	a.closeWorkers()
	a.wg.Wait()
	return nil
}

// Stop releases held resources. Call after Run returns.
func (a *App) Stop() {
	if a.health != nil {
		slog.Info("stopping health server")
		a.health.Stop()
	}
	if a.prefs != nil {
		slog.Info("closing preferences database")
		if err := a.prefs.Close(); err != nil {
			slog.Warn("failed to close preferences database", "err", err)
		}
	}
}

// dispatch hands the update to the chat's worker, creating it on first
// contact. One goroutine per chat keeps replies in the same chat ordered
// while chats stay independent.
func (a *App) dispatch(ctx context.Context, u telegram.Update) {
	msg := u.TextMessage()
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.From != nil && msg.From.IsBot {
		return
	}

	a.mu.Lock()
	ch, ok := a.workers[msg.Chat.ID]
	if !ok {
		ch = make(chan job, 16)
		a.workers[msg.Chat.ID] = ch
		a.wg.Add(1)
		go a.worker(ctx, ch)
	}
	a.mu.Unlock()

	select {
	case ch <- job{update: u}:
	default:
		slog.Warn("chat worker queue full, dropping update", "chat_id", msg.Chat.ID)
	}
}

func (a *App) worker(ctx context.Context, ch chan job) {
	defer a.wg.Done()
	for j := range ch {
		a.handle(ctx, j.update)
	}
}

func (a *App) closeWorkers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, ch := range a.workers {
		close(ch)
		delete(a.workers, id)
	}
}

// handle processes one text update end to end: command or conversation.
func (a *App) handle(ctx context.Context, u telegram.Update) {
	msg := u.TextMessage()
	ctx = trace.WithTraceID(ctx, trace.GenerateID())
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	log := slog.With("trace_id", trace.FromContext(ctx), "chat_id", chatID)

	a.seedPrefs(chatID)

	if reply, err := a.router.Route(ctx, msg.Text, chatID); err == nil {
		a.send(ctx, log, msg.Chat.ID, reply)
		return
	} else if !errors.Is(err, commands.ErrNotACommand) {
		if errors.Is(err, commands.ErrUnknownCommand) {
			a.send(ctx, log, msg.Chat.ID, "I don't know that command. Type /help to see what I can do! 🤖")
			return
		}
		log.Warn("command failed", "err", err)
		return
	}

	// Regular conversation. The typing indicator is cosmetic; ignore errors.
	_ = a.tg.SendChatAction(ctx, msg.Chat.ID, "typing")

	reply := a.resolve.Resolve(ctx, chatID, msg.Text)
	a.send(ctx, log, msg.Chat.ID, reply)
}

func (a *App) send(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	if err := a.tg.SendMessage(ctx, chatID, text); err != nil {
		log.Error("failed to send message", "err", err)
	}
}

// seedPrefs applies persisted mode and level the first time a chat shows up
// after a restart.
func (a *App) seedPrefs(chatID string) {
	if a.prefs == nil {
		return
	}
	if _, known := a.states.Lookup(chatID); known {
		return
	}
	p, err := a.prefs.Get(chatID)
	if err != nil {
		if !errors.Is(err, prefs.ErrNotFound) {
			slog.Warn("failed to read persisted preferences", "chat_id", chatID, "err", err)
		}
		return
	}
	a.states.SetMode(chatID, p.Mode)
	a.states.SetLevel(chatID, p.Level)
}
