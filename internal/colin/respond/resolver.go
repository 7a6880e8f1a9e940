package respond

import (
	"context"
	"log/slog"

	"github.com/colinbot/colin/common/redact"
	"github.com/colinbot/colin/common/trace"
	"github.com/colinbot/colin/internal/colin/generate"
	"github.com/colinbot/colin/internal/colin/prompt"
	"github.com/colinbot/colin/internal/colin/state"
)

// recoveryReply is returned when reply resolution panics. It must never be
// empty; an empty reply would stall the chat.
const recoveryReply = "I'm having a small technical issue, but I'm still here to help you! 🤖 Try sending your message again!"

// Generator produces backend text for a fully built prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, p generate.Params) (string, error)
}

// Limiter gates backend calls per chat. A false return skips the backend
// without consuming an attempt elsewhere.
type Limiter interface {
	Allow(key string) bool
}

// Resolver turns an incoming utterance into exactly one reply. The backend
// path is preferred; the fallback responder guarantees a reply when the
// backend is unavailable, rate limited, or produces unusable text.
type Resolver struct {
	states  *state.Store
	gen     Generator
	fall    *Responder
	limiter Limiter
}

// NewResolver wires a resolver. gen and limiter may be nil; a nil generator
// sends every utterance down the fallback path.
func NewResolver(states *state.Store, gen Generator, fall *Responder, limiter Limiter) *Resolver {
	return &Resolver{states: states, gen: gen, fall: fall, limiter: limiter}
}

// Resolve records the utterance, attempts backend generation, validates and
// cleans the result, and falls back locally when any step fails. The returned
// reply is always non-empty and is recorded as the assistant turn.
func (r *Resolver) Resolve(ctx context.Context, chatID, utterance string) (reply string) {
	log := slog.With("trace_id", trace.FromContext(ctx), "chat_id", chatID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("reply resolution panicked", "panic", rec)
			reply = recoveryReply
			r.states.AppendTurn(chatID, state.RoleAssistant, reply)
		}
	}()

	// The prompt renders its history window from state as it was before this
	// utterance; the new utterance gets its own segment in the prompt.
	prior := r.states.GetOrCreate(chatID)
	conv := r.states.AppendTurn(chatID, state.RoleUser, utterance)

	if text, ok := r.generated(ctx, log, utterance, prior, conv); ok {
		reply = text
	} else {
		reply = r.fall.Reply(utterance, conv)
		log.Debug("using fallback reply", "category_input", redact.Snippet(utterance, 40))
	}

	r.states.AppendTurn(chatID, state.RoleAssistant, reply)
	return reply
}

// generated runs the backend path. prior is the conversation before the
// current user turn was recorded, so the prompt's history window does not
// repeat the utterance. The second return is false whenever the backend
// produced nothing usable.
func (r *Resolver) generated(ctx context.Context, log *slog.Logger, utterance string, prior, conv state.Conversation) (string, bool) {
	if r.gen == nil {
		return "", false
	}
	if r.limiter != nil && !r.limiter.Allow(conv.ChatID) {
		log.Info("backend call rate limited")
		return "", false
	}

	p := prompt.Build(utterance, prior)
	params := RequestParams(utterance)

	raw, err := r.gen.Generate(ctx, p, params)
	if err != nil {
		log.Warn("backend generation failed", "error", err)
		return "", false
	}

	text := Clean(raw)
	if !IsAcceptable(text, utterance) {
		log.Info("backend reply rejected", "reply", redact.Snippet(text, 60))
		return "", false
	}
	return text, true
}

// RequestParams shapes generation parameters from the utterance: questions
// get longer, warmer answers; greetings get short, conservative ones.
func RequestParams(utterance string) generate.Params {
	switch {
	case IsQuestion(utterance):
		return generate.Params{MaxLength: 120, Temperature: 0.8}
	case IsGreeting(utterance):
		return generate.Params{MaxLength: 40, Temperature: 0.5}
	}
	return generate.DefaultParams()
}
