// Package generate implements the remote text-generation client.
//
// The backend is an uncontrolled HuggingFace Space (or compatible) deployment
// whose exact API surface is unknown at configuration time, so the client
// works through an ordered list of endpoint/payload candidates and accepts
// the first one that yields a non-empty reply. Every failure mode (refused
// connection, timeout, non-200 status, unextractable body) is treated the
// same way: log, move to the next candidate. Exhaustion is reported as
// ErrExhausted, never as a panic or a partial result.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// defaultAttemptTimeout bounds one candidate attempt. Kept short so the
	// worst case (timeout × candidate count) stays well under the chat
	// transport's delivery window.
	defaultAttemptTimeout = 6 * time.Second

	defaultUserAgent = "Colin-Bot/1.0"

	// maxResponseBody caps how much of a backend reply is read.
	maxResponseBody = 1 << 20
)

// ErrNotConfigured is returned by Generate when no backend base URL is set.
var ErrNotConfigured = errors.New("generate: no backend configured")

// ErrExhausted is returned by Generate when every candidate failed or
// produced an empty reply.
var ErrExhausted = errors.New("generate: all candidates failed")

// Params shape one generation request.
type Params struct {
	// MaxLength is the requested completion length in tokens.
	MaxLength int
	// Temperature is the sampling temperature.
	Temperature float64
}

// DefaultParams returns the baseline request parameters.
func DefaultParams() Params {
	return Params{MaxLength: 80, Temperature: 0.7}
}

// Config configures the Client.
type Config struct {
	// BaseURL is the backend root, e.g. "https://user-space.hf.space".
	// Empty means no backend: Generate returns ErrNotConfigured immediately.
	BaseURL string

	// APIKey, when non-empty, is sent as a bearer token on every attempt.
	APIKey string

	// Candidates is the ordered attempt list. Defaults to DefaultCandidates.
	Candidates []Candidate

	// AttemptTimeout is the per-candidate timeout for candidates that do not
	// carry their own. Defaults to 6s.
	AttemptTimeout time.Duration

	// UserAgent overrides the HTTP User-Agent header.
	UserAgent string
}

// Client tries generation candidates against the backend in order.
// It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a Client for cfg, applying defaults for unset fields.
func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = DefaultCandidates()
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{
		cfg: cfg,
		// Per-attempt deadlines come from the request context; no client-wide
		// timeout on top of them.
		http: &http.Client{},
	}
}

// Generate posts the prompt to each candidate in turn and returns the first
// non-empty extracted reply. The error is ErrNotConfigured, ErrExhausted, or
// a context error when ctx is cancelled mid-chain; transport and protocol
// failures on individual candidates never surface to the caller.
func (c *Client) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if c.cfg.BaseURL == "" {
		return "", ErrNotConfigured
	}
	if p.MaxLength <= 0 {
		p = DefaultParams()
	}

	for _, cand := range c.cfg.Candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := c.attempt(ctx, cand, prompt, p)
		if err != nil {
			slog.Debug("generate: candidate failed",
				"endpoint", cand.Endpoint, "shape", cand.Shape, "err", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			slog.Debug("generate: candidate succeeded",
				"endpoint", cand.Endpoint, "shape", cand.Shape)
			return text, nil
		}
	}
	return "", ErrExhausted
}

// attempt issues a single POST against one candidate.
func (c *Client) attempt(ctx context.Context, cand Candidate, prompt string, p Params) (string, error) {
	body, err := payload(cand.Shape, prompt, p)
	if err != nil {
		return "", err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, cand.Timeout(c.cfg.AttemptTimeout))
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost,
		c.cfg.BaseURL+cand.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw[:min(len(raw), 200)])))
	}

	text, ok := extract(raw)
	if !ok {
		return "", fmt.Errorf("unextractable body: %.120s", string(raw))
	}
	return text, nil
}

// payload renders the request body for one shape.
func payload(shape Shape, prompt string, p Params) ([]byte, error) {
	var body any
	switch shape {
	case ShapeData:
		body = map[string]any{"data": []any{prompt, p.MaxLength, p.Temperature}}
	case ShapeInputs:
		body = map[string]any{
			"inputs": prompt,
			"parameters": map[string]any{
				"max_new_tokens": p.MaxLength,
				"temperature":    p.Temperature,
			},
		}
	case ShapePrompt:
		body = map[string]any{"prompt": prompt, "max_length": p.MaxLength, "temperature": p.Temperature}
	case ShapeText:
		body = map[string]any{"text": prompt}
	case ShapeMessage:
		body = map[string]any{"message": prompt}
	default:
		return nil, fmt.Errorf("unknown payload shape %q", shape)
	}
	return json.Marshal(body)
}

// extract pulls the reply text out of a backend response body.
//
// Priority order for JSON bodies: first element of a "data" array, then
// "output", "generated_text", and "response" fields. A JSON body that parses
// but yields none of these is a protocol failure (ok=false) so the caller
// moves on to the next candidate. A body that is not JSON at all is taken
// verbatim as plain text.
func extract(raw []byte) (string, bool) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return string(raw), true
	}

	switch v := doc.(type) {
	case string:
		return v, true
	case []any:
		// Top-level array (HF inference style): treat like a data array.
		return firstElementText(v)
	case map[string]any:
		if arr, ok := v["data"].([]any); ok {
			return firstElementText(arr)
		}
		for _, key := range []string{"output", "generated_text", "response"} {
			if s, ok := v[key].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// firstElementText interprets the first element of a result array: either a
// bare string or an object carrying the text under a known field.
func firstElementText(arr []any) (string, bool) {
	if len(arr) == 0 {
		return "", false
	}
	switch el := arr[0].(type) {
	case string:
		return el, true
	case map[string]any:
		for _, key := range []string{"response", "generated_text", "output", "text"} {
			if s, ok := el[key].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}
