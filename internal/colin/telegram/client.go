// Package telegram is a minimal Bot API client: long polling via getUpdates
// plus the handful of outbound calls the bot needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/colinbot/colin/common/redact"
	"github.com/colinbot/colin/common/retry"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API. The token is part of every request
// URL, so errors pass through redact before they can reach a log line.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// New creates a Client. A nil httpClient gets a 60s-timeout default, long
// enough for poll requests to return on their own.
func New(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// GetMe returns the bot's own identity, which doubles as the startup token
// check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	raw, err := c.get(ctx, c.methodURL("getMe"))
	if err != nil {
		return nil, err
	}
	var out getMeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram getMe: ok=false")
	}
	return &out.Result, nil
}

// GetUpdates long-polls for updates after offset and returns them together
// with the next offset to poll from.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	url := fmt.Sprintf("%s?timeout=%d", c.methodURL("getUpdates"), secs)
	if offset > 0 {
		url += fmt.Sprintf("&offset=%d", offset)
	}

	// The server holds the request open for up to timeout; allow slack on top.
	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	raw, err := c.get(reqCtx, url)
	if err != nil {
		return nil, offset, err
	}

	var out getUpdatesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, offset, fmt.Errorf("telegram getUpdates: %w", err)
	}
	if !out.OK {
		return nil, offset, fmt.Errorf("telegram getUpdates: ok=false")
	}

	next := offset
	for _, u := range out.Result {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return out.Result, next, nil
}

// SendMessage delivers text to a chat, retrying transient failures.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	cfg := retry.Config{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
	return retry.Do(ctx, cfg, func() error {
		return c.post(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
	})
}

// SendChatAction shows a transient status like "typing" in the chat. Failures
// are cosmetic, so there is no retry.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.post(ctx, "sendChatAction", sendChatActionRequest{ChatID: chatID, Action: action})
}

// IsPollTimeout reports whether err is the expected timeout of an idle
// getUpdates poll rather than a real failure.
func IsPollTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.redactErr(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.redactErr(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

func (c *Client) post(ctx context.Context, method string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(payload))
	if err != nil {
		return c.redactErr(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.redactErr(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram %s http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out okResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram %s: %d %s", method, out.ErrorCode, out.Description)
	}
	return nil
}

// redactErr keeps the bot token out of transport errors, which embed the full
// request URL.
func (c *Client) redactErr(err error) error {
	return errors.New(redact.String(err.Error(), c.token))
}
