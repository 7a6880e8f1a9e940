// Package commands provides command parsing and routing for Colin.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Command represents a parsed command.
type Command struct {
	Name    string
	Args    []string
	RawText string
}

// ErrNotACommand is returned by Parse when the message does not start with the
// command prefix. Callers should use errors.Is to distinguish this expected
// case from real errors.
var ErrNotACommand = errors.New("not a command (missing prefix)")

// ErrUnknownCommand is returned by Route for a well-formed command with no
// registered handler.
var ErrUnknownCommand = errors.New("unknown command")

// Handler is a function that handles a command.
type Handler func(ctx context.Context, cmd *Command, chatID string) (string, error)

// Router routes commands to handlers.
type Router struct {
	handlers map[string]Handler
	prefix   string
	botName  string
}

// NewRouter creates a new command router. botName, when non-empty, lets the
// router strip the "@botname" suffix Telegram appends to commands sent in
// group chats.
func NewRouter(prefix, botName string) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		prefix:   prefix,
		botName:  botName,
	}
}

// Register registers a command handler.
func (r *Router) Register(command string, handler Handler) {
	r.handlers[command] = handler
}

// Parse parses a message into a command.
func (r *Router) Parse(text string) (*Command, error) {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, r.prefix) {
		return nil, ErrNotACommand
	}

	// A bare prefix is still a command attempt; report it as unknown so the
	// caller answers with the help hint instead of staying silent.
	text = strings.TrimSpace(strings.TrimPrefix(text, r.prefix))
	if text == "" {
		return nil, fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}

	parts := strings.Fields(text)
	name := strings.ToLower(parts[0])

	// In groups Telegram sends "/mode@ColinBot"; drop the mention.
	if i := strings.Index(name, "@"); i >= 0 {
		mention := name[i+1:]
		if r.botName != "" && !strings.EqualFold(mention, r.botName) {
			return nil, ErrNotACommand
		}
		name = name[:i]
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}

	return &Command{
		Name:    name,
		Args:    parts[1:],
		RawText: text,
	}, nil
}

// Route parses text and dispatches it to the registered handler.
func (r *Router) Route(ctx context.Context, text, chatID string) (string, error) {
	cmd, err := r.Parse(text)
	if err != nil {
		return "", err
	}
	handler, ok := r.handlers[cmd.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
	return handler(ctx, cmd, chatID)
}
