package commands

import (
	"context"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	r := NewRouter("/", "ColinBot")

	tests := []struct {
		name     string
		text     string
		wantName string
		wantArgs []string
		wantErr  error
	}{
		{name: "simple", text: "/start", wantName: "start"},
		{name: "with args", text: "/level intermediate", wantName: "level", wantArgs: []string{"intermediate"}},
		{name: "upper case name", text: "/HELP", wantName: "help"},
		{name: "surrounding space", text: "  /clear  ", wantName: "clear"},
		{name: "group mention", text: "/mode@ColinBot grammar", wantName: "mode", wantArgs: []string{"grammar"}},
		{name: "mention case insensitive", text: "/mode@colinbot", wantName: "mode"},
		{name: "mention for other bot", text: "/mode@OtherBot", wantErr: ErrNotACommand},
		{name: "plain text", text: "hello there", wantErr: ErrNotACommand},
		{name: "empty", text: "", wantErr: ErrNotACommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := r.Parse(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.text, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.text, err)
			}
			if cmd.Name != tt.wantName {
				t.Errorf("name = %q, want %q", cmd.Name, tt.wantName)
			}
			if len(cmd.Args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", cmd.Args, tt.wantArgs)
			}
			for i := range tt.wantArgs {
				if cmd.Args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %q, want %q", i, cmd.Args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestParseBarePrefix(t *testing.T) {
	r := NewRouter("/", "ColinBot")
	for _, text := range []string{"/", "/  ", "/@ColinBot"} {
		if _, err := r.Parse(text); !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownCommand", text, err)
		}
	}
}

func TestRoute(t *testing.T) {
	r := NewRouter("/", "")
	r.Register("echo", func(_ context.Context, cmd *Command, chatID string) (string, error) {
		return chatID + ":" + cmd.RawText, nil
	})

	got, err := r.Route(context.Background(), "/echo one two", "42")
	if err != nil {
		t.Fatalf("Route error = %v", err)
	}
	if got != "42:echo one two" {
		t.Errorf("Route reply = %q", got)
	}

	_, err = r.Route(context.Background(), "/nope", "42")
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Route(/nope) error = %v, want ErrUnknownCommand", err)
	}

	_, err = r.Route(context.Background(), "just chatting", "42")
	if !errors.Is(err, ErrNotACommand) {
		t.Errorf("Route(plain) error = %v, want ErrNotACommand", err)
	}
}
