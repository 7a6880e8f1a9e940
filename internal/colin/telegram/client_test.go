package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testToken = "123456:test-token"

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.Client(), srv.URL, testToken), srv
}

func TestGetMe(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot"+testToken+"/getMe" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"id":7,"is_bot":true,"username":"ColinBot","first_name":"Colin"}}`)
	})
	defer srv.Close()

	me, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.Username != "ColinBot" || !me.IsBot {
		t.Errorf("GetMe = %+v", me)
	}
}

func TestGetUpdates(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "10" {
			t.Errorf("offset = %q, want 10", got)
		}
		fmt.Fprint(w, `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"chat":{"id":5},"text":"hello"}},
			{"update_id":11,"message":{"message_id":2,"chat":{"id":5},"text":"world"}}
		]}`)
	})
	defer srv.Close()

	updates, next, err := client.GetUpdates(context.Background(), 10, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if next != 12 {
		t.Errorf("next offset = %d, want 12", next)
	}
	if msg := updates[0].TextMessage(); msg == nil || msg.Text != "hello" {
		t.Errorf("first update text = %+v", msg)
	}
}

func TestGetUpdatesKeepsOffsetOnError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	defer srv.Close()

	_, next, err := client.GetUpdates(context.Background(), 42, time.Second)
	if err == nil {
		t.Fatal("GetUpdates succeeded, want error")
	}
	if next != 42 {
		t.Errorf("next offset = %d, want unchanged 42", next)
	}
}

func TestSendMessage(t *testing.T) {
	var got sendMessageRequest
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"ok":true}`)
	})
	defer srv.Close()

	if err := client.SendMessage(context.Background(), 5, "hi there"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got.ChatID != 5 || got.Text != "hi there" {
		t.Errorf("request = %+v", got)
	}
}

func TestSendMessageRetriesTransientFailure(t *testing.T) {
	var calls int
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	})
	defer srv.Close()

	if err := client.SendMessage(context.Background(), 5, "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":403,"description":"bot was blocked by the user"}`)
	})
	defer srv.Close()

	err := client.SendMessage(context.Background(), 5, "hi")
	if err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Errorf("error = %v, want blocked description", err)
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	client := New(&http.Client{Timeout: 50 * time.Millisecond}, "http://127.0.0.1:1", testToken)
	err := client.SendMessage(context.Background(), 5, "hi")
	if err == nil {
		t.Fatal("SendMessage succeeded against closed port")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Errorf("error leaks token: %v", err)
	}
}

func TestIsPollTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("poll: %w", context.DeadlineExceeded), true},
		{"client timeout text", errors.New("Client.Timeout exceeded while awaiting headers"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPollTimeout(tt.err); got != tt.want {
				t.Errorf("IsPollTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want string
	}{
		{"nil", nil, ""},
		{"full name", &User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first only", &User{FirstName: "Ada"}, "Ada"},
		{"username only", &User{Username: "ada"}, "@ada"},
		{"empty", &User{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}
