package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/logguard-ai/logguard/internal/models"
)

func TestTelegramSendPayload(t *testing.T) {
	var gotPath string
	var gotPayload telegramPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifierWithBase(srv.URL, nil)
	alert := testAlert()
	ch := models.TelegramChannel{Enabled: true, BotToken: "123:abc", ChatID: "-100"}

	if !n.Send(context.Background(), ch, alert) {
		t.Fatal("Send() = false, want true")
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path = %s", gotPath)
	}
	if gotPayload.ChatID != "-100" || gotPayload.ParseMode != "Markdown" {
		t.Errorf("payload = %+v", gotPayload)
	}
	for _, want := range []string{"LogGuard AI Alert", "CRITICAL", "web-01", alert.Message, alert.AISuggestion, "Reply to this message", alert.ID} {
		if !strings.Contains(gotPayload.Text, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestTelegramSendAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifierWithBase(srv.URL, nil)
	ch := models.TelegramChannel{Enabled: true, BotToken: "tok", ChatID: "1"}
	if n.Send(context.Background(), ch, testAlert()) {
		t.Error("Send() = true on API rejection")
	}
}

func TestTelegramSendDisabledChannel(t *testing.T) {
	n := NewTelegramNotifierWithBase("http://127.0.0.1:1", nil)
	if n.Send(context.Background(), models.TelegramChannel{Enabled: false, BotToken: "tok"}, testAlert()) {
		t.Error("disabled channel must not send")
	}
	if n.Send(context.Background(), models.TelegramChannel{Enabled: true}, testAlert()) {
		t.Error("channel without token must not send")
	}
}

func TestTelegramSendReply(t *testing.T) {
	var gotPayload telegramPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifierWithBase(srv.URL, nil)
	ch := models.TelegramChannel{Enabled: true, BotToken: "tok", ChatID: "fallback"}
	resp := models.NewAIResponse("alert-7", "what now?", "Restart the service.", 85)

	if !n.SendReply(context.Background(), ch, "origin-chat", resp) {
		t.Fatal("SendReply() = false, want true")
	}
	if gotPayload.ChatID != "origin-chat" {
		t.Errorf("reply chat = %q, want the originating chat", gotPayload.ChatID)
	}
	if !strings.Contains(gotPayload.Text, "Restart the service.") || !strings.Contains(gotPayload.Text, "alert-7") {
		t.Errorf("reply text = %q", gotPayload.Text)
	}

	if !n.SendReply(context.Background(), ch, "", resp) {
		t.Fatal("SendReply() with empty chat should fall back to channel chat")
	}
	if gotPayload.ChatID != "fallback" {
		t.Errorf("fallback chat = %q", gotPayload.ChatID)
	}
}
