package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// defaultTelegramAPI is the Telegram Bot API base URL.
const defaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier posts alerts to the Telegram Bot API.
type TelegramNotifier struct {
	baseURL    string
	httpClient *http.Client
	recorder   *metrics.Recorder
	log        *log.Entry
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(recorder *metrics.Recorder) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL:  defaultTelegramAPI,
		recorder: recorder,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logger.Component("telegram"),
	}
}

// NewTelegramNotifierWithBase creates a notifier against a custom API
// base URL. Used by tests.
func NewTelegramNotifierWithBase(baseURL string, recorder *metrics.Recorder) *TelegramNotifier {
	n := NewTelegramNotifier(recorder)
	n.baseURL = baseURL
	return n
}

type telegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts the rendered alert message. Non-success HTTP status maps
// to false rather than an error; the dispatcher only needs the outcome.
func (t *TelegramNotifier) Send(ctx context.Context, ch models.TelegramChannel, alert *models.Alert) bool {
	if !ch.Enabled || ch.BotToken == "" {
		return false
	}

	payload := telegramPayload{
		ChatID:    ch.ChatID,
		Text:      TelegramMessage(alert),
		ParseMode: "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.log.WithError(err).Error("marshal telegram payload")
		return false
	}

	url := t.baseURL + "/bot" + ch.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.record(0, start, false)
		t.log.WithError(err).Warn("telegram send failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	t.record(resp.StatusCode, start, success)
	if !success {
		t.log.WithField("status", resp.StatusCode).Warn("telegram API rejected message")
	}
	return success
}

// SendReply posts an AI reply back to the originating chat.
func (t *TelegramNotifier) SendReply(ctx context.Context, ch models.TelegramChannel, chatID string, resp *models.AIResponse) bool {
	if ch.BotToken == "" {
		return false
	}
	if chatID == "" {
		chatID = ch.ChatID
	}

	text := "\U0001F916 *LogGuard AI Response*\n\n" + resp.Response
	if resp.AlertID != "" && resp.AlertID != "unknown" {
		text += "\n\n\U0001F517 Alert ID: `" + resp.AlertID + "`"
	}

	payload := telegramPayload{ChatID: chatID, Text: text, ParseMode: "Markdown"}
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	url := t.baseURL + "/bot" + ch.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	r, err := t.httpClient.Do(req)
	if err != nil {
		t.record(0, start, false)
		t.log.WithError(err).Warn("telegram reply failed")
		return false
	}
	defer r.Body.Close()
	io.Copy(io.Discard, io.LimitReader(r.Body, 4096))

	success := r.StatusCode >= 200 && r.StatusCode < 300
	t.record(r.StatusCode, start, success)
	return success
}

func (t *TelegramNotifier) record(status int, start time.Time, success bool) {
	if t.recorder == nil {
		return
	}
	// The bot token is part of the URL; record a fixed endpoint label
	// so credentials never reach the metrics.
	t.recorder.Record(metrics.CallRecord{
		Endpoint: "/bot/sendMessage",
		Method:   http.MethodPost,
		Status:   status,
		Duration: time.Since(start),
		Success:  success,
	})
}
