package api

import (
	"encoding/json"
	"net/http"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/replies"
)

// telegramUpdate is the subset of the Telegram Bot API update payload
// the webhook consumes.
type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		MessageID int64 `json:"message_id"`
		From      struct {
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text           string `json:"text"`
		ReplyToMessage *struct {
			Text string `json:"text"`
		} `json:"reply_to_message"`
	} `json:"message"`
}

func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		JSONError(w, NewBadRequest("invalid telegram update"))
		return
	}
	if update.Message.Text == "" {
		// Non-text updates (edits, joins) are acknowledged and ignored.
		OK(w, map[string]string{"status": "ignored"})
		return
	}

	sender := update.Message.From.Username
	if sender == "" {
		sender = update.Message.From.FirstName
	}

	var alertID string
	if update.Message.ReplyToMessage != nil {
		alertID = replies.ExtractAlertID(update.Message.ReplyToMessage.Text)
	}
	if alertID == "" {
		alertID = replies.ExtractAlertID(update.Message.Text)
	}

	msg := models.NewIncomingMessage(models.SourceTelegram, sender, update.Message.Text, alertID)
	s.processAsync(msg)

	// Telegram retries on non-2xx; receipt is acknowledged immediately
	// and the reply loop runs in the background.
	OK(w, map[string]string{"status": "accepted", "message_id": msg.ID})
}

// emailInbound is the payload posted by the inbound mail bridge.
type emailInbound struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) handleEmailWebhook(w http.ResponseWriter, r *http.Request) {
	var in emailInbound
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		JSONError(w, NewBadRequest("invalid email payload"))
		return
	}
	if in.From == "" || in.Body == "" {
		JSONError(w, NewBadRequest("from and body are required"))
		return
	}

	alertID := replies.ExtractAlertID(in.Body)
	if alertID == "" {
		alertID = replies.ExtractAlertID(in.Subject)
	}

	msg := models.NewIncomingMessage(models.SourceEmail, in.From, in.Body, alertID)
	s.processAsync(msg)

	OK(w, map[string]string{"status": "accepted", "message_id": msg.ID})
}

// processAsync runs the reply loop off the request goroutine, under the
// application lifetime context.
func (s *Server) processAsync(msg *models.IncomingMessage) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Errorf("reply processing panicked: %v", rec)
			}
		}()
		s.opts.Correlator.ProcessReply(s.runCtx, msg)
	}()
}
