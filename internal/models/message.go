package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageSource identifies the channel an inbound message arrived on.
type MessageSource string

const (
	SourceTelegram MessageSource = "telegram"
	SourceEmail    MessageSource = "email"
)

// IncomingMessage is a human-originated message received via a
// notification channel, usually a reply to an alert.
type IncomingMessage struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Source    MessageSource `json:"source"`
	Sender    string        `json:"sender"`
	Message   string        `json:"message"`

	// RelatedAlertID is advisory correlation, not a foreign key.
	RelatedAlertID string `json:"related_alert_id,omitempty"`
}

// NewIncomingMessage creates an IncomingMessage with a generated
// identifier and the current time.
func NewIncomingMessage(source MessageSource, sender, message, alertID string) *IncomingMessage {
	return &IncomingMessage{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Source:         source,
		Sender:         sender,
		Message:        message,
		RelatedAlertID: alertID,
	}
}

// AIResponse is the language model's reply to an IncomingMessage. The
// triggering user message is denormalized onto the record.
type AIResponse struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	AlertID     string    `json:"alert_id"`
	UserMessage string    `json:"user_message"`
	Response    string    `json:"response"`
	Confidence  int       `json:"confidence"`
}

// NewAIResponse creates an AIResponse with a generated identifier.
func NewAIResponse(alertID, userMessage, response string, confidence int) *AIResponse {
	return &AIResponse{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		AlertID:     alertID,
		UserMessage: userMessage,
		Response:    response,
		Confidence:  confidence,
	}
}
