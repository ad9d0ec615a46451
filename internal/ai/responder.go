package ai

import (
	"context"
	"fmt"

	"github.com/logguard-ai/logguard/internal/models"
)

// replyConfidence is the fixed confidence recorded on generated replies.
const replyConfidence = 85

// Responder generates conversational replies to inbound human messages.
type Responder struct {
	client Completer
}

// NewResponder creates a Responder on top of a completion client.
func NewResponder(client Completer) *Responder {
	return &Responder{client: client}
}

// Respond generates a reply for the message and materializes it as an
// AIResponse. Unlike classification there is no local fallback here: a
// failed call surfaces as an error and the caller decides what to do.
func (r *Responder) Respond(ctx context.Context, msg *models.IncomingMessage) (*models.AIResponse, error) {
	lang := r.client.Language()
	text, err := r.client.Complete(ctx,
		replySystemPrompt(lang),
		replyPrompt(lang, msg),
		0.7, 800)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	alertID := msg.RelatedAlertID
	if alertID == "" {
		alertID = "unknown"
	}
	return models.NewAIResponse(alertID, msg.Message, text, replyConfidence), nil
}
