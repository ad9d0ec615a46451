package replies

import (
	"context"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/notifier"
)

// ChannelRelay routes AI replies back through the notifier senders.
// The config func is consulted per reply so hot-reloaded settings take
// effect immediately.
type ChannelRelay struct {
	telegram *notifier.TelegramNotifier
	email    *notifier.EmailNotifier
	config   func() models.NotificationConfig
}

// NewChannelRelay creates a relay over the given senders.
func NewChannelRelay(telegram *notifier.TelegramNotifier, email *notifier.EmailNotifier, config func() models.NotificationConfig) *ChannelRelay {
	return &ChannelRelay{telegram: telegram, email: email, config: config}
}

// RelayReply sends the response over the channel the message came from.
// Telegram replies go to the configured chat; email replies go back to
// the sender's address.
func (r *ChannelRelay) RelayReply(ctx context.Context, msg *models.IncomingMessage, resp *models.AIResponse) bool {
	cfg := r.config()
	switch msg.Source {
	case models.SourceTelegram:
		if r.telegram == nil || !cfg.Telegram.Enabled {
			return false
		}
		return r.telegram.SendReply(ctx, cfg.Telegram, "", resp)
	case models.SourceEmail:
		if r.email == nil || !cfg.Email.Enabled || msg.Sender == "" {
			return false
		}
		return r.email.SendReply(ctx, msg.Sender, resp)
	default:
		return false
	}
}
