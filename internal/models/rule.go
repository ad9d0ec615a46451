package models

import "fmt"

// TelegramChannel is the per-rule or global Telegram bot configuration.
type TelegramChannel struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	BotToken string `json:"bot_token" yaml:"bot_token"`
	ChatID   string `json:"chat_id" yaml:"chat_id"`
}

// EmailChannel is the per-rule or global email configuration.
type EmailChannel struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	Recipients []string `json:"recipients" yaml:"recipients"`
}

// NotificationRule is a conditional routing policy. A rule fires when it
// is enabled and its MatchString is a literal, case-sensitive substring of
// the alert's log content. All matching rules fire independently.
type NotificationRule struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	MatchString string `json:"match_string" yaml:"match_string"`

	// Channel configs are optional; a nil channel never fires.
	Telegram *TelegramChannel `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Email    *EmailChannel    `json:"email,omitempty" yaml:"email,omitempty"`
}

// Validate checks the rule configuration.
func (r *NotificationRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.MatchString == "" {
		return fmt.Errorf("match string is required for rule %q", r.Name)
	}
	if r.Telegram == nil && r.Email == nil {
		return fmt.Errorf("rule %q has no channel configured", r.Name)
	}
	if r.Telegram != nil && r.Telegram.Enabled && r.Telegram.BotToken == "" {
		return fmt.Errorf("rule %q enables telegram without a bot token", r.Name)
	}
	if r.Email != nil && r.Email.Enabled && len(r.Email.Recipients) == 0 {
		return fmt.Errorf("rule %q enables email without recipients", r.Name)
	}
	return nil
}
