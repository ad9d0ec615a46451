package replies

import (
	"testing"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/notifier"
)

func TestExtractAlertID(t *testing.T) {
	alert := models.NewAlert("web-01", models.SeverityCritical, "disk failure", "replace it", 90, "raw log")

	tests := []struct {
		name string
		text string
		want string
	}{
		{"telegram notification", notifier.TelegramMessage(alert), alert.ID},
		{"email notification", notifier.EmailBody(alert), alert.ID},
		{"plain mention", "re: Alert ID: " + alert.ID, alert.ID},
		{"no id", "just some reply text", ""},
		{"malformed id", "Alert ID: not-a-uuid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractAlertID(tt.text); got != tt.want {
				t.Errorf("ExtractAlertID() = %q, want %q", got, tt.want)
			}
		})
	}
}
