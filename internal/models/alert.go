package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity represents alert severity level.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ParseSeverity converts a string to Severity, defaulting to warning.
func ParseSeverity(s string) Severity {
	switch s {
	case "critical", "CRITICAL", "Critical":
		return SeverityCritical
	case "warning", "WARNING", "Warning", "warn":
		return SeverityWarning
	case "info", "INFO", "Info":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// AlertStatus represents the lifecycle state of an alert.
type AlertStatus string

const (
	StatusNew          AlertStatus = "new"
	StatusAcknowledged AlertStatus = "acknowledged"
	StatusResolved     AlertStatus = "resolved"
)

// Alert is an anomaly verdict materialized into an actionable record.
// Alerts are never deleted, only re-statused.
type Alert struct {
	ID           string      `json:"id"`
	Timestamp    time.Time   `json:"timestamp"`
	Host         string      `json:"host"`
	Severity     Severity    `json:"severity"`
	Message      string      `json:"message"`
	AISuggestion string      `json:"ai_suggestion"`
	Status       AlertStatus `json:"status"`
	Confidence   int         `json:"confidence"`

	// LogContent is the raw log text that produced the alert; rule
	// matching runs against it.
	LogContent string `json:"log_content,omitempty"`
}

// NewAlert creates an Alert in status new with a generated identifier.
func NewAlert(host string, severity Severity, message, suggestion string, confidence int, logContent string) *Alert {
	return &Alert{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Host:         host,
		Severity:     severity,
		Message:      message,
		AISuggestion: suggestion,
		Status:       StatusNew,
		Confidence:   confidence,
		LogContent:   logContent,
	}
}

// Transition moves the alert to the given status. Only the forward
// transitions new→acknowledged→resolved (and new→resolved) are legal.
func (a *Alert) Transition(to AlertStatus) error {
	switch {
	case a.Status == to:
		return nil
	case a.Status == StatusNew && (to == StatusAcknowledged || to == StatusResolved):
		a.Status = to
		return nil
	case a.Status == StatusAcknowledged && to == StatusResolved:
		a.Status = to
		return nil
	default:
		return fmt.Errorf("illegal alert transition %s -> %s", a.Status, to)
	}
}
