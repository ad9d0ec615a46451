package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// Verdict is the structured result of one anomaly classification.
type Verdict struct {
	IsAnomalous bool            `json:"isAnomalous"`
	Severity    models.Severity `json:"severity"`
	Summary     string          `json:"summary"`
	Suggestion  string          `json:"suggestion"`
	Confidence  int             `json:"confidence"`
}

// Completer is the slice of the AI client the classifier needs.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
	Language() string
}

// Classifier sends log entries to the language model and parses the
// verdict. Analyze never fails: model errors degrade to deterministic
// local results.
type Classifier struct {
	client Completer
	log    *log.Entry
}

// NewClassifier creates a Classifier on top of a completion client.
func NewClassifier(client Completer) *Classifier {
	return &Classifier{
		client: client,
		log:    logger.Component("classifier"),
	}
}

// Analyze classifies one log message. The three outcomes are
// distinguishable by confidence: a model verdict carries the model's own
// confidence, the heuristic fallback is fixed at 50, and an outright
// call failure is fixed at 0 ("no analysis possible").
func (c *Classifier) Analyze(ctx context.Context, logMessage, host string, timestamp time.Time) Verdict {
	lang := c.client.Language()
	content, err := c.client.Complete(ctx,
		analysisSystemPrompt(lang),
		analysisPrompt(lang, logMessage, host, timestamp),
		0.3, 500)
	if err != nil {
		c.log.WithError(err).Warn("model call failed, analysis unavailable")
		metrics.ClassificationsTotal.WithLabelValues("unavailable").Inc()
		return unavailableVerdict()
	}

	verdict, ok := parseVerdict(content)
	if !ok {
		c.log.Debug("model output did not parse, applying heuristic fallback")
		metrics.ClassificationsTotal.WithLabelValues("fallback").Inc()
		return heuristicVerdict(logMessage)
	}

	metrics.ClassificationsTotal.WithLabelValues("model").Inc()
	return normalize(verdict)
}

// parseVerdict extracts the JSON verdict from the model's text output,
// tolerating prose or code fences around the object.
func parseVerdict(content string) (Verdict, bool) {
	var v Verdict
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v, true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &v); err == nil {
			return v, true
		}
	}
	return Verdict{}, false
}

// normalize clamps the confidence and canonicalizes the severity.
func normalize(v Verdict) Verdict {
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 100 {
		v.Confidence = 100
	}
	v.Severity = models.ParseSeverity(string(v.Severity))
	return v
}

// heuristicVerdict is the deterministic fallback when model output is
// unparseable: flag anything mentioning "error" or "failed".
func heuristicVerdict(logMessage string) Verdict {
	lower := strings.ToLower(logMessage)
	return Verdict{
		IsAnomalous: strings.Contains(lower, "error") || strings.Contains(lower, "failed"),
		Severity:    models.SeverityWarning,
		Summary:     "Log analysis completed with basic pattern matching",
		Suggestion:  "Review the log manually for potential issues",
		Confidence:  50,
	}
}

// unavailableVerdict is returned when the model call itself failed.
func unavailableVerdict() Verdict {
	return Verdict{
		IsAnomalous: false,
		Severity:    models.SeverityInfo,
		Summary:     "Unable to analyze log with AI",
		Suggestion:  "Manual review recommended",
		Confidence:  0,
	}
}
