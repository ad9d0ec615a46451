// Package monitor runs the end-to-end pipeline: polled log entries are
// classified, anomalies above the escalation threshold become alerts,
// and alerts fan out to the notification channels.
package monitor

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/ai"
	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/stream"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// escalationThreshold is the confidence an anomalous verdict must
// exceed (strictly) to become an alert. Heuristic verdicts sit at 50,
// below the threshold, so alerts only fire on model-backed analysis.
const escalationThreshold = 70

// Analyzer produces an anomaly verdict for one log entry.
type Analyzer interface {
	Analyze(ctx context.Context, logMessage, host string, timestamp time.Time) ai.Verdict
}

// Dispatcher fans an alert out to notification channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *models.Alert) error
}

// ConnectionTester probes an upstream dependency.
type ConnectionTester interface {
	TestConnection(ctx context.Context) bool
}

// Monitor owns the poller and the classification pipeline behind it.
type Monitor struct {
	poller     *stream.Poller
	analyzer   Analyzer
	dispatcher Dispatcher
	registry   *Registry
	graylog    ConnectionTester
	aiProbe    ConnectionTester
	log        *log.Entry

	runCtx context.Context
}

// New creates a Monitor. aiProbe may be nil to skip the AI probe.
func New(poller *stream.Poller, analyzer Analyzer, dispatcher Dispatcher, registry *Registry, graylog, aiProbe ConnectionTester) *Monitor {
	return &Monitor{
		poller:     poller,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		registry:   registry,
		graylog:    graylog,
		aiProbe:    aiProbe,
		log:        logger.Component("monitor"),
	}
}

// Start validates connectivity and begins polling. An unreachable log
// backend refuses the start; an unreachable AI backend only logs a
// warning since classification degrades to its fallback.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.graylog.TestConnection(ctx) {
		return fmt.Errorf("graylog connection test failed, monitoring not started")
	}
	if m.aiProbe != nil && !m.aiProbe.TestConnection(ctx) {
		m.log.Warn("AI endpoint unreachable, analysis will degrade to fallback verdicts")
	}

	m.runCtx = ctx
	if err := m.poller.Start(ctx, m.handleEntry); err != nil {
		return err
	}
	m.log.Info("monitoring started")
	return nil
}

// Stop signals the poller to stop. Stopping an idle monitor is a no-op.
func (m *Monitor) Stop() {
	m.poller.Stop()
	m.log.Info("monitoring stopping")
}

// Running reports whether the poller is in its running state.
func (m *Monitor) Running() bool {
	return m.poller.State() == stream.StateRunning
}

// Status is a point-in-time view of the pipeline.
type Status struct {
	State     string    `json:"state"`
	Watermark time.Time `json:"watermark"`
	Alerts    Stats     `json:"alerts"`
}

// Status returns the current pipeline status.
func (m *Monitor) Status() Status {
	return Status{
		State:     m.poller.State().String(),
		Watermark: m.poller.Watermark(),
		Alerts:    m.registry.Stats(),
	}
}

// Registry exposes the alert registry.
func (m *Monitor) Registry() *Registry {
	return m.registry
}

// handleEntry classifies one delivered entry and escalates it when the
// verdict is anomalous with confidence strictly above the threshold.
func (m *Monitor) handleEntry(entry models.LogEntry) {
	ctx := m.runCtx
	verdict := m.analyzer.Analyze(ctx, entry.Content(), entry.Host, entry.Timestamp)
	if !verdict.IsAnomalous || verdict.Confidence <= escalationThreshold {
		return
	}

	alert := models.NewAlert(entry.Host, verdict.Severity, verdict.Summary, verdict.Suggestion, verdict.Confidence, entry.Content())
	m.registry.Add(alert)
	metrics.AlertsCreatedTotal.WithLabelValues(string(alert.Severity)).Inc()

	m.log.WithFields(log.Fields{
		"alert":      alert.ID,
		"host":       alert.Host,
		"severity":   alert.Severity,
		"confidence": alert.Confidence,
	}).Info("anomaly escalated to alert")

	if err := m.dispatcher.Dispatch(ctx, alert); err != nil {
		m.log.WithError(err).WithField("alert", alert.ID).Warn("alert notification incomplete")
	}
}
