// Package notifier dispatches alerts to notification channels.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// TelegramSender sends one alert to one Telegram channel config.
// It reports success as a boolean; transport details stay internal.
type TelegramSender interface {
	Send(ctx context.Context, ch models.TelegramChannel, alert *models.Alert) bool
}

// EmailSender sends one alert to a recipient list.
type EmailSender interface {
	Send(ctx context.Context, recipients []string, alert *models.Alert) bool
}

// ErrRateLimited is returned when a dispatch is dropped by rate limiting.
var ErrRateLimited = fmt.Errorf("notification rate limited")

// Dispatcher evaluates global channels and conditional rules for each
// alert and fans out to every matching sender.
type Dispatcher struct {
	mu       sync.RWMutex
	cfg      models.NotificationConfig
	telegram TelegramSender
	email    EmailSender
	limiter  *RateLimiter
	log      *log.Entry
}

// NewDispatcher creates a dispatcher with the default rate limit.
func NewDispatcher(cfg models.NotificationConfig, telegram TelegramSender, email EmailSender) *Dispatcher {
	return NewDispatcherWithRateLimit(cfg, telegram, email, DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with a custom rate limit.
func NewDispatcherWithRateLimit(cfg models.NotificationConfig, telegram TelegramSender, email EmailSender, rl RateLimitConfig) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		telegram: telegram,
		email:    email,
		limiter:  NewRateLimiter(rl),
		log:      logger.Component("notifier"),
	}
}

// UpdateConfig swaps the notification configuration (operator saved new
// settings). In-flight dispatches keep the config they started with.
func (d *Dispatcher) UpdateConfig(cfg models.NotificationConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

// target is one resolved channel send.
type target struct {
	channel string // "telegram" or "email"
	rule    string // empty for global channels
	tg      models.TelegramChannel
	email   models.EmailChannel
}

// MatchingRules returns the enabled rules whose match string is a
// literal, case-sensitive substring of content. All matches fire;
// there is no precedence or short-circuit.
func MatchingRules(rules []*models.NotificationRule, content string) []*models.NotificationRule {
	var out []*models.NotificationRule
	for _, r := range rules {
		if r.Enabled && strings.Contains(content, r.MatchString) {
			out = append(out, r)
		}
	}
	return out
}

// resolveTargets expands global channels plus matching rules into the
// full send list. Duplicate targets are not deduplicated.
func (d *Dispatcher) resolveTargets(alert *models.Alert) []target {
	d.mu.RLock()
	cfg := d.cfg
	d.mu.RUnlock()

	var targets []target

	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		targets = append(targets, target{channel: "telegram", tg: cfg.Telegram})
	}
	if cfg.Email.Enabled && len(cfg.Email.Recipients) > 0 {
		targets = append(targets, target{channel: "email", email: cfg.Email})
	}

	content := alert.LogContent
	if content == "" {
		content = alert.Message
	}

	for _, rule := range MatchingRules(cfg.Rules, content) {
		if rule.Telegram != nil && rule.Telegram.Enabled && rule.Telegram.BotToken != "" {
			targets = append(targets, target{channel: "telegram", rule: rule.Name, tg: *rule.Telegram})
		}
		if rule.Email != nil && rule.Email.Enabled && len(rule.Email.Recipients) > 0 {
			targets = append(targets, target{channel: "email", rule: rule.Name, email: *rule.Email})
		}
	}
	return targets
}

// Dispatch fans the alert out to every applicable channel and waits for
// the whole batch to settle. Individual channel failures are logged and
// aggregated into the returned error; they never abort the batch.
// Returns ErrRateLimited when the dispatch is dropped entirely.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) error {
	if d.limiter != nil && !d.limiter.Allow() {
		metrics.NotificationsDroppedTotal.Inc()
		d.log.WithField("alert", alert.ID).Warn("dispatch dropped by rate limiter")
		return ErrRateLimited
	}

	targets := d.resolveTargets(alert)
	if len(targets) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		failed []string
	)
	var g errgroup.Group
	for _, tg := range targets {
		tg := tg
		g.Go(func() error {
			ok := d.send(ctx, tg, alert)
			outcome := "success"
			if !ok {
				outcome = "failure"
				mu.Lock()
				failed = append(failed, tg.describe())
				mu.Unlock()
				d.log.WithFields(log.Fields{
					"alert":   alert.ID,
					"channel": tg.channel,
					"rule":    tg.rule,
				}).Warn("notification channel failed")
			}
			metrics.NotificationsSentTotal.WithLabelValues(tg.channel, outcome).Inc()
			return nil
		})
	}
	g.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (t target) describe() string {
	if t.rule == "" {
		return t.channel + " (global)"
	}
	return fmt.Sprintf("%s (rule %q)", t.channel, t.rule)
}

func (d *Dispatcher) send(ctx context.Context, t target, alert *models.Alert) bool {
	switch t.channel {
	case "telegram":
		return d.telegram.Send(ctx, t.tg, alert)
	case "email":
		return d.email.Send(ctx, t.email.Recipients, alert)
	default:
		return false
	}
}

// RateLimitStats returns the limiter's statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	if d.limiter == nil {
		return RateLimitStats{}
	}
	return d.limiter.Stats()
}
