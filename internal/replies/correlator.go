// Package replies implements the conversational loop on alert
// notifications: inbound human replies are recorded, answered by the
// language model, and relayed back over the channel they arrived on.
package replies

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/store"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// Retention bounds. Oldest records are evicted first.
const (
	maxIncoming  = 100
	maxResponses = 50
)

// Responder produces an AI reply for one inbound message.
type Responder interface {
	Respond(ctx context.Context, msg *models.IncomingMessage) (*models.AIResponse, error)
}

// Relay delivers an AI reply back over the message's original channel.
// It reports success as a boolean.
type Relay interface {
	RelayReply(ctx context.Context, msg *models.IncomingMessage, resp *models.AIResponse) bool
}

// Persister is the subset of the store the correlator needs.
type Persister interface {
	Get(ctx context.Context, key string, out any) error
	Put(ctx context.Context, key string, value any) error
}

// Correlator keeps the bounded reply history and drives reply
// processing. All list mutations run under one mutex; persistence
// happens inside the critical section so the stored snapshot always
// matches memory.
type Correlator struct {
	mu        sync.RWMutex
	incoming  []*models.IncomingMessage // newest first
	responses []*models.AIResponse      // newest first

	store     Persister
	responder Responder
	relay     Relay
	log       *log.Entry
}

// NewCorrelator creates a correlator. store and relay may be nil; the
// correlator then skips persistence or relaying respectively.
func NewCorrelator(st Persister, responder Responder, relay Relay) *Correlator {
	return &Correlator{
		store:     st,
		responder: responder,
		relay:     relay,
		log:       logger.Component("replies"),
	}
}

// Load restores persisted history. Missing keys are a fresh install,
// not an error.
func (c *Correlator) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var in []*models.IncomingMessage
	if err := c.store.Get(ctx, store.KeyIncomingMessages, &in); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	var out []*models.AIResponse
	if err := c.store.Get(ctx, store.KeyAIResponses, &out); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	c.incoming = trimIncoming(in)
	c.responses = trimResponses(out)
	return nil
}

// RecordIncoming stores an inbound message at the head of the history.
func (c *Correlator) RecordIncoming(ctx context.Context, msg *models.IncomingMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.incoming = trimIncoming(append([]*models.IncomingMessage{msg}, c.incoming...))
	c.persist(ctx, store.KeyIncomingMessages, c.incoming)
}

// RecordResponse stores an AI reply at the head of the history.
func (c *Correlator) RecordResponse(ctx context.Context, resp *models.AIResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responses = trimResponses(append([]*models.AIResponse{resp}, c.responses...))
	c.persist(ctx, store.KeyAIResponses, c.responses)
}

// ProcessReply runs the full loop for one inbound message: record it,
// ask the model, record the answer, relay it back. Every step is best
// effort; a failure is logged and returns a nil response rather than an
// error, so webhook handlers always acknowledge receipt.
func (c *Correlator) ProcessReply(ctx context.Context, msg *models.IncomingMessage) *models.AIResponse {
	c.RecordIncoming(ctx, msg)

	resp, err := c.responder.Respond(ctx, msg)
	if err != nil {
		c.log.WithError(err).WithFields(log.Fields{
			"source": msg.Source,
			"sender": msg.Sender,
		}).Warn("AI reply generation failed")
		return nil
	}

	c.RecordResponse(ctx, resp)

	if c.relay != nil && !c.relay.RelayReply(ctx, msg, resp) {
		c.log.WithFields(log.Fields{
			"source": msg.Source,
			"alert":  resp.AlertID,
		}).Warn("reply relay failed")
	}
	return resp
}

// Incoming returns a snapshot of the inbound history, newest first.
func (c *Correlator) Incoming() []*models.IncomingMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.IncomingMessage, len(c.incoming))
	copy(out, c.incoming)
	return out
}

// Responses returns a snapshot of the reply history, newest first.
func (c *Correlator) Responses() []*models.AIResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.AIResponse, len(c.responses))
	copy(out, c.responses)
	return out
}

// ResponsesForAlert returns the replies correlated to one alert.
func (c *Correlator) ResponsesForAlert(alertID string) []*models.AIResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*models.AIResponse
	for _, r := range c.responses {
		if r.AlertID == alertID {
			out = append(out, r)
		}
	}
	return out
}

// persist writes a snapshot. Caller holds the mutex. Persistence
// failures do not interrupt the reply loop.
func (c *Correlator) persist(ctx context.Context, key string, value any) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, key, value); err != nil {
		c.log.WithError(err).WithField("key", key).Error("persist reply history")
	}
}

func trimIncoming(in []*models.IncomingMessage) []*models.IncomingMessage {
	if len(in) > maxIncoming {
		return in[:maxIncoming]
	}
	return in
}

func trimResponses(in []*models.AIResponse) []*models.AIResponse {
	if len(in) > maxResponses {
		return in[:maxResponses]
	}
	return in
}
