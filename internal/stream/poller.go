// Package stream turns discrete search calls into a continuous delivery
// of new log entries via a watermark-based polling loop.
package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// Searcher is the slice of the search client the poller needs.
type Searcher interface {
	Search(ctx context.Context, query string, rangeSeconds int) ([]models.LogEntry, error)
}

// Callback receives one delivered entry. Entries within a batch arrive
// in the backend's descending-timestamp order; consumers needing
// chronological replay must sort locally.
type Callback func(entry models.LogEntry)

// State is the poller lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ErrAlreadyRunning is returned by Start when a run is still active.
// Only one poller run per monitored source is allowed.
var ErrAlreadyRunning = errors.New("poller already running")

// Options configures a Poller.
type Options struct {
	// Query is the search expression; empty matches everything.
	Query string
	// Window bounds how far back each search looks.
	Window time.Duration
	// PollInterval is the sleep after a successful iteration.
	PollInterval time.Duration
	// RetryInterval is the longer sleep after a failed iteration.
	// This is the whole retry policy: two fixed tiers, no backoff growth.
	RetryInterval time.Duration
}

// DefaultOptions returns the production polling cadence.
func DefaultOptions() *Options {
	return &Options{
		Query:         "*",
		Window:        60 * time.Second,
		PollInterval:  30 * time.Second,
		RetryInterval: 60 * time.Second,
	}
}

// Poller wraps a Searcher in an unbounded polling loop.
type Poller struct {
	searcher Searcher
	opts     *Options
	log      *log.Entry

	state  atomic.Int32
	cancel context.CancelFunc

	mu        sync.Mutex
	watermark time.Time
	done      chan struct{}
}

// NewPoller creates a Poller. opts may be nil for defaults.
func NewPoller(searcher Searcher, opts *Options) *Poller {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Poller{
		searcher: searcher,
		opts:     opts,
		log:      logger.Component("stream"),
	}
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// Watermark returns the current watermark timestamp.
func (p *Poller) Watermark() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watermark
}

// Done returns a channel closed when the current run has fully stopped.
// Nil before the first Start.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Start transitions Idle→Running and begins the loop. The watermark is
// initialized to the start time, so only entries newer than Start are
// ever delivered. Starting while a run is active fails.
func (p *Poller) Start(ctx context.Context, cb Callback) error {
	p.mu.Lock()
	if State(p.state.Load()) != StateIdle {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.state.Store(int32(StateRunning))

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.watermark = time.Now()
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	metrics.PollerRunning.Set(1)
	go p.run(runCtx, cb, done)
	return nil
}

// Stop signals Running→Stopping. The loop observes the signal at its
// next checkpoint; in-flight network calls are not interrupted, so full
// quiescence may lag by up to one network timeout. Wait on Done() for it.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if State(p.state.Load()) == StateRunning {
		p.state.Store(int32(StateStopping))
		p.cancel()
	}
}

func (p *Poller) run(ctx context.Context, cb Callback, done chan struct{}) {
	defer func() {
		p.state.Store(int32(StateIdle))
		metrics.PollerRunning.Set(0)
		close(done)
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()
	// Drain the immediate tick so the first poll runs right away.
	<-timer.C

	for {
		// Liveness checkpoint at the top of each iteration.
		if ctx.Err() != nil {
			return
		}

		interval := p.poll(ctx, cb)

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// poll runs one search iteration and returns the next sleep interval.
func (p *Poller) poll(ctx context.Context, cb Callback) time.Duration {
	entries, err := p.searcher.Search(ctx, p.opts.Query, int(p.opts.Window.Seconds()))
	if err != nil {
		metrics.PollIterationsTotal.WithLabelValues("error").Inc()
		p.log.WithError(err).Warn("poll failed, backing off")
		return p.opts.RetryInterval
	}
	metrics.PollIterationsTotal.WithLabelValues("success").Inc()

	p.mu.Lock()
	watermark := p.watermark
	p.mu.Unlock()

	// Keep only entries strictly newer than the watermark. The page is
	// descending by timestamp but the scan does not rely on that order.
	var fresh []models.LogEntry
	newest := watermark
	for _, e := range entries {
		if e.Timestamp.After(watermark) {
			fresh = append(fresh, e)
			if e.Timestamp.After(newest) {
				newest = e.Timestamp
			}
		}
	}

	if len(fresh) == 0 {
		return p.opts.PollInterval
	}

	// Advance the watermark before delivery; it never moves backwards.
	p.mu.Lock()
	if newest.After(p.watermark) {
		p.watermark = newest
	}
	p.mu.Unlock()

	for _, e := range fresh {
		// Liveness checkpoint before each delivery so cancellation
		// never races a stopped consumer mid-batch.
		if ctx.Err() != nil {
			return p.opts.PollInterval
		}
		p.deliver(cb, e)
	}

	return p.opts.PollInterval
}

// deliver invokes the callback, containing panics so a single bad entry
// cannot kill the stream.
func (p *Poller) deliver(cb Callback, e models.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("entry", e.ID).Errorf("delivery callback panicked: %v", r)
		}
	}()
	metrics.EntriesDeliveredTotal.Inc()
	cb(e)
}
