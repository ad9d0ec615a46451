// Package graylog implements the search client for a Graylog-compatible
// log store.
package graylog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/pkg/logger"
)

const (
	// pageSize caps how many messages a single search returns.
	pageSize = 50

	searchPath = "/api/search/universal/relative"
	systemPath = "/api/system"
)

// Client issues time-bounded queries against the log store.
type Client struct {
	mu         sync.RWMutex
	cfg        models.GraylogConfig
	httpClient *http.Client
	recorder   *metrics.Recorder
	log        *log.Entry
}

// NewClient creates a search client. The API token wins over
// username/password; with neither configured, calls go out
// unauthenticated and are expected to fail at the transport.
func NewClient(cfg models.GraylogConfig, recorder *metrics.Recorder) *Client {
	return &Client{
		cfg:      cfg,
		recorder: recorder,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logger.Component("graylog"),
	}
}

// SetConfig swaps the connection settings. In-flight calls finish with
// the settings they started with.
func (c *Client) SetConfig(cfg models.GraylogConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

func (c *Client) config() models.GraylogConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// authorization returns the Authorization header value, or "" when no
// credentials are configured.
func authorization(cfg models.GraylogConfig) string {
	if cfg.APIToken != "" {
		return "Bearer " + cfg.APIToken
	}
	if cfg.Username != "" && cfg.Password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		return "Basic " + creds
	}
	return ""
}

func (c *Client) newRequest(ctx context.Context, path, rawQuery string) (*http.Request, error) {
	cfg := c.config()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL+path, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = rawQuery
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-By", "LogGuard-AI")
	if auth := authorization(cfg); auth != "" {
		req.Header.Set("Authorization", auth)
	} else {
		c.log.Warnf("no graylog credentials configured")
	}
	return req, nil
}

// record registers a call metric. Recording is fire-and-forget and must
// never affect the primary call, so a nil recorder is tolerated.
func (c *Client) record(path, method string, status int, start time.Time, success bool) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(metrics.CallRecord{
		Endpoint: path,
		Method:   method,
		Status:   status,
		Duration: time.Since(start),
		Success:  success,
	})
}

// graylogMessage is the wire shape of one message envelope.
type graylogMessage struct {
	ID          string `json:"_id"`
	Timestamp   string `json:"timestamp"`
	Host        string `json:"host"`
	Level       int    `json:"level"`
	Message     string `json:"message"`
	FullMessage string `json:"full_message"`
	Facility    string `json:"facility"`
	Source      string `json:"source"`
}

type searchResponse struct {
	Messages []graylogMessage `json:"messages"`
}

// Search queries for entries within the last rangeSeconds, newest first.
// An empty query matches everything. A zero-match result is not an error.
func (c *Client) Search(ctx context.Context, query string, rangeSeconds int) ([]models.LogEntry, error) {
	if query == "" {
		query = "*"
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("range", strconv.Itoa(rangeSeconds))
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("sort", "timestamp:desc")

	req, err := c.newRequest(ctx, searchPath, params.Encode())
	if err != nil {
		return nil, &TransportError{Op: "search", Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(searchPath, http.MethodGet, 0, start, false)
		return nil, &TransportError{Op: "search", Err: err}
	}
	defer resp.Body.Close()

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.record(searchPath, http.MethodGet, resp.StatusCode, start, success)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Status: resp.StatusCode}
	}
	if !success {
		return nil, &TransportError{Op: "search", Status: resp.StatusCode}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &TransportError{Op: "search decode", Err: err}
	}

	entries := make([]models.LogEntry, 0, len(decoded.Messages))
	for _, m := range decoded.Messages {
		entries = append(entries, toLogEntry(m))
	}
	return entries, nil
}

// toLogEntry maps a wire message onto the domain shape.
func toLogEntry(m graylogMessage) models.LogEntry {
	host := m.Host
	if host == "" {
		host = m.Source
	}
	return models.LogEntry{
		ID:          m.ID,
		Timestamp:   parseTimestamp(m.Timestamp),
		Host:        host,
		Level:       m.Level,
		Message:     m.Message,
		FullMessage: m.FullMessage,
		Facility:    m.Facility,
		Source:      m.Source,
	}
}

// parseTimestamp accepts the ISO-8601 variants Graylog emits. Unparseable
// values map to the zero time rather than failing the whole page.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.000",
		"2006-01-02T15:04:05.000Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// TestConnection probes the system-info endpoint. A 2xx means reachable,
// anything else (401 included) means the probe fails closed.
func (c *Client) TestConnection(ctx context.Context) bool {
	req, err := c.newRequest(ctx, systemPath, "")
	if err != nil {
		return false
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(systemPath, http.MethodGet, 0, start, false)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.record(systemPath, http.MethodGet, resp.StatusCode, start, success)

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warnf("graylog credentials rejected during connectivity probe")
	}
	return success
}

// URL returns the configured base URL, for diagnostics.
func (c *Client) URL() string {
	return c.config().URL
}
