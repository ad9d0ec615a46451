// Package ai talks to an OpenAI-compatible chat completion endpoint for
// anomaly analysis and reply generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/pkg/logger"
)

const (
	completionsPath = "/api/chat/completions"
	modelsPath      = "/api/models"
)

// ChatMessage is one chat-role message in a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client is the language-model HTTP client.
type Client struct {
	mu         sync.RWMutex
	cfg        models.AIConfig
	httpClient *http.Client
	recorder   *metrics.Recorder
	log        *log.Entry
}

// NewClient creates a language-model client.
func NewClient(cfg models.AIConfig, recorder *metrics.Recorder) *Client {
	return &Client{
		cfg:      cfg,
		recorder: recorder,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logger.Component("ai"),
	}
}

// SetConfig swaps the endpoint settings. In-flight calls finish with
// the settings they started with.
func (c *Client) SetConfig(cfg models.AIConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

func (c *Client) config() models.AIConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Client) record(path string, status int, start time.Time, success bool) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(metrics.CallRecord{
		Endpoint: path,
		Method:   http.MethodPost,
		Status:   status,
		Duration: time.Since(start),
		Success:  success,
	})
}

// Complete sends a system+user chat completion and returns the first
// choice's text content.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	cfg := c.config()
	payload := chatRequest{
		Model: cfg.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(completionsPath, 0, start, false)
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.record(completionsPath, resp.StatusCode, start, success)

	if !success {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion failed: status %d, body: %s", resp.StatusCode, string(snippet))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

// TestConnection probes the models endpoint; 2xx means reachable.
func (c *Client) TestConnection(ctx context.Context) bool {
	cfg := c.config()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL+modelsPath, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Debug("ai connectivity probe failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Language returns the configured response language.
func (c *Client) Language() string {
	return c.config().Language
}
