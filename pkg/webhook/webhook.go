// Package webhook delivers governance events to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sgov-project/sgov/pkg/logging"
)

// EventType represents the type of governance event that can trigger webhooks.
type EventType string

const (
	EventSearchFlagged    EventType = "search.flagged"
	EventOwnerNotified    EventType = "search.notified"
	EventSearchReview     EventType = "search.review"
	EventSearchDisabled   EventType = "search.disabled"
	EventSearchResolved   EventType = "search.resolved"
	EventDeadlineExtended EventType = "deadline.extended"
	EventDeadlineReduced  EventType = "deadline.reduced"
)

// AllEvents lists every event type a client can be subscribed to.
var AllEvents = []EventType{
	EventSearchFlagged,
	EventOwnerNotified,
	EventSearchReview,
	EventSearchDisabled,
	EventSearchResolved,
	EventDeadlineExtended,
	EventDeadlineReduced,
}

// Event is the JSON payload sent to webhooks.
type Event struct {
	Event        EventType      `json:"event"`
	Timestamp    string         `json:"timestamp"`
	SearchName   string         `json:"search_name,omitempty"`
	Owner        string         `json:"owner,omitempty"`
	App          string         `json:"app,omitempty"`
	DeadlineDays int            `json:"deadline_days,omitempty"`
	Deadline     int64          `json:"deadline,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// HookConfig represents a single webhook configuration.
type HookConfig struct {
	URL     string      `json:"url"`
	Secret  string      `json:"secret,omitempty"`
	Events  []EventType `json:"events"`
	Enabled bool        `json:"enabled"`
}

// Config represents the webhook configuration.
type Config struct {
	Hooks          []HookConfig  `json:"hooks"`
	Enabled        bool          `json:"enabled"`
	MaxRetries     int           `json:"max_retries"`
	RetryDelay     time.Duration `json:"retry_delay"`
	Timeout        time.Duration `json:"timeout"`
	AsyncQueueSize int           `json:"async_queue_size"`
}

// DefaultConfig returns the default webhook configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		Timeout:        10 * time.Second,
		AsyncQueueSize: 100,
	}
}

// Client handles sending webhook notifications.
type Client struct {
	config *Config
	http   *http.Client
	queue  chan *job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

type job struct {
	event Event
	hook  HookConfig
}

// NewClient creates a new webhook client.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	queueSize := cfg.AsyncQueueSize
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		config: cfg,
		http:   &http.Client{Timeout: timeout},
		queue:  make(chan *job, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.Enabled {
		c.start()
	}
	return c
}

func (c *Client) start() {
	c.once.Do(func() {
		c.wg.Add(1)
		go c.worker()
	})
}

// worker delivers queued jobs until Close, then drains the queue.
func (c *Client) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			// deliver what was accepted before Close, without the
			// canceled client context
			for len(c.queue) > 0 {
				c.send(context.Background(), <-c.queue)
			}
			return
		case j := <-c.queue:
			c.send(c.ctx, j)
		}
	}
}

// Send sends an event to all matching webhooks. Async events are queued and
// dropped with a warning when the queue is full.
func (c *Client) Send(event Event, async bool) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.config.Enabled || c.closed {
		return nil
	}

	hooks := c.matchingHooks(event.Event)
	if len(hooks) == 0 {
		return nil
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if async {
		for _, hook := range hooks {
			select {
			case c.queue <- &job{event: event, hook: hook}:
			default:
				logging.Warn("webhook queue full, dropping event", map[string]any{"event": string(event.Event), "url": hook.URL})
			}
		}
		return nil
	}

	var lastErr error
	for _, hook := range hooks {
		if err := c.sendSync(c.ctx, &job{event: event, hook: hook}); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *Client) matchingHooks(event EventType) []HookConfig {
	var hooks []HookConfig
	for _, hook := range c.config.Hooks {
		if hook.Enabled && matchesEvent(hook, event) {
			hooks = append(hooks, hook)
		}
	}
	return hooks
}

func (c *Client) send(ctx context.Context, j *job) {
	if err := c.sendSync(ctx, j); err != nil {
		logging.ErrorErr("webhook delivery failed", err, map[string]any{"event": string(j.event.Event), "url": j.hook.URL})
	}
}

// sendSync posts one job, retrying transport errors and 5xx responses.
func (c *Client) sendSync(ctx context.Context, j *job) error {
	payload, err := json.Marshal(j.event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.RetryDelay
	if bo.InitialInterval <= 0 {
		bo.InitialInterval = time.Millisecond
	}
	retries := c.config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)

	return backoff.Retry(func() error {
		req, err := createRequest(ctx, j.hook, payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		statusErr := fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(statusErr)
		}
		return statusErr
	}, policy)
}

func createRequest(ctx context.Context, hook HookConfig, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sgov-webhook/1.0")
	if hook.Secret != "" {
		req.Header.Set("X-Sgov-Signature", Sign(payload, hook.Secret))
	}
	return req, nil
}

// Sign creates an HMAC-SHA256 signature for the payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func matchesEvent(hook HookConfig, event EventType) bool {
	if len(hook.Events) == 0 {
		return true
	}
	for _, e := range hook.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

// Close drains queued events and stops the worker.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()
	c.wg.Wait()
	return nil
}
