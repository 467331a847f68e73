// Package execution talks to the remote service that formats and evaluates scripts.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/andythehood/datatransformer-playground/pkg/models"
)

var (
	// ErrBusy is returned when a playground already has the maximum number of runs in flight
	ErrBusy = errors.New("concurrency limit reached")

	// ErrUnavailable is returned when the service cannot be reached or answers with garbage
	ErrUnavailable = errors.New("execution service unavailable")
)

// maxResponseBytes caps how much of a service response is read
const maxResponseBytes = 10 * 1024 * 1024

// Client calls the execution service
type Client struct {
	baseURL     string
	http        *http.Client
	concurrency map[string]*semaphore.Weighted
	slots       int64
	mu          sync.Mutex
}

// NewClient creates a client for the service at baseURL. Each playground may
// have at most maxConcurrent requests in flight.
func NewClient(baseURL string, timeout time.Duration, maxConcurrent int) *Client {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		concurrency: make(map[string]*semaphore.Weighted),
		slots:       int64(maxConcurrent),
	}
}

// Exec evaluates a script on behalf of playground
func (c *Client) Exec(ctx context.Context, playground string, req models.ExecRequest) (*models.ExecResponse, error) {
	if req.ExtVars == nil {
		req.ExtVars = []models.ExternalVariable{}
	}

	if err := c.acquireSlot(playground); err != nil {
		return nil, err
	}
	defer c.releaseSlot(playground)

	return c.post(ctx, "/exec", req)
}

// Format asks the service to reformat a snippet
func (c *Client) Format(ctx context.Context, snippet string) (*models.ExecResponse, error) {
	return c.post(ctx, "/format", models.FormatRequest{Snippet: snippet})
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (*models.ExecResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var result models.ExecResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: status %d with an unreadable body: %v", ErrUnavailable, resp.StatusCode, err)
	}
	if result.Status == 0 {
		result.Status = resp.StatusCode
	}
	return &result, nil
}

// acquireSlot tries to acquire a concurrency slot for the playground
func (c *Client) acquireSlot(playground string) error {
	c.mu.Lock()
	sem, exists := c.concurrency[playground]
	if !exists {
		sem = semaphore.NewWeighted(c.slots)
		c.concurrency[playground] = sem
	}
	c.mu.Unlock()

	if !sem.TryAcquire(1) {
		return fmt.Errorf("%w for playground %s", ErrBusy, playground)
	}
	return nil
}

// releaseSlot releases a concurrency slot for the playground
func (c *Client) releaseSlot(playground string) {
	c.mu.Lock()
	sem := c.concurrency[playground]
	c.mu.Unlock()

	if sem != nil {
		sem.Release(1)
	}
}
