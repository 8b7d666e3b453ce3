package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request. An empty token sends no Authorization header.
func (c *HTTPClient) Get(ctx context.Context, url, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body. An empty token sends
// no Authorization header.
func (c *HTTPClient) Post(ctx context.Context, url, token string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.client.Do(req)
}

// postDecoded posts a body and decodes the JSON response into out when
// the status matches want. The response body is always drained.
func (c *HTTPClient) postDecoded(ctx context.Context, url, token string, body, out interface{}, want int) error {
	resp, err := c.Post(ctx, url, token, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// getDecoded fetches a URL and decodes the JSON response into out.
func (c *HTTPClient) getDecoded(ctx context.Context, url, token string, out interface{}) error {
	resp, err := c.Get(ctx, url, token)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// forEach runs fn over count items with a worker pool, counting
// failures and reporting progress once per second.
func forEach(ctx context.Context, config *Config, label string, count int, fn func(index int) error) (failed int) {
	var (
		done     int64
		failures int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					if err := fn(index); err != nil {
						atomic.AddInt64(&failures, 1)
						if config.Verbose {
							log.Printf("%s %d failed: %v", label, index, err)
						}
					}
					atomic.AddInt64(&done, 1)

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						log.Printf("%s: %d/%d done (failed: %d)",
							label, atomic.LoadInt64(&done), count, atomic.LoadInt64(&failures))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()
	return int(atomic.LoadInt64(&failures))
}
