package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// ContentFetcher retrieves content bytes by URL for the synchronous
// analysis surface.
type ContentFetcher interface {
	Fetch(ctx context.Context, contentURL string) ([]byte, error)
}

// HTTPFetcher implements ContentFetcher with pooled connections and
// bounded retries.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(maxBytes int64) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// Fetch downloads the content with Fibonacci backoff. Network failures and
// 5xx responses are retried up to three times; 4xx responses are permanent.
func (h *HTTPFetcher) Fetch(ctx context.Context, contentURL string) ([]byte, error) {
	var data []byte

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
		req.Header.Set("User-Agent", "Go-Content-Moderator/1.0")

		resp, err := h.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("server error: status code %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("client error: status code %d", resp.StatusCode)
		}

		// Read one byte past the limit so truncation is detectable: a
		// partially fetched image must never reach detection.
		data, err = io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read body: %w", err))
		}
		if int64(len(data)) > h.maxBytes {
			return fmt.Errorf("content exceeds the %d byte limit", h.maxBytes)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	return data, nil
}
