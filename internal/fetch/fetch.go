// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch issues authenticated, throttled GET requests against the
// provider's APIs, rotating API keys and backing off on rate limits.
// Implements: prd002-transport (R1-R3);
//
//	docs/ARCHITECTURE § Transport.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/biblio-engine/internal/throttle"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Authentication headers expected by the provider.
const (
	headerAPIKey    = "X-ELS-APIKey"
	headerInstToken = "X-ELS-Insttoken"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// StatusError reports a non-success HTTP status from the provider, with a
// short body excerpt for context (R1.4).
type StatusError struct {
	API        string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("%s API returned status %d: %s", e.API, e.StatusCode, e.Snippet)
	}
	return fmt.Sprintf("%s API returned status %d", e.API, e.StatusCode)
}

// Response is a fully read API response. Header is retained so callers
// can inspect rate-limit quota after the body is consumed.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client issues GET requests with the configured credentials. A 429 first
// rotates to the next configured API key; once keys are exhausted it
// backs off exponentially starting at RetryBaseDelay. Safe for concurrent
// use.
type Client struct {
	http      *http.Client
	gate      *throttle.Gate
	userAgent string
	retries   int
	insttoken string
	log       *logrus.Entry

	mu       sync.Mutex
	keys     []string
	keyIndex int
}

// NewClient builds a Client from the request and authentication
// configuration sections.
func NewClient(reqCfg types.RequestsConfig, auth types.AuthConfig, gate *throttle.Gate) *Client {
	return &Client{
		http:      &http.Client{Timeout: reqCfg.Timeout},
		gate:      gate,
		userAgent: reqCfg.UserAgent,
		retries:   reqCfg.Retries,
		insttoken: auth.InstToken,
		keys:      auth.APIKeys,
		log:       logrus.WithField("component", "fetch"),
	}
}

// Get performs one authenticated GET against an API endpoint, merging
// params into the URL's query string. Non-2xx statuses become a
// *StatusError after the retry ladder is exhausted.
func (c *Client) Get(ctx context.Context, rawURL, api string, params url.Values) (*Response, error) {
	if err := c.gate.Wait(ctx, api); err != nil {
		return nil, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s URL: %w", api, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q[k] = append(q[k], vs...)
		}
		u.RawQuery = q.Encode()
	}

	resp, err := c.doWithRetry(ctx, api, u.String())
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, &StatusError{API: api, StatusCode: resp.Status, Snippet: snippet(resp.Body)}
	}
	return resp, nil
}

// doWithRetry retries 429 responses. The delay doubles each backoff
// attempt: 10 s, 20 s, 40 s, 80 s, 160 s with the default base. After
// exhausting retries the last 429 response is returned so the caller can
// inspect its headers.
func (c *Client) doWithRetry(ctx context.Context, api, u string) (*Response, error) {
	retries := c.retries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	backoffs := 0
	for {
		resp, err := c.do(ctx, api, u)
		if err != nil {
			return nil, err
		}
		if resp.Status != http.StatusTooManyRequests {
			return resp, nil
		}

		// A throttled key may simply be spent for the week. Move to
		// the next configured key before burning wall-clock time.
		if c.rotateKey() {
			c.log.WithField("api", api).Info("quota exhausted, rotating to next key")
			continue
		}

		if backoffs >= retries {
			return resp, nil
		}
		backoff := time.Duration(math.Pow(2, float64(backoffs))) * RetryBaseDelay
		c.log.WithFields(logrus.Fields{
			"api":     api,
			"wait":    backoff.String(),
			"attempt": backoffs + 1,
		}).Warn("rate limited, backing off")
		backoffs++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// do issues a single request with the current key and reads the body.
func (c *Client) do(ctx context.Context, api, u string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", api, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if key := c.currentKey(); key != "" {
		req.Header.Set(headerAPIKey, key)
	}
	if c.insttoken != "" {
		req.Header.Set(headerInstToken, c.insttoken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", api, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", api, err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) currentKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.keys) == 0 {
		return ""
	}
	return c.keys[c.keyIndex]
}

// rotateKey advances to the next configured API key, reporting false when
// no unused key remains.
func (c *Client) rotateKey() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyIndex+1 < len(c.keys) {
		c.keyIndex++
		return true
	}
	return false
}

// snippet trims a response body for use in error messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
