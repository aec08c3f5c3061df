package ris

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/ris-station-index/internal/observability"
)

// AcceptRIS is the vendor media type served by RIS APIs.
const AcceptRIS = "application/vnd.de.db.ris+json"

// defaultRetryAfter applies when a 429 response carries no usable Retry-After header.
const defaultRetryAfter = 2 * time.Second

// maxBodySnippet bounds how much of an error or unexpected body ends up in logs.
const maxBodySnippet = 400

// Credentials are the DB API Marketplace client credentials sent with every request.
type Credentials struct {
	ClientID string
	APIKey   string
}

// Client reads the RIS-Stations directory.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a RIS-Stations client. baseURL is the API root without
// the /stations path, e.g. config.DefaultRISBaseURL.
func NewClient(creds Credentials, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		creds: creds,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
}

// Page is one decoded /stations response.
type Page struct {
	Stations []json.RawMessage
	// Unexpected is set when the body was valid JSON but neither an array nor
	// an object with a "stations" array. Raw then holds the body.
	Unexpected bool
	Raw        json.RawMessage
}

// StatusError is a non-2xx, non-429 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ris API error: status %d: %s", e.StatusCode, e.Body)
}

// rateLimitedError is a 429 response. It is retried after RetryAfter.
type rateLimitedError struct {
	RetryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("ris API rate limited: retry after %s", e.RetryAfter)
}

// FetchPage requests one page of the station directory. A 429 response is
// retried after the server-supplied delay for as long as it keeps coming;
// only ctx cancellation ends that loop early. Any other failure is returned
// unretried.
func (c *Client) FetchPage(ctx context.Context, limit, offset int) (Page, error) {
	params := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	fullURL := c.baseURL + "/stations?" + params.Encode()

	policy := &serverDirected{}
	op := func() (Page, error) {
		page, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return page, nil
		}
		var rl *rateLimitedError
		if errors.As(err, &rl) {
			policy.next = rl.RetryAfter
			return Page{}, err
		}
		return Page{}, backoff.Permanent(err)
	}
	notify := func(_ error, wait time.Duration) {
		c.metrics.RateLimitWaits.Inc()
		c.logger.Warn("rate limited, waiting before retry",
			"retry_after", wait,
			"limit", limit,
			"offset", offset,
		)
	}

	return backoff.RetryNotifyWithTimerAndData(op, backoff.WithContext(policy, ctx), notify, newClockTimer(c.clock))
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("DB-Client-Id", c.creds.ClientID)
	req.Header.Set("DB-Api-Key", c.creds.APIKey)
	req.Header.Set("Accept", AcceptRIS)

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RISRequestDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.RISRequests.WithLabelValues("error").Inc()
		return Page{}, fmt.Errorf("stations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.metrics.RISRequests.WithLabelValues("rate_limited").Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return Page{}, &rateLimitedError{RetryAfter: c.retryAfter(resp.Header.Get("Retry-After"))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RISRequests.WithLabelValues("error").Inc()
		return Page{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RISRequests.WithLabelValues("error").Inc()
		return Page{}, &StatusError{StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	page, err := decodePage(body)
	if err != nil {
		c.metrics.RISRequests.WithLabelValues("error").Inc()
		return Page{}, err
	}
	c.metrics.RISRequests.WithLabelValues("success").Inc()
	return page, nil
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func (c *Client) retryAfter(h string) time.Duration {
	if h == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(h); err == nil {
		if d := at.Sub(c.clock.Now()); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}

// decodePage sniffs the response shape. Invalid JSON is an error; valid JSON
// of the wrong shape is reported through Page.Unexpected.
func decodePage(body []byte) (Page, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return Page{}, fmt.Errorf("decode response: non-JSON body: %s", snippet(body))
	}

	switch body[0] {
	case '[':
		var stations []json.RawMessage
		if err := json.Unmarshal(body, &stations); err != nil {
			return Page{}, fmt.Errorf("decode station list: %w", err)
		}
		return Page{Stations: stations}, nil
	case '{':
		var envelope struct {
			Stations json.RawMessage `json:"stations"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return Page{}, fmt.Errorf("decode station envelope: %w", err)
		}
		if s := bytes.TrimSpace(envelope.Stations); len(s) > 0 && s[0] == '[' {
			var stations []json.RawMessage
			if err := json.Unmarshal(s, &stations); err != nil {
				return Page{}, fmt.Errorf("decode station list: %w", err)
			}
			return Page{Stations: stations}, nil
		}
	}
	return Page{Unexpected: true, Raw: json.RawMessage(body)}, nil
}

func snippet(b []byte) string {
	if len(b) > maxBodySnippet {
		return string(b[:maxBodySnippet])
	}
	return string(b)
}
