package iss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/metrics"
	httpClient "github.com/Alias1177/VolumeAnomaly/internal/platform/http"
	"github.com/Alias1177/VolumeAnomaly/models"
)

const (
	historyPath = "/history/engines/stock/markets/shares/securities.json"
	userAgent   = "volume-anomaly-detector/1.0"
)

var (
	// ErrFetchExhausted is returned once every attempt for a date has failed
	// with a retryable error.
	ErrFetchExhausted = errors.New("fetch exhausted")
	// ErrFetchFatal is returned for failures that retrying cannot fix.
	ErrFetchFatal = errors.New("fetch failed")
)

// Client is the exchange history API client
type Client struct {
	baseURL     string
	pageSize    int
	pageDelay   time.Duration
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *httpClient.Client
	recorder    metrics.Recorder
	sleep       func(ctx context.Context, d time.Duration) error
	logger      zerolog.Logger
}

// ClientOptions holds options for creating a new history client
type ClientOptions struct {
	BaseURL        string
	PageSize       int
	PageDelay      time.Duration
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxAttempts    int
	RetryDelay     time.Duration
}

// Option customizes a Client beyond ClientOptions.
type Option func(*Client)

// WithRecorder reports attempts and pages to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithSleep replaces the function used for page pauses and retry cooldowns.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

// NewClient creates a new history API client
func NewClient(options ClientOptions, opts ...Option) *Client {
	// Apply defaults if not set
	if options.PageSize <= 0 {
		options.PageSize = 100
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = 5
	}

	c := &Client{
		baseURL:     options.BaseURL,
		pageSize:    options.PageSize,
		pageDelay:   options.PageDelay,
		maxAttempts: options.MaxAttempts,
		retryDelay:  options.RetryDelay,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			UserAgent:      userAgent,
		}),
		recorder: metrics.Noop{},
		sleep:    sleepContext,
		logger:   log.With().Str("component", "iss_client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type retryState int

const (
	stateAttempting retryState = iota
	stateCooldown
	stateExhausted
)

// FetchRows downloads every history row for date. Each attempt walks all
// pages from offset zero; a retryable failure on any page restarts the whole
// date after the cooldown. A date without trading returns an empty slice.
func (c *Client) FetchRows(ctx context.Context, date string) ([]models.RawRow, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFatal, err)
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1))
	policy.Reset()

	var (
		state   = stateAttempting
		attempt int
		result  attemptResult
		wait    time.Duration
	)

	for {
		switch state {
		case stateAttempting:
			attempt++
			result = c.attempt(ctx, date)
			c.recorder.RecordFetchAttempt(result.outcome.String())

			switch result.outcome {
			case outcomeSuccess:
				c.logger.Info().Str("date", date).Int("rows", len(result.rows)).Int("attempt", attempt).Msg("Fetched history")
				return result.rows, nil
			case outcomeFatal:
				c.logger.Error().Err(result.err).Str("date", date).Msg("History fetch failed permanently")
				return nil, fmt.Errorf("%w for %s: %w", ErrFetchFatal, date, result.err)
			}

			if wait = policy.NextBackOff(); wait == backoff.Stop {
				state = stateExhausted
			} else {
				state = stateCooldown
			}

		case stateCooldown:
			c.logger.Warn().
				Err(result.err).
				Str("date", date).
				Int("attempt", attempt).
				Int("max_attempts", c.maxAttempts).
				Dur("retry_in", wait).
				Msg("History fetch failed, retrying")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w for %s: %w", ErrFetchFatal, date, err)
			}
			state = stateAttempting

		case stateExhausted:
			c.logger.Error().Err(result.err).Str("date", date).Int("attempts", attempt).Msg("History fetch exhausted")
			return nil, fmt.Errorf("%w for %s after %d attempts: %w", ErrFetchExhausted, date, attempt, result.err)
		}
	}
}

// attempt fetches all pages once. Paging stops on the first page the
// upstream returned short, counted before rows without an identifier are
// dropped.
func (c *Client) attempt(ctx context.Context, date string) attemptResult {
	var all []models.RawRow
	for start := 0; ; start += c.pageSize {
		pg, err := c.fetchPage(ctx, date, start)
		if err != nil {
			return classify(ctx, err)
		}
		c.recorder.RecordPage(pg.returned)
		all = append(all, pg.rows...)

		if pg.returned < c.pageSize {
			break
		}
		// Full page: more may follow, pause to stay under the upstream throttle
		if err := c.sleep(ctx, c.pageDelay); err != nil {
			return attemptResult{outcome: outcomeFatal, err: err}
		}
	}
	if all == nil {
		all = []models.RawRow{}
	}
	return attemptResult{outcome: outcomeSuccess, rows: all}
}

func (c *Client) fetchPage(ctx context.Context, date string, start int) (historyPage, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("iss.meta", "off")
	params.Set("iss.only", "history")
	params.Set("history.columns", requestedColumns)
	params.Set("start", strconv.Itoa(start))

	reqURL := c.baseURL + historyPath + "?" + params.Encode()
	c.logger.Debug().Str("url", reqURL).Msg("Fetching history page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return historyPage{}, &schemaError{msg: "creating request", err: err}
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return historyPage{}, err
	}
	defer resp.Body.Close()

	var payload historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return historyPage{}, &schemaError{msg: fmt.Sprintf("page at %d has unexpected shape", start), err: err}
		}
		return historyPage{}, fmt.Errorf("decoding page at %d: %w", start, err)
	}

	return payload.decodePage()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
