package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/resilience"
)

// noCacheHeaders disable intermediate caching for polled documents.
var noCacheHeaders = map[string]string{
	"Cache-Control": "no-cache, no-store, must-revalidate",
	"Pragma":        "no-cache",
	"Expires":       "0",
}

// Options configures a Client.
type Options struct {
	Timeout           time.Duration
	RetryCount        int
	RequestsPerSecond float64
	UserAgent         string
	Logger            *zap.Logger
}

// Client fetches text documents with rate limiting and per-host breakers.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	log      *zap.Logger
}

// NewClient creates a fetch client.
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	pooled := retryablehttp.NewClient()
	pooled.Logger = nil

	restyClient := resty.New().
		SetTransport(pooled.HTTPClient.Transport).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := resp.StatusCode()
			return code >= 500 || code == http.StatusTooManyRequests
		})
	if opts.Timeout > 0 {
		restyClient.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		restyClient.SetHeader("User-Agent", opts.UserAgent)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	breakers := resilience.NewGroup("fetch", resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Fetch breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: breakers,
		log:      log,
	}
}

// FetchText GETs rawURL and returns the body as text. A non-empty token is
// sent as a bearer credential.
func (c *Client) FetchText(ctx context.Context, rawURL, token string) (string, error) {
	body, err := c.get(ctx, rawURL, token)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Exists reports whether a HEAD request for rawURL succeeds.
func (c *Client) Exists(ctx context.Context, rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	resp, err := resilience.Do(c.breakers.Get(host), func() (*resty.Response, error) {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetHeaders(noCacheHeaders).
			Head(rawURL)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			return resp, &StatusError{URL: rawURL, StatusCode: resp.StatusCode()}
		}
		return resp, nil
	}, countsAgainstHost)
	return err == nil && resp != nil
}

// BreakerStates exposes per-host breaker states for diagnostics.
func (c *Client) BreakerStates() map[string]string {
	return c.breakers.States()
}

func (c *Client) get(ctx context.Context, rawURL, token string) ([]byte, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return resilience.Do(c.breakers.Get(host), func() ([]byte, error) {
		req := c.resty.R().
			SetContext(ctx).
			SetHeaders(noCacheHeaders)
		if token != "" {
			req.SetAuthToken(token)
		}

		resp, err := req.Get(rawURL)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", rawURL, err)
		}
		if !resp.IsSuccess() {
			return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode()}
		}

		c.log.Debug("Fetched document",
			zap.String("url", rawURL),
			zap.Int("bytes", len(resp.Body())),
			zap.Duration("took", resp.Time()),
		)
		return resp.Body(), nil
	}, countsAgainstHost)
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u.Host, nil
}
