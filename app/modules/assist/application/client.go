package assistservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL            = "https://api.openai.com/v1"
	DefaultChatModel          = "gpt-4o-mini"
	DefaultTranscriptionModel = "whisper-1"
	DefaultMaxTokens          = 300
	DefaultTemperature        = 0.3
	DefaultTimeout            = 30 * time.Second

	topP = 0.9

	// maxErrorBody caps how much of a failed response is kept in APIError.
	maxErrorBody = 2048
)

// Config configures the OpenAI-compatible backend.
type Config struct {
	BaseURL            string
	APIKey             string
	ChatModel          string
	TranscriptionModel string
	Timeout            time.Duration
	MaxTokens          int
	Temperature        float64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = DefaultTranscriptionModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// Option customises a client.
type Option func(*apiClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *apiClient) { a.http = c }
}

// WithTripAfter sets how many consecutive backend failures open the breaker.
func WithTripAfter(n uint32) Option {
	return func(a *apiClient) { a.tripAfter = n }
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) Option {
	return func(a *apiClient) { a.openTimeout = d }
}

// apiClient sends bearer-authenticated requests through a circuit breaker.
type apiClient struct {
	cfg         Config
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker
	logger      *slog.Logger
	tripAfter   uint32
	openTimeout time.Duration
}

func newAPIClient(name string, cfg Config, logger *slog.Logger, opts ...Option) (*apiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg = cfg.withDefaults()
	a := &apiClient{
		cfg:         cfg,
		http:        &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
		tripAfter:   5,
		openTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.http = &http.Client{
		Timeout: a.http.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey}),
			Base:   a.http.Transport,
		},
	}

	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     a.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= a.tripAfter
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			// A caller giving up is not a backend failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Assist circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from_state", from.String()),
				slog.String("to_state", to.String()),
			)
		},
	})
	return a, nil
}

// post sends body to path and decodes a JSON answer into out.
func (a *apiClient) post(ctx context.Context, path, contentType string, body []byte, out any) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := a.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return nil, nil
	})
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", roundservice.ErrAssistUnavailable, err)
	}
	return err
}

// isUnavailable reports whether err means the backend cannot serve right now,
// as opposed to having rejected the request.
func isUnavailable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, context.Canceled)
}
