// Package translate expands ingredient terms through an external translation
// API. Store inventories carry local-language product names, so resolving
// their English concepts often needs the translated form as a second lookup
// key.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/service"
)

// Config holds translation client settings.
type Config struct {
	// BaseURL is the translation endpoint (LibreTranslate-compatible).
	BaseURL string
	// APIKey is sent with each request when set.
	APIKey string
	// SourceLang is the inventory language; "auto" lets the API detect it.
	SourceLang string
	// TargetLang is the ontology language.
	TargetLang string
	// Timeout bounds a single request.
	Timeout time.Duration
	// Retry controls backoff for transient failures.
	Retry service.RetryOptions
}

// DefaultConfig returns translation settings suitable for a local
// LibreTranslate instance.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:5000",
		SourceLang: "auto",
		TargetLang: "en",
		Timeout:    10 * time.Second,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Expander translates terms over HTTP and caches results for the lifetime of
// the process. It satisfies ontology.TermExpander.
type Expander struct {
	client *resty.Client
	config Config
	cache  map[string]string
}

// New creates a translation expander with default settings.
func New(baseURL string) *Expander {
	config := DefaultConfig()
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return NewWithConfig(config)
}

// NewWithConfig creates a translation expander with custom settings.
func NewWithConfig(config Config) *Expander {
	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Expander{
		client: client,
		config: config,
		cache:  make(map[string]string),
	}
}

// Expand returns alternate forms of term. The first element is always the
// term itself; a successful translation that differs from the input is
// appended. Import runs sequentially, so the cache is not locked.
func (e *Expander) Expand(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	if translated, ok := e.cache[term]; ok {
		return expansion(term, translated), nil
	}

	var translated string
	err := common.WithRetry(ctx, func() error {
		var opErr error
		translated, opErr = e.translate(ctx, term)
		return opErr
	}, e.config.Retry)
	if err != nil {
		return []string{term}, fmt.Errorf("%w: %v", common.ErrTranslateUnavailable, err)
	}

	e.cache[term] = translated
	return expansion(term, translated), nil
}

func (e *Expander) translate(ctx context.Context, term string) (string, error) {
	body := map[string]string{
		"q":      term,
		"source": e.config.SourceLang,
		"target": e.config.TargetLang,
		"format": "text",
	}
	if e.config.APIKey != "" {
		body["api_key"] = e.config.APIKey
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/translate")
	if err != nil {
		return "", &common.RetryableError{Err: fmt.Errorf("translate request failed: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return "", common.ErrRateLimit
	case resp.StatusCode() >= 500:
		return "", &common.RetryableError{
			Err:       fmt.Errorf("translate API returned %d", resp.StatusCode()),
			Retryable: true,
		}
	case resp.StatusCode() != http.StatusOK:
		return "", &common.RetryableError{
			Err:       fmt.Errorf("translate API returned %d: %s", resp.StatusCode(), resp.String()),
			Retryable: false,
		}
	}

	var result struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("failed to parse translate response: %w", err),
			Retryable: false,
		}
	}
	if result.TranslatedText == "" {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("empty translation for %q", term),
			Retryable: false,
		}
	}

	return result.TranslatedText, nil
}

func expansion(term, translated string) []string {
	if strings.EqualFold(term, translated) {
		return []string{term}
	}
	return []string{term, translated}
}
