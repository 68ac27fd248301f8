// File: internal/infra/adapters/translate/google.go
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"telegram-weather-bot/internal/config"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.TranslationProvider = (*GoogleTranslateProvider)(nil)

// GoogleTranslateProvider calls the public gtx translate endpoint. The call
// is strictly best-effort: the use case falls back to the source text on any
// error here, so failures are warnings, never user-visible.
type GoogleTranslateProvider struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

func NewGoogleTranslateProvider(cfg *config.TranslateConfig, logger *zerolog.Logger) (*GoogleTranslateProvider, error) {
	if cfg == nil {
		return nil, errors.New("translate config is nil")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid translate base url: %w", err)
	}
	compLog := logger.With().Str("component", "GoogleTranslateProvider").Logger()
	return &GoogleTranslateProvider{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     &compLog,
	}, nil
}

func (p *GoogleTranslateProvider) Translate(ctx context.Context, text string, from, to model.Language) (string, error) {
	if text == "" || from == to {
		return text, nil
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", string(from))
	q.Set("tl", string(to))
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate endpoint returned status %d", resp.StatusCode)
	}

	// Response shape: [[["<translated>","<source>",...], ...], ...]
	// Only the first element is stable; everything after it varies by request.
	var outer []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&outer); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	if len(outer) == 0 {
		return "", errors.New("empty translation response")
	}
	var segments []json.RawMessage
	if err := json.Unmarshal(outer[0], &segments); err != nil {
		return "", fmt.Errorf("decode translation segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		var parts []json.RawMessage
		if err := json.Unmarshal(seg, &parts); err != nil || len(parts) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(parts[0], &piece); err != nil {
			continue
		}
		sb.WriteString(piece)
	}
	translated := sb.String()
	if translated == "" {
		return "", errors.New("translation response carried no text")
	}
	return translated, nil
}

// NopProvider satisfies adapter.TranslationProvider when translation is
// disabled in config; it reports every call as failed so callers use their
// fallback path without special-casing.
type NopProvider struct{}

func NewNopProvider() NopProvider { return NopProvider{} }

func (NopProvider) Translate(ctx context.Context, text string, from, to model.Language) (string, error) {
	return "", errors.New("translation disabled")
}
