// File: internal/infra/adapters/weather/openweather.go
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"telegram-weather-bot/internal/config"
	"telegram-weather-bot/internal/domain"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/adapter"
	"telegram-weather-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.WeatherProvider = (*OpenWeatherMapProvider)(nil)

// OpenWeatherMapProvider implements adapter.WeatherProvider against the
// OpenWeatherMap current-conditions endpoint. Descriptions are requested in
// English; localization is the use case layer's job.
type OpenWeatherMapProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

func NewOpenWeatherMapProvider(cfg *config.WeatherConfig, logger *zerolog.Logger) (*OpenWeatherMapProvider, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("weather api key empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid weather base url: %w", err)
	}
	compLog := logger.With().Str("component", "OpenWeatherMapProvider").Logger()
	return &OpenWeatherMapProvider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     &compLog,
	}, nil
}

// owmResponse mirrors the subset of the provider payload we consume.
// Pointers distinguish "absent" from zero values so a response missing
// required fields maps to ErrMalformedResponse instead of silent zeros.
type owmResponse struct {
	Cod     json.Number `json:"cod"` // the provider returns int on success, string on errors
	Message string      `json:"message"`
	Main    *struct {
		Temp     *float64 `json:"temp"`
		Humidity *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

func (p *OpenWeatherMapProvider) Fetch(ctx context.Context, city string) (*model.WeatherReport, error) {
	if city == "" {
		return nil, domain.ErrInvalidArgument
	}
	start := time.Now()
	report, err := p.fetch(ctx, city)
	latencyMs := int(time.Since(start).Milliseconds())
	metrics.ObserveWeatherFetch(statusLabel(err), latencyMs)
	return report, err
}

func (p *OpenWeatherMapProvider) fetch(ctx context.Context, city string) (*model.WeatherReport, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", p.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		// Network fault or the client-level timeout ceiling.
		p.log.Warn().Err(err).Str("city", city).Msg("weather request failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	// Map the HTTP status before touching the body. Gateways in front of the
	// provider answer 5xx with HTML, which is not a malformed provider reply.
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", domain.ErrCityNotFound, city)
	case resp.StatusCode >= 500:
		p.log.Warn().Int("status", resp.StatusCode).Str("city", city).Msg("weather provider error")
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var out owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode != http.StatusOK {
			p.log.Warn().Err(err).Int("status", resp.StatusCode).Str("city", city).Msg("weather provider rejected request")
			return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
		}
		p.log.Warn().Err(err).Str("city", city).Msg("undecodable weather response")
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		// 401/429 and friends: not the user's fault, keep the full detail in logs only.
		p.log.Warn().Int("status", resp.StatusCode).Str("message", out.Message).Msg("weather provider rejected request")
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, out.Message)
	}

	// The provider also reports errors through the body "cod" field.
	if cod, err := out.Cod.Int64(); err == nil && cod != http.StatusOK {
		if cod == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %q", domain.ErrCityNotFound, city)
		}
		return nil, fmt.Errorf("%w: cod %d: %s", domain.ErrProviderUnavailable, cod, out.Message)
	}

	if out.Main == nil || out.Main.Temp == nil || out.Main.Humidity == nil ||
		len(out.Weather) == 0 || out.Weather[0].Description == "" ||
		out.Wind == nil || out.Wind.Speed == nil {
		p.log.Warn().Str("city", city).Msg("weather response missing required fields")
		return nil, fmt.Errorf("%w: missing fields", domain.ErrMalformedResponse)
	}

	return &model.WeatherReport{
		City:         city,
		TemperatureC: *out.Main.Temp,
		Description:  out.Weather[0].Description,
		HumidityPct:  *out.Main.Humidity,
		WindSpeedMS:  *out.Wind.Speed,
		FetchedAt:    time.Now(),
	}, nil
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCityNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "unavailable"
	}
}
