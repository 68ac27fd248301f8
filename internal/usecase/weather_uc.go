package usecase

import (
	"context"

	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/adapter"
	"telegram-weather-bot/internal/infra/i18n"
	"telegram-weather-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ WeatherUseCase = (*weatherUC)(nil)

// WeatherUseCase turns a city into a localized, ready-to-send report.
type WeatherUseCase interface {
	// Report fetches current conditions for city with a single provider
	// call and formats them in lang. Errors carry the domain taxonomy
	// (ErrCityNotFound, ErrProviderUnavailable, ErrMalformedResponse).
	Report(ctx context.Context, city string, lang model.Language) (string, error)
}

type weatherUC struct {
	weather    adapter.WeatherProvider
	translator adapter.TranslationProvider
	bundle     *i18n.Bundle
	log        *zerolog.Logger
}

func NewWeatherUseCase(
	weather adapter.WeatherProvider,
	translator adapter.TranslationProvider,
	bundle *i18n.Bundle,
	logger *zerolog.Logger,
) *weatherUC {
	return &weatherUC{weather: weather, translator: translator, bundle: bundle, log: logger}
}

func (w *weatherUC) Report(ctx context.Context, city string, lang model.Language) (string, error) {
	report, err := w.weather.Fetch(ctx, city)
	if err != nil {
		return "", err
	}

	desc := w.localizeDescription(ctx, report.Description, lang)
	tr := w.bundle.For(lang)
	return tr.T("weather_report",
		report.City,
		report.TemperatureC,
		desc,
		report.HumidityPct,
		report.WindSpeedMS,
	), nil
}

// localizeDescription translates the provider's English description into the
// subscriber's language. Translation is strictly best-effort: any failure
// keeps the English text and the report still goes out.
func (w *weatherUC) localizeDescription(ctx context.Context, desc string, lang model.Language) string {
	if lang == model.LangEN || desc == "" {
		return desc
	}
	translated, err := w.translator.Translate(ctx, desc, model.LangEN, lang)
	if err != nil {
		metrics.IncTranslationFallback()
		w.log.Warn().Err(err).Str("language", string(lang)).Msg("translation failed, keeping english description")
		return desc
	}
	return translated
}
