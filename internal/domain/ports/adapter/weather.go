package adapter

import (
	"context"

	"telegram-weather-bot/internal/domain/model"
)

// WeatherProvider abstracts a current-conditions data source
// (e.g. OpenWeatherMap). Implementations return the description in English;
// localization happens in the use case layer.
//
// Errors are mapped to the domain taxonomy: domain.ErrCityNotFound,
// domain.ErrProviderUnavailable, domain.ErrMalformedResponse.
type WeatherProvider interface {
	Fetch(ctx context.Context, city string) (*model.WeatherReport, error)
}
