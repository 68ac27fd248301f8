package adapter

import (
	"context"

	"telegram-weather-bot/internal/domain/model"
)

// TranslationProvider translates short texts between the supported languages.
// It is strictly best-effort: callers must treat any error as a degradation,
// never as a failure of the surrounding operation.
type TranslationProvider interface {
	Translate(ctx context.Context, text string, from, to model.Language) (string, error)
}
