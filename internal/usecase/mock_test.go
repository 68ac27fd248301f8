//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-weather-bot/internal/domain"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/adapter"
	"telegram-weather-bot/internal/infra/i18n"
)

// -----------------------------
// Mock TelegramBotAdapter
// -----------------------------

type sentMessage struct {
	ChatID  int64
	Text    string
	Buttons [][]adapter.InlineButton
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendMessageFunc func(ctx context.Context, chatID int64, text string) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, chatID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text, Buttons: rows})
	return nil
}

func (m *MockTelegramBot) SentTo(chatID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.Sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func (m *MockTelegramBot) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// -----------------------------
// Mock WeatherProvider
// -----------------------------

type MockWeatherProvider struct {
	mu      sync.Mutex
	Fetches int

	FetchFunc func(ctx context.Context, city string) (*model.WeatherReport, error)
}

var _ adapter.WeatherProvider = (*MockWeatherProvider)(nil)

func (m *MockWeatherProvider) Fetch(ctx context.Context, city string) (*model.WeatherReport, error) {
	m.mu.Lock()
	m.Fetches++
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, city)
	}
	return &model.WeatherReport{
		City:         city,
		TemperatureC: 21.5,
		Description:  "clear sky",
		HumidityPct:  40,
		WindSpeedMS:  3.2,
		FetchedAt:    time.Now(),
	}, nil
}

func (m *MockWeatherProvider) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fetches
}

// notFoundWeather rejects every city.
func notFoundWeather() *MockWeatherProvider {
	return &MockWeatherProvider{
		FetchFunc: func(ctx context.Context, city string) (*model.WeatherReport, error) {
			return nil, domain.ErrCityNotFound
		},
	}
}

// -----------------------------
// Mock TranslationProvider
// -----------------------------

type MockTranslator struct {
	TranslateFunc func(ctx context.Context, text string, from, to model.Language) (string, error)
	Calls         int
	mu            sync.Mutex
}

var _ adapter.TranslationProvider = (*MockTranslator)(nil)

func (m *MockTranslator) Translate(ctx context.Context, text string, from, to model.Language) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, from, to)
	}
	return text, nil
}

// -----------------------------
// Helpers
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestBundle loads the real embedded locales so the tests exercise the
// same reply texts production uses.
func newTestBundle() *i18n.Bundle {
	bundle, err := i18n.NewBundle(i18n.LocalesFS, model.DefaultLanguage)
	if err != nil {
		panic(err)
	}
	return bundle
}
