//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"telegram-weather-bot/internal/domain"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/infra/memory"
	"telegram-weather-bot/internal/infra/worker"
	"telegram-weather-bot/internal/usecase"
)

// convFixture wires the conversation flow against real in-memory repositories
// and mocked providers.
type convFixture struct {
	conv    usecase.ConversationUseCase
	subs    usecase.SubscriptionUseCase
	bot     *MockTelegramBot
	weather *MockWeatherProvider
	stop    func()
}

func newConvFixture(t *testing.T, weatherProvider *MockWeatherProvider) *convFixture {
	t.Helper()
	log := newTestLogger()
	bundle := newTestBundle()
	bot := &MockTelegramBot{}

	subRepo := memory.NewSubscriberRepo(model.DefaultLanguage)
	stateRepo := memory.NewStateRepo()

	pool := worker.NewPool(2, log)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	subUC := usecase.NewSubscriptionUseCase(subRepo, log)
	weatherUC := usecase.NewWeatherUseCase(weatherProvider, &MockTranslator{}, bundle, log)
	dispatchUC := usecase.NewDispatchUseCase(subRepo, weatherUC, bot, pool, 1000, log)
	conv := usecase.NewConversationUseCase(stateRepo, subUC, weatherUC, dispatchUC, bot, bundle, 60*time.Minute, log)

	return &convFixture{
		conv:    conv,
		subs:    subUC,
		bot:     bot,
		weather: weatherProvider,
		stop: func() {
			cancel()
			pool.Stop()
		},
	}
}

func TestConversationCityRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("start then valid city subscribes and delivers first report", func(t *testing.T) {
		f := newConvFixture(t, &MockWeatherProvider{})
		defer f.stop()

		replies, err := f.conv.HandleCommand(ctx, 100, "start")
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if len(replies) != 2 {
			t.Fatalf("expected help + city prompt, got %d replies", len(replies))
		}

		replies, err = f.conv.HandleText(ctx, 100, "Paris")
		if err != nil {
			t.Fatalf("city input: %v", err)
		}
		if len(replies) != 2 {
			t.Fatalf("expected confirmation + report, got %d replies", len(replies))
		}
		if !strings.Contains(replies[0].Text, "Paris") {
			t.Errorf("confirmation should mention the city: %q", replies[0].Text)
		}
		if !strings.Contains(replies[1].Text, "Paris") {
			t.Errorf("report should mention the city: %q", replies[1].Text)
		}
		if got := f.weather.FetchCount(); got != 1 {
			t.Errorf("validation and first report must share one fetch, got %d", got)
		}

		sub, err := f.subs.Get(ctx, 100)
		if err != nil {
			t.Fatalf("subscriber not registered: %v", err)
		}
		if sub.City != "Paris" || !sub.Eligible() {
			t.Errorf("unexpected subscriber record: %+v", sub)
		}
	})

	t.Run("unknown city keeps retrying and creates no subscriber", func(t *testing.T) {
		f := newConvFixture(t, notFoundWeather())
		defer f.stop()

		if _, err := f.conv.HandleCommand(ctx, 200, "start"); err != nil {
			t.Fatalf("start: %v", err)
		}
		replies, err := f.conv.HandleText(ctx, 200, "Atlantis")
		if err != nil {
			t.Fatalf("city input: %v", err)
		}
		if len(replies) != 1 || !strings.Contains(replies[0].Text, "Atlantis") {
			t.Fatalf("expected retry prompt echoing input, got %+v", replies)
		}
		if _, err := f.subs.Get(ctx, 200); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("no subscriber should exist after a rejected city, got err=%v", err)
		}

		// Resending the rejected input re-prompts without another fetch.
		fetches := f.weather.FetchCount()
		replies, err = f.conv.HandleText(ctx, 200, "Atlantis")
		if err != nil {
			t.Fatalf("resubmission: %v", err)
		}
		if len(replies) != 1 || !strings.Contains(replies[0].Text, "Atlantis") {
			t.Fatalf("expected retry prompt for the resubmission, got %+v", replies)
		}
		if got := f.weather.FetchCount(); got != fetches {
			t.Errorf("identical resubmission must not hit the provider, fetches %d -> %d", fetches, got)
		}

		// The retry step accepts the next attempt.
		replies, err = f.conv.HandleText(ctx, 200, "Nowhere")
		if err != nil {
			t.Fatalf("retry input: %v", err)
		}
		if len(replies) != 1 {
			t.Fatalf("expected another retry prompt, got %+v", replies)
		}
	})

	t.Run("provider outage keeps the step pending", func(t *testing.T) {
		broken := true
		provider := &MockWeatherProvider{
			FetchFunc: func(ctx context.Context, city string) (*model.WeatherReport, error) {
				if broken {
					return nil, domain.ErrProviderUnavailable
				}
				return &model.WeatherReport{City: city, TemperatureC: 10, Description: "rain", HumidityPct: 80, WindSpeedMS: 2}, nil
			},
		}
		f := newConvFixture(t, provider)
		defer f.stop()

		if _, err := f.conv.HandleCommand(ctx, 201, "start"); err != nil {
			t.Fatal(err)
		}
		replies, err := f.conv.HandleText(ctx, 201, "Paris")
		if err != nil {
			t.Fatalf("city input during outage: %v", err)
		}
		if len(replies) != 1 {
			t.Fatalf("expected generic error reply, got %+v", replies)
		}
		if strings.Contains(replies[0].Text, "Paris") {
			t.Errorf("outage reply must not echo provider detail: %q", replies[0].Text)
		}

		// The step is still pending: the same input succeeds once the
		// provider recovers.
		broken = false
		replies, err = f.conv.HandleText(ctx, 201, "Paris")
		if err != nil {
			t.Fatal(err)
		}
		if len(replies) != 2 {
			t.Fatalf("expected confirmation + report after recovery, got %+v", replies)
		}
	})
}

func TestConversationChangeCommand(t *testing.T) {
	ctx := context.Background()
	f := newConvFixture(t, &MockWeatherProvider{})
	defer f.stop()

	if _, err := f.conv.HandleCommand(ctx, 300, "start"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.conv.HandleText(ctx, 300, "Paris"); err != nil {
		t.Fatal(err)
	}

	replies, err := f.conv.HandleCommand(ctx, 300, "change")
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("expected change prompt, got %+v", replies)
	}
	if _, err := f.conv.HandleText(ctx, 300, "Berlin"); err != nil {
		t.Fatal(err)
	}
	sub, err := f.subs.Get(ctx, 300)
	if err != nil {
		t.Fatal(err)
	}
	if sub.City != "Berlin" {
		t.Errorf("expected city Berlin, got %q", sub.City)
	}
}

func TestConversationLanguageFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("language before city creates a bare record", func(t *testing.T) {
		f := newConvFixture(t, &MockWeatherProvider{})
		defer f.stop()

		replies, err := f.conv.HandleCommand(ctx, 400, "language")
		if err != nil {
			t.Fatal(err)
		}
		if len(replies) != 1 || len(replies[0].Buttons) == 0 {
			t.Fatalf("expected language prompt with buttons, got %+v", replies)
		}

		replies, err = f.conv.HandleLanguageChoice(ctx, 400, "en")
		if err != nil {
			t.Fatal(err)
		}
		// Confirmation plus the hint to set a city.
		if len(replies) != 2 {
			t.Fatalf("expected 2 replies, got %+v", replies)
		}

		sub, err := f.subs.Get(ctx, 400)
		if err != nil {
			t.Fatalf("bare record should exist: %v", err)
		}
		if sub.Eligible() {
			t.Error("bare record must not be broadcast eligible")
		}

		// /now on a bare record prompts to /start first.
		replies, err = f.conv.HandleCommand(ctx, 400, "now")
		if err != nil {
			t.Fatal(err)
		}
		if len(replies) != 1 {
			t.Fatalf("expected start-first prompt, got %+v", replies)
		}
	})

	t.Run("free text language input is accepted case-insensitively", func(t *testing.T) {
		f := newConvFixture(t, &MockWeatherProvider{})
		defer f.stop()

		if _, err := f.conv.HandleCommand(ctx, 401, "language"); err != nil {
			t.Fatal(err)
		}
		replies, err := f.conv.HandleText(ctx, 401, "English")
		if err != nil {
			t.Fatal(err)
		}
		if len(replies) == 0 {
			t.Fatal("expected confirmation reply")
		}
		sub, err := f.subs.Get(ctx, 401)
		if err != nil {
			t.Fatal(err)
		}
		if string(sub.Language) != "en" {
			t.Errorf("expected language en, got %q", sub.Language)
		}
	})

	t.Run("invalid language input re-prompts and stays pending", func(t *testing.T) {
		f := newConvFixture(t, &MockWeatherProvider{})
		defer f.stop()

		if _, err := f.conv.HandleCommand(ctx, 402, "language"); err != nil {
			t.Fatal(err)
		}
		replies, err := f.conv.HandleText(ctx, 402, "klingon")
		if err != nil {
			t.Fatal(err)
		}
		if len(replies) != 1 {
			t.Fatalf("expected invalid-language reply, got %+v", replies)
		}

		// Still awaiting: a valid pick now succeeds.
		if _, err := f.conv.HandleText(ctx, 402, "ru"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.subs.Get(ctx, 402); err != nil {
			t.Errorf("language should have been applied on retry: %v", err)
		}
	})
}

func TestConversationStopCommand(t *testing.T) {
	ctx := context.Background()
	f := newConvFixture(t, &MockWeatherProvider{})
	defer f.stop()

	if _, err := f.conv.HandleCommand(ctx, 500, "start"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.conv.HandleText(ctx, 500, "Paris"); err != nil {
		t.Fatal(err)
	}

	replies, err := f.conv.HandleCommand(ctx, 500, "stop")
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 1 {
		t.Fatalf("expected stop confirmation, got %+v", replies)
	}
	if _, err := f.subs.Get(ctx, 500); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("subscriber should be gone after /stop, got err=%v", err)
	}

	// Second /stop reports not subscribed instead of erroring.
	second, err := f.conv.HandleCommand(ctx, 500, "stop")
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 || second[0].Text == replies[0].Text {
		t.Errorf("second stop should differ from first confirmation: %+v", second)
	}
}

func TestConversationNowCommand(t *testing.T) {
	ctx := context.Background()
	f := newConvFixture(t, &MockWeatherProvider{})
	defer f.stop()

	if _, err := f.conv.HandleCommand(ctx, 600, "start"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.conv.HandleText(ctx, 600, "Paris"); err != nil {
		t.Fatal(err)
	}
	f.bot.mu.Lock()
	f.bot.Sent = nil
	f.bot.mu.Unlock()

	replies, err := f.conv.HandleCommand(ctx, 600, "now")
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 0 {
		t.Fatalf("successful /now sends directly, expected no replies, got %+v", replies)
	}
	sent := f.bot.SentTo(600)
	// Progress notice plus the report itself.
	if len(sent) != 2 {
		t.Fatalf("expected 2 direct sends, got %d", len(sent))
	}
	if !strings.Contains(sent[1].Text, "Paris") {
		t.Errorf("report should mention the city: %q", sent[1].Text)
	}
}

func TestConversationCommandInterruptsPendingFlow(t *testing.T) {
	ctx := context.Background()
	f := newConvFixture(t, &MockWeatherProvider{})
	defer f.stop()

	// Enter the city flow, then switch to the language flow mid-step.
	if _, err := f.conv.HandleCommand(ctx, 700, "start"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.conv.HandleCommand(ctx, 700, "language"); err != nil {
		t.Fatal(err)
	}

	// "ru" must be treated as a language pick, not a city.
	if _, err := f.conv.HandleText(ctx, 700, "ru"); err != nil {
		t.Fatal(err)
	}
	sub, err := f.subs.Get(ctx, 700)
	if err != nil {
		t.Fatal(err)
	}
	if sub.City != "" {
		t.Errorf("no city should have been set, got %q", sub.City)
	}
	if string(sub.Language) != "ru" {
		t.Errorf("expected language ru, got %q", sub.Language)
	}
}

func TestConversationRateLimitedNotice(t *testing.T) {
	ctx := context.Background()
	f := newConvFixture(t, &MockWeatherProvider{})
	defer f.stop()

	// Unknown chat falls back to the default language.
	fallback := f.conv.RateLimitedNotice(ctx, 900)
	if fallback == "rate_limited" || fallback == "" {
		t.Fatalf("expected localized notice, got %q", fallback)
	}

	if _, err := f.conv.HandleCommand(ctx, 900, "language"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.conv.HandleLanguageChoice(ctx, 900, "en"); err != nil {
		t.Fatal(err)
	}
	english := f.conv.RateLimitedNotice(ctx, 900)
	if english == fallback {
		t.Errorf("expected the notice to follow the chat language, got %q twice", english)
	}
	if !strings.Contains(english, "Too many requests") {
		t.Errorf("unexpected english notice: %q", english)
	}
}

func TestConversationUnknownInput(t *testing.T) {
	ctx := context.Background()
	f := newConvFixture(t, &MockWeatherProvider{})
	defer f.stop()

	replies, err := f.conv.HandleCommand(ctx, 800, "frobnicate")
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 1 {
		t.Fatalf("expected unknown-command reply, got %+v", replies)
	}

	// Free text while idle gets the same hint.
	replies, err = f.conv.HandleText(ctx, 800, "hello there")
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 1 {
		t.Fatalf("expected unknown-command reply for idle text, got %+v", replies)
	}

	// An unknown command must not disturb a pending step.
	if _, err := f.conv.HandleCommand(ctx, 801, "start"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.conv.HandleCommand(ctx, 801, "frobnicate"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.conv.HandleText(ctx, 801, "Paris"); err != nil {
		t.Fatal(err)
	}
	sub, err := f.subs.Get(ctx, 801)
	if err != nil || sub.City != "Paris" {
		t.Errorf("pending city step should have survived the unknown command: %+v, %v", sub, err)
	}
}
