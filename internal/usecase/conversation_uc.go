package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"telegram-weather-bot/internal/domain"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/adapter"
	"telegram-weather-bot/internal/domain/ports/repository"
	"telegram-weather-bot/internal/infra/i18n"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

// Reply is one outgoing chat message, optionally with an inline keyboard.
type Reply struct {
	Text    string
	Buttons [][]adapter.InlineButton
}

// ConversationUseCase drives the per-chat dialog state machine. Handlers
// return the ordered replies to send; the transport adapter stays free of
// business logic.
type ConversationUseCase interface {
	// HandleCommand processes a /command. A recognized command clears any
	// pending input step first so a flow can never dead-end a chat; an
	// unknown command leaves the step pending.
	HandleCommand(ctx context.Context, chatID int64, command string) ([]Reply, error)
	// HandleText processes free text according to the pending step. Text
	// arriving while the chat is idle yields the unknown-command hint.
	HandleText(ctx context.Context, chatID int64, text string) ([]Reply, error)
	// HandleLanguageChoice processes an inline-keyboard language pick; the
	// choice is the raw code from the callback payload.
	HandleLanguageChoice(ctx context.Context, chatID int64, choice string) ([]Reply, error)
	// RateLimitedNotice returns the throttling notice in the chat's language.
	RateLimitedNotice(ctx context.Context, chatID int64) string
}

type conversationUC struct {
	states   repository.StateRepository
	subs     SubscriptionUseCase
	weather  WeatherUseCase
	dispatch DispatchUseCase
	bot      adapter.TelegramBotAdapter
	bundle   *i18n.Bundle

	broadcastInterval time.Duration
	log               *zerolog.Logger
}

func NewConversationUseCase(
	states repository.StateRepository,
	subs SubscriptionUseCase,
	weather WeatherUseCase,
	dispatch DispatchUseCase,
	bot adapter.TelegramBotAdapter,
	bundle *i18n.Bundle,
	broadcastInterval time.Duration,
	logger *zerolog.Logger,
) *conversationUC {
	return &conversationUC{
		states:            states,
		subs:              subs,
		weather:           weather,
		dispatch:          dispatch,
		bot:               bot,
		bundle:            bundle,
		broadcastInterval: broadcastInterval,
		log:               logger,
	}
}

var knownCommands = map[string]struct{}{
	"start": {}, "help": {}, "change": {}, "language": {}, "stop": {}, "now": {},
}

func (c *conversationUC) HandleCommand(ctx context.Context, chatID int64, command string) ([]Reply, error) {
	// A recognized command always wins over a pending input step; an
	// unknown one leaves the step alone.
	if _, known := knownCommands[command]; known {
		if err := c.states.ClearState(ctx, chatID); err != nil {
			c.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to clear conversation state")
		}
	}

	tr := c.translatorFor(ctx, chatID)
	switch command {
	case "start", "help":
		if err := c.awaitCity(ctx, chatID); err != nil {
			return nil, err
		}
		return []Reply{{Text: tr.T("help")}, {Text: tr.T("prompt_city")}}, nil

	case "change":
		if err := c.awaitCity(ctx, chatID); err != nil {
			return nil, err
		}
		return []Reply{{Text: tr.T("prompt_change")}}, nil

	case "language":
		state := &repository.ConversationState{Step: repository.StepAwaitingLanguage}
		if err := c.states.SetState(ctx, chatID, state); err != nil {
			return nil, err
		}
		return []Reply{{
			Text: tr.T("prompt_language"),
			Buttons: [][]adapter.InlineButton{{
				{Text: tr.T("lang_name_ru"), Data: "lang:ru"},
				{Text: tr.T("lang_name_en"), Data: "lang:en"},
			}},
		}}, nil

	case "stop":
		removed, err := c.subs.Unsubscribe(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if !removed {
			return []Reply{{Text: tr.T("not_subscribed")}}, nil
		}
		return []Reply{{Text: tr.T("stopped")}}, nil

	case "now":
		return c.handleNow(ctx, chatID, tr)

	default:
		return []Reply{{Text: tr.T("unknown_command")}}, nil
	}
}

func (c *conversationUC) HandleText(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	state, err := c.states.GetState(ctx, chatID)
	if err != nil {
		return nil, err
	}

	tr := c.translatorFor(ctx, chatID)
	if state == nil {
		return []Reply{{Text: tr.T("unknown_command")}}, nil
	}

	switch state.Step {
	case repository.StepAwaitingCity, repository.StepAwaitingCityRetry:
		return c.handleCityInput(ctx, chatID, state, text, tr)
	case repository.StepAwaitingLanguage:
		lang, ok := model.ParseLanguage(text)
		if !ok {
			return []Reply{{Text: tr.T("language_invalid")}}, nil
		}
		return c.applyLanguage(ctx, chatID, lang)
	default:
		c.log.Warn().Int64("chat_id", chatID).Str("step", string(state.Step)).Msg("unknown conversation step, resetting")
		if err := c.states.ClearState(ctx, chatID); err != nil {
			return nil, err
		}
		return []Reply{{Text: tr.T("unknown_command")}}, nil
	}
}

func (c *conversationUC) HandleLanguageChoice(ctx context.Context, chatID int64, choice string) ([]Reply, error) {
	lang, ok := model.ParseLanguage(choice)
	if !ok {
		tr := c.translatorFor(ctx, chatID)
		return []Reply{{Text: tr.T("language_invalid")}}, nil
	}
	return c.applyLanguage(ctx, chatID, lang)
}

// handleCityInput validates the city with a single provider fetch and, when
// it resolves, registers it and delivers the first report from that same
// fetch.
func (c *conversationUC) handleCityInput(ctx context.Context, chatID int64, state *repository.ConversationState, text string, tr *i18n.Translator) ([]Reply, error) {
	city := strings.TrimSpace(text)
	if city == "" {
		return []Reply{{Text: tr.T("city_retry", text)}}, nil
	}

	// Resending the input the provider just rejected cannot succeed; re-prompt
	// without burning another fetch.
	if state.Step == repository.StepAwaitingCityRetry && state.Data[repository.DataLastInput] == city {
		return []Reply{{Text: tr.T("city_retry", city)}}, nil
	}

	report, err := c.weather.Report(ctx, city, c.languageOf(ctx, chatID))
	if err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			state := &repository.ConversationState{
				Step: repository.StepAwaitingCityRetry,
				Data: map[string]string{repository.DataLastInput: city},
			}
			if serr := c.states.SetState(ctx, chatID, state); serr != nil {
				return nil, serr
			}
			return []Reply{{Text: tr.T("city_retry", city)}}, nil
		}
		// Provider trouble is not the user's fault; keep the step pending
		// so the same input can simply be resent.
		c.log.Warn().Err(err).Int64("chat_id", chatID).Str("city", city).Msg("city validation failed")
		return []Reply{{Text: tr.T("city_error")}}, nil
	}

	sub, err := c.subs.SetCity(ctx, chatID, city)
	if err != nil {
		return nil, err
	}
	if err := c.states.ClearState(ctx, chatID); err != nil {
		return nil, err
	}

	tr = c.bundle.For(sub.Language)
	return []Reply{
		{Text: tr.T("city_confirmed", sub.City, c.intervalText(tr))},
		{Text: report},
	}, nil
}

func (c *conversationUC) handleNow(ctx context.Context, chatID int64, tr *i18n.Translator) ([]Reply, error) {
	sub, err := c.subs.Get(ctx, chatID)
	if err != nil || !sub.Eligible() {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return []Reply{{Text: tr.T("start_first")}}, nil
	}

	// Progress notice goes out before the fetch; its delivery is best-effort.
	if err := c.bot.SendMessage(ctx, chatID, tr.T("now_fetching")); err != nil {
		c.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send progress notice")
	}

	if err := c.dispatch.DeliverOne(ctx, chatID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotSubscribed), errors.Is(err, domain.ErrNoCity):
			return []Reply{{Text: tr.T("start_first")}}, nil
		default:
			c.log.Warn().Err(err).Int64("chat_id", chatID).Msg("on-demand delivery failed")
			return []Reply{{Text: tr.T("now_failed")}}, nil
		}
	}
	return nil, nil
}

func (c *conversationUC) applyLanguage(ctx context.Context, chatID int64, lang model.Language) ([]Reply, error) {
	sub, err := c.subs.SetLanguage(ctx, chatID, lang)
	if err != nil {
		return nil, err
	}
	if err := c.states.ClearState(ctx, chatID); err != nil {
		return nil, err
	}

	// Confirm in the language that was just picked.
	tr := c.bundle.For(lang)
	replies := []Reply{{Text: tr.T("language_set", tr.T("lang_name_"+string(lang)))}}
	if !sub.Eligible() {
		replies = append(replies, Reply{Text: tr.T("language_set_no_city")})
	}
	return replies, nil
}

func (c *conversationUC) RateLimitedNotice(ctx context.Context, chatID int64) string {
	return c.translatorFor(ctx, chatID).T("rate_limited")
}

func (c *conversationUC) awaitCity(ctx context.Context, chatID int64) error {
	return c.states.SetState(ctx, chatID, &repository.ConversationState{Step: repository.StepAwaitingCity})
}

func (c *conversationUC) languageOf(ctx context.Context, chatID int64) model.Language {
	sub, err := c.subs.Get(ctx, chatID)
	if err != nil {
		return c.bundle.Default()
	}
	return sub.Language
}

func (c *conversationUC) translatorFor(ctx context.Context, chatID int64) *i18n.Translator {
	return c.bundle.For(c.languageOf(ctx, chatID))
}

func (c *conversationUC) intervalText(tr *i18n.Translator) string {
	minutes := int(c.broadcastInterval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}
	return tr.T("interval_minutes", minutes)
}
