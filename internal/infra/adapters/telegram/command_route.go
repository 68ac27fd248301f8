package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-weather-bot/internal/infra/metrics"
	red "telegram-weather-bot/internal/infra/redis"
	"telegram-weather-bot/internal/usecase"
)

const (
	commandRateLimit  = 20
	commandRateWindow = time.Minute
)

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	return r.handleMessage(ctx, update.Message)
}

func (r *RealBotAdapter) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	// Per user per command fixed-window rate limit; nil limiter allows all.
	limiterKey := "message"
	if message.IsCommand() {
		limiterKey = message.Command()
	}
	if allowed := r.allow(ctx, chatID, limiterKey); !allowed {
		return r.SendMessage(ctx, chatID, r.facade.RateLimitedText(ctx, chatID))
	}

	var (
		replies []usecase.Reply
		err     error
	)
	if message.IsCommand() {
		replies, err = r.facade.HandleCommand(ctx, chatID, message.Command())
	} else {
		if message.Text == "" {
			return nil
		}
		replies, err = r.facade.HandleText(ctx, chatID, message.Text)
	}
	if err != nil {
		return err
	}
	return r.sendReplies(ctx, chatID, replies)
}

func (r *RealBotAdapter) sendReplies(ctx context.Context, chatID int64, replies []usecase.Reply) error {
	for _, reply := range replies {
		var err error
		if len(reply.Buttons) > 0 {
			err = r.SendButtons(ctx, chatID, reply.Text, reply.Buttons)
		} else {
			err = r.SendMessage(ctx, chatID, reply.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *RealBotAdapter) allow(ctx context.Context, chatID int64, command string) bool {
	if r.rateLimiter == nil {
		return true
	}
	allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(chatID, command), commandRateLimit, commandRateWindow)
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limiter error, allowing request")
		return true
	}
	if !allowed {
		metrics.IncRateLimitTriggered()
	}
	return allowed
}
