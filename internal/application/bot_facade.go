package application

import (
	"context"
	"strings"

	"telegram-weather-bot/internal/infra/logging"
	"telegram-weather-bot/internal/infra/metrics"
	"telegram-weather-bot/internal/usecase"

	"github.com/google/uuid"
)

// BotFacade is the single entry point the Telegram adapter talks to. It tags
// each inbound update with a trace id, counts it, and hands it to the
// conversation flow; handlers return replies and the adapter just sends them.
type BotFacade struct {
	Conversation usecase.ConversationUseCase
}

func NewBotFacade(conversation usecase.ConversationUseCase) *BotFacade {
	return &BotFacade{Conversation: conversation}
}

// HandleCommand routes a /command update. The leading slash and any
// @botname suffix are stripped before dispatch.
func (b *BotFacade) HandleCommand(ctx context.Context, chatID int64, command string) ([]usecase.Reply, error) {
	ctx = b.tag(ctx, chatID)
	command = normalizeCommand(command)
	metrics.IncTelegramCommand(command)
	return b.Conversation.HandleCommand(ctx, chatID, command)
}

// HandleText routes non-command free text into the pending conversation step.
func (b *BotFacade) HandleText(ctx context.Context, chatID int64, text string) ([]usecase.Reply, error) {
	ctx = b.tag(ctx, chatID)
	return b.Conversation.HandleText(ctx, chatID, text)
}

// HandleLanguageCallback routes an inline-keyboard pick; data is the payload
// after the "lang:" prefix.
func (b *BotFacade) HandleLanguageCallback(ctx context.Context, chatID int64, data string) ([]usecase.Reply, error) {
	ctx = b.tag(ctx, chatID)
	return b.Conversation.HandleLanguageChoice(ctx, chatID, data)
}

// RateLimitedText returns the throttling notice in the chat's language.
func (b *BotFacade) RateLimitedText(ctx context.Context, chatID int64) string {
	return b.Conversation.RateLimitedNotice(ctx, chatID)
}

func (b *BotFacade) tag(ctx context.Context, chatID int64) context.Context {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	return logging.WithChatID(ctx, chatID)
}

func normalizeCommand(command string) string {
	command = strings.TrimPrefix(command, "/")
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command)
}
