package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type cbHandler func(ctx context.Context, chatID int64, data string) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Exact-match callbacks. None today; the map stays so new routes slot in
// next to the prefix ones.
func (r *RealBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{}
}

// Prefix-match callbacks
func (r *RealBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{
			Prefix: "lang:",
			Fn:     r.languagePrefixCBRoute,
		},
	}
}

func (r *RealBotAdapter) languagePrefixCBRoute(ctx context.Context, chatID int64, data string) error {
	choice := strings.TrimPrefix(data, "lang:")
	replies, err := r.facade.HandleLanguageCallback(ctx, chatID, choice)
	if err != nil {
		return err
	}
	return r.sendReplies(ctx, chatID, replies)
}

func (r *RealBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the Telegram spinner when we return.
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)
	if allowed := r.allow(ctx, chatID, "cb:"+data); !allowed {
		return r.SendMessage(ctx, chatID, r.facade.RateLimitedText(ctx, chatID))
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, chatID, data)
		}
	}
	return errors.New("unknown callback data")
}
