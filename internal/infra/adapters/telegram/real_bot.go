package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-weather-bot/internal/application"
	"telegram-weather-bot/internal/config"
	"telegram-weather-bot/internal/domain/ports/adapter"
	red "telegram-weather-bot/internal/infra/redis"
)

// Compile-time check
var _ adapter.TelegramBotAdapter = (*RealBotAdapter)(nil)

// RealBotAdapter polls Telegram via tgbotapi, fans updates out over a fixed
// set of workers and delegates every update to the BotFacade. It carries no
// business logic of its own.
type RealBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter

	updateWorkers int
	cancelPolling context.CancelFunc
	log           *zerolog.Logger
}

// NewRealBotAdapter dials Telegram and returns the adapter. The facade is
// attached separately because the conversation flow itself sends through
// this adapter.
func NewRealBotAdapter(cfg *config.BotConfig, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	componentLogger := logger.With().Str("component", "telegram").Logger()
	return &RealBotAdapter{
		bot:           bot,
		cfg:           cfg,
		rateLimiter:   rateLimiter,
		updateWorkers: workers,
		log:           &componentLogger,
	}, nil
}

// AttachFacade wires the update handlers. Must be called before StartPolling.
func (r *RealBotAdapter) AttachFacade(facade *application.BotFacade) {
	r.facade = facade
}

func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("bot facade not attached")
	}

	if err := r.setMenuCommands(); err != nil {
		r.log.Warn().Err(err).Msg("failed to register command menu")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Warn().Err(err).Int("worker_id", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	r.log.Info().Str("bot", r.bot.Self.UserName).Int("workers", r.updateWorkers).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with an inline keyboard.
// A button with URL opens a link, one with Data sends callback data; the
// fallback reuses the label as callback data.
func (r *RealBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

// setMenuCommands registers the slash-command menu Telegram shows in the
// chat input field.
func (r *RealBotAdapter) setMenuCommands() error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "subscribe to weather updates"},
		tgbotapi.BotCommand{Command: "now", Description: "current weather"},
		tgbotapi.BotCommand{Command: "change", Description: "change city"},
		tgbotapi.BotCommand{Command: "language", Description: "change language"},
		tgbotapi.BotCommand{Command: "stop", Description: "unsubscribe"},
		tgbotapi.BotCommand{Command: "help", Description: "show help"},
	)
	_, err := r.bot.Request(cmds)
	return err
}
