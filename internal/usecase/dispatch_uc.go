package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"telegram-weather-bot/internal/domain"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/adapter"
	"telegram-weather-bot/internal/domain/ports/repository"
	"telegram-weather-bot/internal/infra/logging"
	"telegram-weather-bot/internal/infra/metrics"
	"telegram-weather-bot/internal/infra/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// CycleSummary describes the most recent broadcast cycle.
type CycleSummary struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Attempted int       `json:"attempted"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
}

// DispatchUseCase owns weather delivery, both the scheduled fan-out and the
// synchronous single-chat path behind /now.
type DispatchUseCase interface {
	// BroadcastAll delivers a fresh report to every broadcast-eligible
	// subscriber. One subscriber's weather or send failure never affects
	// the others. Returns how many deliveries were attempted; on
	// cancellation that is the count actually submitted before the stop.
	// The call is synchronous and comes back only after every task finished.
	BroadcastAll(ctx context.Context) (attempted int, err error)
	// DeliverOne runs the same delivery path for a single chat and returns
	// the failure to the caller. A chat without a record yields
	// domain.ErrNotSubscribed, a bare record (no city) domain.ErrNoCity.
	DeliverOne(ctx context.Context, chatID int64) error
	// LastCycle reports the previous broadcast cycle, false before the
	// first one ran.
	LastCycle() (CycleSummary, bool)
}

type dispatchUC struct {
	subs    repository.SubscriberRepository
	weather WeatherUseCase
	bot     adapter.TelegramBotAdapter
	pool    *worker.Pool

	throttlePerSec int
	log            *zerolog.Logger

	mu        sync.Mutex
	lastCycle *CycleSummary
}

func NewDispatchUseCase(
	subs repository.SubscriberRepository,
	weather WeatherUseCase,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	throttlePerSec int,
	logger *zerolog.Logger,
) *dispatchUC {
	if throttlePerSec <= 0 {
		throttlePerSec = 25
	}
	return &dispatchUC{
		subs:           subs,
		weather:        weather,
		bot:            bot,
		pool:           pool,
		throttlePerSec: throttlePerSec,
		log:            logger,
	}
}

func (d *dispatchUC) BroadcastAll(ctx context.Context) (int, error) {
	started := time.Now()
	cycleID := uuid.NewString()
	ctx = logging.WithCycleID(ctx, cycleID)
	log := logging.With(ctx, d.log)

	snapshot, err := d.subs.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to snapshot subscribers for broadcast")
		return 0, err
	}

	eligible := make([]model.Subscriber, 0, len(snapshot))
	for _, sub := range snapshot {
		if sub.Eligible() {
			eligible = append(eligible, sub)
		}
	}
	log.Info().Int("eligible", len(eligible)).Int("total", len(snapshot)).Msg("broadcast cycle started")

	// Throttle to respect Telegram's API limits (approx. 30 messages/sec).
	throttle := time.NewTicker(time.Second / time.Duration(d.throttlePerSec))
	defer throttle.Stop()

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
		failed    atomic.Int64
		submitted int
	)
	for _, sub := range eligible {
		select {
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Int("submitted", submitted).Msg("broadcast cycle canceled mid-fanout")
			wg.Wait()
			return submitted, ctx.Err()
		case <-throttle.C:
		}

		sub := sub
		wg.Add(1)
		task := func(taskCtx context.Context) error {
			defer wg.Done()
			if d.deliver(taskCtx, &sub) {
				delivered.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		}
		if err := d.pool.SubmitWait(ctx, task); err != nil {
			wg.Done()
			failed.Add(1)
			log.Warn().Err(err).Int64("chat_id", sub.ChatID).Msg("failed to submit delivery task")
			continue
		}
		submitted++
	}
	wg.Wait()

	duration := time.Since(started)
	summary := CycleSummary{
		StartedAt: started,
		Duration:  duration.Round(time.Millisecond).String(),
		Attempted: len(eligible),
		Delivered: int(delivered.Load()),
		Failed:    int(failed.Load()),
	}
	d.mu.Lock()
	d.lastCycle = &summary
	d.mu.Unlock()

	metrics.ObserveBroadcastCycle(int(duration.Milliseconds()))
	log.Info().
		Int("attempted", summary.Attempted).
		Int("delivered", summary.Delivered).
		Int("failed", summary.Failed).
		Dur("duration", duration).
		Msg("broadcast cycle finished")
	return len(eligible), nil
}

func (d *dispatchUC) DeliverOne(ctx context.Context, chatID int64) error {
	sub, err := d.subs.Find(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotSubscribed
		}
		return err
	}
	if !sub.Eligible() {
		return domain.ErrNoCity
	}

	text, err := d.weather.Report(ctx, sub.City, sub.Language)
	if err != nil {
		return err
	}
	return d.bot.SendMessage(ctx, chatID, text)
}

func (d *dispatchUC) LastCycle() (CycleSummary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastCycle == nil {
		return CycleSummary{}, false
	}
	return *d.lastCycle, true
}

// deliver runs one broadcast delivery and reports success. Failures are
// logged and counted; they never propagate into the cycle.
func (d *dispatchUC) deliver(ctx context.Context, sub *model.Subscriber) bool {
	log := logging.With(logging.WithChatID(ctx, sub.ChatID), d.log)

	text, err := d.weather.Report(ctx, sub.City, sub.Language)
	if err != nil {
		metrics.IncDelivery("weather_error")
		log.Warn().Err(err).Str("city", sub.City).Msg("skipping subscriber, weather fetch failed")
		return false
	}
	if err := d.bot.SendMessage(ctx, sub.ChatID, text); err != nil {
		metrics.IncDelivery("send_error")
		log.Warn().Err(err).Msg("skipping subscriber, send failed")
		return false
	}
	metrics.IncDelivery("sent")
	return true
}
