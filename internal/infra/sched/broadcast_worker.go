package sched

import (
	"context"
	"time"

	"telegram-weather-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// BroadcastWorker ticks at the configured interval and runs one broadcast
// cycle per tick. A failed or panicking cycle is logged and the loop keeps
// going; missed ticks are not caught up.
type BroadcastWorker struct {
	interval time.Duration
	dispatch usecase.DispatchUseCase
	log      *zerolog.Logger
}

func NewBroadcastWorker(interval time.Duration, dispatch usecase.DispatchUseCase, logger *zerolog.Logger) *BroadcastWorker {
	compLog := logger.With().Str("component", "BroadcastWorker").Logger()
	return &BroadcastWorker{
		interval: interval,
		dispatch: dispatch,
		log:      &compLog,
	}
}

func (w *BroadcastWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting broadcast worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping broadcast worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *BroadcastWorker) runCycle(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			w.log.Error().Interface("panic", rec).Msg("broadcast cycle panicked")
		}
	}()

	attempted, err := w.dispatch.BroadcastAll(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("broadcast cycle failed")
		return
	}
	if attempted > 0 {
		w.log.Info().Int("attempted", attempted).Msg("broadcast cycle complete")
	}
}
