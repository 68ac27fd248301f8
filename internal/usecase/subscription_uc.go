package usecase

import (
	"context"

	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/repository"
	"telegram-weather-bot/internal/infra/logging"
	"telegram-weather-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase manages the chat's subscription record.
type SubscriptionUseCase interface {
	// SetCity registers the chat for broadcasts (creating the record when
	// absent) and returns the resulting subscriber.
	SetCity(ctx context.Context, chatID int64, city string) (*model.Subscriber, error)
	// SetLanguage changes the reply language, creating a bare record (no
	// city, not broadcast-eligible) when the chat has none yet.
	SetLanguage(ctx context.Context, chatID int64, lang model.Language) (*model.Subscriber, error)
	// Unsubscribe removes the record; removing an absent chat reports
	// removed=false without an error.
	Unsubscribe(ctx context.Context, chatID int64) (bool, error)
	// Get returns the subscriber or domain.ErrNotFound.
	Get(ctx context.Context, chatID int64) (*model.Subscriber, error)
}

type subscriptionUC struct {
	subs repository.SubscriberRepository
	log  *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriberRepository, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, log: logger}
}

func (s *subscriptionUC) SetCity(ctx context.Context, chatID int64, city string) (*model.Subscriber, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.SetCity")()

	sub, err := s.subs.UpsertCity(ctx, chatID, city)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("chat_id", chatID).Str("city", sub.City).Msg("city registered")
	s.refreshGauge(ctx)
	return sub, nil
}

func (s *subscriptionUC) SetLanguage(ctx context.Context, chatID int64, lang model.Language) (*model.Subscriber, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.SetLanguage")()

	sub, err := s.subs.UpsertLanguage(ctx, chatID, lang)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("chat_id", chatID).Str("language", string(lang)).Msg("language changed")
	s.refreshGauge(ctx)
	return sub, nil
}

func (s *subscriptionUC) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	removed, err := s.subs.Remove(ctx, chatID)
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Info().Int64("chat_id", chatID).Msg("unsubscribed")
		s.refreshGauge(ctx)
	}
	return removed, nil
}

func (s *subscriptionUC) Get(ctx context.Context, chatID int64) (*model.Subscriber, error) {
	return s.subs.Find(ctx, chatID)
}

func (s *subscriptionUC) refreshGauge(ctx context.Context) {
	counts, err := s.subs.CountByLanguage(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to refresh subscriber gauge")
		return
	}
	metrics.SetSubscribersTotal(counts)
}
