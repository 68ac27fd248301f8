package usecase

import (
	"context"

	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Stats is the admin-facing snapshot served over the ops API.
type Stats struct {
	Subscribers int                    `json:"subscribers"`
	Eligible    int                    `json:"eligible"`
	ByLanguage  map[model.Language]int `json:"by_language"`
	LastCycle   *CycleSummary          `json:"last_cycle,omitempty"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	subs     repository.SubscriberRepository
	dispatch DispatchUseCase
	log      *zerolog.Logger
}

func NewStatsUseCase(subs repository.SubscriberRepository, dispatch DispatchUseCase, logger *zerolog.Logger) *statsUC {
	return &statsUC{subs: subs, dispatch: dispatch, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (*Stats, error) {
	total, err := s.subs.Count(ctx)
	if err != nil {
		return nil, err
	}
	byLang, err := s.subs.CountByLanguage(ctx)
	if err != nil {
		return nil, err
	}

	eligible := 0
	snapshot, err := s.subs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, sub := range snapshot {
		if sub.Eligible() {
			eligible++
		}
	}

	stats := &Stats{Subscribers: total, Eligible: eligible, ByLanguage: byLang}
	if cycle, ok := s.dispatch.LastCycle(); ok {
		stats.LastCycle = &cycle
	}
	return stats, nil
}
