// File: internal/infra/memory/subscriber_repo.go
package memory

import (
	"context"
	"sort"
	"sync"

	"telegram-weather-bot/internal/domain"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/repository"
)

var _ repository.SubscriberRepository = (*SubscriberRepo)(nil)

// SubscriberRepo keeps the subscriber registry in a mutex-guarded map.
// It is the only store this service has: persistence across restarts is an
// explicit non-goal, so the registry lives and dies with the process.
type SubscriberRepo struct {
	mu          sync.RWMutex
	byID        map[int64]*model.Subscriber
	defaultLang model.Language
}

// NewSubscriberRepo creates the registry. defaultLang is the language new
// records start with until the chat picks one explicitly.
func NewSubscriberRepo(defaultLang model.Language) *SubscriberRepo {
	if !defaultLang.Valid() {
		defaultLang = model.DefaultLanguage
	}
	return &SubscriberRepo{
		byID:        make(map[int64]*model.Subscriber),
		defaultLang: defaultLang,
	}
}

func (r *SubscriberRepo) UpsertCity(ctx context.Context, chatID int64, city string) (*model.Subscriber, error) {
	if city == "" {
		return nil, domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[chatID]; ok {
		s.City = city
		s.Touch()
		cp := *s
		return &cp, nil
	}
	s, err := model.NewSubscriber("", chatID, city, r.defaultLang)
	if err != nil {
		return nil, err
	}
	r.byID[chatID] = s
	cp := *s
	return &cp, nil
}

func (r *SubscriberRepo) UpsertLanguage(ctx context.Context, chatID int64, lang model.Language) (*model.Subscriber, error) {
	if !lang.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[chatID]; ok {
		s.Language = lang
		s.Touch()
		cp := *s
		return &cp, nil
	}
	// Language chosen before any city: keep a bare record, excluded from
	// broadcasts until a city arrives.
	s, err := model.NewSubscriber("", chatID, "", lang)
	if err != nil {
		return nil, err
	}
	r.byID[chatID] = s
	cp := *s
	return &cp, nil
}

func (r *SubscriberRepo) Remove(ctx context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[chatID]; !ok {
		return false, nil
	}
	delete(r.byID, chatID)
	return true, nil
}

func (r *SubscriberRepo) Find(ctx context.Context, chatID int64) (*model.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SubscriberRepo) Snapshot(ctx context.Context) ([]model.Subscriber, error) {
	r.mu.RLock()
	out := make([]model.Subscriber, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, *s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (r *SubscriberRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *SubscriberRepo) CountByLanguage(ctx context.Context) (map[model.Language]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[model.Language]int, 2)
	for _, s := range r.byID {
		out[s.Language]++
	}
	return out, nil
}
