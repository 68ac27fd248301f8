package repository

import (
	"context"

	"telegram-weather-bot/internal/domain/model"
)

// -----------------------------
// Subscribers
// -----------------------------

// SubscriberRepository is the registry of chat subscriptions. The contract is
// in-memory by design (state is volatile; a restart clears it), but every
// operation still takes a context so an implementation backed by an external
// store would slot in without interface changes.
//
// All mutations are atomic with respect to Snapshot and Find: callers never
// observe a partially written record. Returned records are copies; mutating
// them does not affect the registry.
type SubscriberRepository interface {
	// UpsertCity creates the subscriber if absent, otherwise replaces its
	// city, and returns a copy of the resulting record.
	UpsertCity(ctx context.Context, chatID int64, city string) (*model.Subscriber, error)

	// UpsertLanguage creates a bare subscriber (empty city) if absent,
	// otherwise replaces its language.
	UpsertLanguage(ctx context.Context, chatID int64, lang model.Language) (*model.Subscriber, error)

	// Remove deletes the subscription. Removing an absent chat is a no-op
	// and reports removed=false, not an error.
	Remove(ctx context.Context, chatID int64) (removed bool, err error)

	// Find returns a copy of the record or domain.ErrNotFound.
	Find(ctx context.Context, chatID int64) (*model.Subscriber, error)

	// Snapshot returns point-in-time copies of all subscribers ordered by
	// ChatID (stable ordering for deterministic broadcast and tests).
	Snapshot(ctx context.Context) ([]model.Subscriber, error)

	Count(ctx context.Context) (int, error)
	CountByLanguage(ctx context.Context) (map[model.Language]int, error)
}
