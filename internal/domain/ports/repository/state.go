package repository

import (
	"context"
)

// ConversationStep defines the possible steps in a multi-message input flow.
// A chat with no stored state is idle.
type ConversationStep string

const (
	StepAwaitingCity      ConversationStep = "awaiting_city"
	StepAwaitingCityRetry ConversationStep = "awaiting_city_retry"
	StepAwaitingLanguage  ConversationStep = "awaiting_language"
)

// ConversationState holds the chat's progress in the active flow.
type ConversationState struct {
	Step ConversationStep  `json:"step"`
	Data map[string]string `json:"data"` // e.g. last rejected city input
}

// DataLastInput is the ConversationState.Data key carrying the most recent
// rejected city text while in StepAwaitingCityRetry.
const DataLastInput = "last_input"

// StateRepository is the port for managing per-chat conversational state.
// State is volatile: losing it on restart is acceptable, the user re-invokes
// /start.
type StateRepository interface {
	SetState(ctx context.Context, chatID int64, state *ConversationState) error
	GetState(ctx context.Context, chatID int64) (*ConversationState, error)
	ClearState(ctx context.Context, chatID int64) error
}
