package memory

import (
	"context"
	"sync"

	"telegram-weather-bot/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo manages per-chat conversational state in process memory.
// Absent state means the chat is idle; GetState reports that as (nil, nil).
type StateRepo struct {
	mu     sync.RWMutex
	states map[int64]repository.ConversationState
}

func NewStateRepo() *StateRepo {
	return &StateRepo{states: make(map[int64]repository.ConversationState)}
}

func (s *StateRepo) SetState(ctx context.Context, chatID int64, state *repository.ConversationState) error {
	if state == nil {
		return s.ClearState(ctx, chatID)
	}
	cp := *state
	if state.Data != nil {
		cp.Data = make(map[string]string, len(state.Data))
		for k, v := range state.Data {
			cp.Data[k] = v
		}
	}
	s.mu.Lock()
	s.states[chatID] = cp
	s.mu.Unlock()
	return nil
}

func (s *StateRepo) GetState(ctx context.Context, chatID int64) (*repository.ConversationState, error) {
	s.mu.RLock()
	st, ok := s.states[chatID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	cp := st
	if st.Data != nil {
		cp.Data = make(map[string]string, len(st.Data))
		for k, v := range st.Data {
			cp.Data[k] = v
		}
	}
	return &cp, nil
}

func (s *StateRepo) ClearState(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.states, chatID)
	s.mu.Unlock()
	return nil
}
