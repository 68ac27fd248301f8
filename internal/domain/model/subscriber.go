package model

import (
	"time"

	"telegram-weather-bot/internal/domain"

	"github.com/google/uuid"
)

// Language is the description/reply language of a subscriber.
type Language string

const (
	LangRU Language = "ru"
	LangEN Language = "en"

	DefaultLanguage = LangRU
)

// ParseLanguage maps free-form user input (button data or typed text) to a
// Language. Returns false for anything outside the supported set.
func ParseLanguage(s string) (Language, bool) {
	switch normalizeLang(s) {
	case "ru", "rus", "русский":
		return LangRU, true
	case "en", "eng", "english":
		return LangEN, true
	}
	return "", false
}

func normalizeLang(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'А' && r <= 'Я':
			out = append(out, r+('а'-'А'))
		case r == ' ' || r == '\t':
			// skip
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func (l Language) Valid() bool { return l == LangRU || l == LangEN }

// Subscriber is a chat's in-memory weather-update registration.
// City may be empty when the language was chosen before a city
// (such a record exists but is not broadcast-eligible).
type Subscriber struct {
	ID        string
	ChatID    int64
	City      string
	Language  Language
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSubscriber(id string, chatID int64, city string, lang Language) (*Subscriber, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if chatID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !lang.Valid() {
		lang = DefaultLanguage
	}
	now := time.Now()
	return &Subscriber{
		ID:        id,
		ChatID:    chatID,
		City:      city,
		Language:  lang,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Eligible reports whether the subscriber can receive scheduled broadcasts.
func (s *Subscriber) Eligible() bool { return s != nil && s.City != "" }

func (s *Subscriber) Touch() { s.UpdatedAt = time.Now() }
