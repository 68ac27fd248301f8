package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"telegram-weather-bot/internal/domain/model"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves reply-text keys for a single language.
type Translator struct {
	translations map[string]string
}

func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(data)
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T resolves a key, applying fmt.Sprintf when args are given.
// An unknown key comes back verbatim so a missing entry is visible in chat
// instead of silently dropping the reply.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Bundle holds one Translator per supported language.
type Bundle struct {
	byLang      map[model.Language]*Translator
	defaultLang model.Language
}

// NewBundle loads all supported locales. defaultLang is what For falls back
// to for unknown languages and what Default reports for chats without a
// record yet.
func NewBundle(fsys fs.FS, defaultLang model.Language) (*Bundle, error) {
	if !defaultLang.Valid() {
		defaultLang = model.DefaultLanguage
	}
	byLang := make(map[model.Language]*Translator, 2)
	for _, lang := range []model.Language{model.LangRU, model.LangEN} {
		tr, err := NewTranslator(fsys, string(lang))
		if err != nil {
			return nil, err
		}
		byLang[lang] = tr
	}
	return &Bundle{byLang: byLang, defaultLang: defaultLang}, nil
}

// Default is the configured fallback language.
func (b *Bundle) Default() model.Language { return b.defaultLang }

// For returns the Translator for lang, falling back to the default language
// for anything unknown.
func (b *Bundle) For(lang model.Language) *Translator {
	if tr, ok := b.byLang[lang]; ok {
		return tr
	}
	return b.byLang[b.defaultLang]
}
