// Пакет i18n — каталоги переводов портала.
// Ключи меню навигации (nav.*) и тексты HTML-оболочки переводятся по языку
// запроса. Поддерживаемые языки: English (en), Русский (ru).
// Язык определяется middleware: cookie "lang" → Accept-Language → язык по умолчанию.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// Поддерживаемые языки.
var (
	// SupportedLanguages — теги в порядке предпочтения matcher.
	SupportedLanguages = []language.Tag{
		language.English,
		language.Russian,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

// DefaultLang — язык, если другой не определён.
const DefaultLang = "en"

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — каталоги переводов всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	fallback string
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle. fallback — язык, в котором ищется
// отсутствующий ключ.
func NewBundle(fallback string, logger *slog.Logger) *Bundle {
	if !IsSupported(fallback) {
		fallback = DefaultLang
	}
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		fallback: fallback,
		logger:   logger.With(slog.String("component", "i18n")),
	}
}

// LoadMessages загружает плоский JSON-каталог {"key": "translation"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	b.logger.Debug("Каталог переводов загружен",
		slog.String("lang", lang),
		slog.Int("keys", len(messages)),
	)
	return nil
}

// Translate возвращает перевод ключа. Отсутствующий ключ ищется в языке
// fallback, затем возвращается как есть.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if lang != b.fallback {
		if msg, ok := b.catalogs[b.fallback][key]; ok {
			return msg
		}
	}
	return key
}

// Translatef возвращает перевод с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// Keys возвращает количество ключей в каталоге языка.
func (b *Bundle) Keys(lang string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.catalogs[lang])
}

// Localizer — переводчик, привязанный к языку запроса.
type Localizer struct {
	bundle *Bundle
	lang   string
}

// Localizer создаёт переводчик для языка из контекста.
func (b *Bundle) Localizer(ctx context.Context) Localizer {
	return Localizer{bundle: b, lang: LangFromContext(ctx)}
}

// Lang возвращает язык переводчика.
func (l Localizer) Lang() string {
	return l.lang
}

// T переводит ключ.
func (l Localizer) T(key string) string {
	return l.bundle.Translate(l.lang, key)
}

// Tf переводит ключ с подстановкой аргументов.
func (l Localizer) Tf(key string, args ...any) string {
	return l.bundle.Translatef(l.lang, key, args...)
}

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// Tag возвращает языковой тег (для сортировки и сравнения строк).
func Tag(lang string) language.Tag {
	if lang == "ru" {
		return language.Russian
	}
	return language.English
}

// IsSupported проверяет, поддерживается ли язык.
func IsSupported(lang string) bool {
	return lang == "en" || lang == "ru"
}

// MatchLanguage выбирает язык по заголовку Accept-Language.
// Если ни один язык не подходит, возвращается fallback.
func MatchLanguage(acceptLanguage, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	base, _ := SupportedLanguages[index].Base()
	return base.String()
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из
// JSON-каталогов, статическая проверка go vet к ним неприменима.
//
//nolint:govet // обход go vet printf-анализатора
var formatFunc = fmt.Sprintf
