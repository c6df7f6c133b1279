// loader.go — загрузка каталогов переводов из embed.FS.
package i18n

import (
	"fmt"
	"log/slog"
)

// Load создаёт Bundle и загружает каталоги всех поддерживаемых языков.
func Load(fallback string, logger *slog.Logger) (*Bundle, error) {
	bundle := NewBundle(fallback, logger)

	for _, tag := range SupportedLanguages {
		base, _ := tag.Base()
		lang := base.String()
		path := fmt.Sprintf("locales/%s.json", lang)

		data, err := LocaleFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return nil, err
		}
	}

	logger.Info("Каталоги переводов загружены",
		slog.Int("languages", len(SupportedLanguages)),
		slog.String("fallback", bundle.fallback),
	)
	return bundle, nil
}
