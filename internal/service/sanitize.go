package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// textPolicy удаляет любую разметку из пользовательского текста.
// Политика bluemonday потокобезопасна после создания.
var textPolicy = bluemonday.StrictPolicy()

// SanitizeText возвращает текст без HTML-разметки.
// StrictPolicy экранирует сущности, поэтому результат раскодируется обратно:
// экранированием при выводе занимаются templ и encoding/json.
func SanitizeText(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	return html.UnescapeString(textPolicy.Sanitize(s))
}

// sanitizeDocument очищает текстовые поля документа, полученного от backend.
func sanitizeDocument(d *model.Document) *model.Document {
	if d == nil {
		return nil
	}
	c := d.Clone()
	c.Title = SanitizeText(c.Title)
	c.Description = SanitizeText(c.Description)
	for i, tag := range c.Tags {
		c.Tags[i] = SanitizeText(tag)
	}
	return c
}

// sanitizeDocuments очищает список документов.
func sanitizeDocuments(docs []model.Document) []model.Document {
	result := make([]model.Document, len(docs))
	for i := range docs {
		result[i] = *sanitizeDocument(&docs[i])
	}
	return result
}

// sanitizeComment очищает текст комментария.
func sanitizeComment(c model.Comment) model.Comment {
	c.Content = SanitizeText(c.Content)
	return c
}
