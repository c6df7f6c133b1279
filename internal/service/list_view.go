package service

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// PageSize — количество документов на странице списка.
const PageSize = 10

// SortOrder — локальная сортировка списка документов.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortTitle  SortOrder = "title"
	SortStars  SortOrder = "stars"
)

// ParseSortOrder разбирает параметр сортировки. Пустая строка — SortNewest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortTitle, SortStars:
		return order, nil
	default:
		return "", fmt.Errorf("недопустимая сортировка %q, допустимые: newest, oldest, title, stars", s)
	}
}

// ListItem — документ списка с отображаемым именем автора.
// Удалённый автор отображается как model.UnknownName.
type ListItem struct {
	model.Document
	DisplayAuthor string `json:"author"`
}

// Page — страница списка.
type Page struct {
	Items      []ListItem `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
}

// DocumentListView — локальный поиск, сортировка и постраничный вывод
// поверх списка, полученного от backend.
type DocumentListView struct {
	all      []model.Document
	query    string
	order    SortOrder
	lang     language.Tag
	filtered []model.Document
}

// NewDocumentListView создаёт представление. lang определяет правила
// сравнения заголовков при SortTitle.
func NewDocumentListView(docs []model.Document, lang language.Tag) *DocumentListView {
	v := &DocumentListView{
		all:   slices.Clone(docs),
		order: SortNewest,
		lang:  lang,
	}
	v.apply()
	return v
}

// Search задаёт строку поиска по заголовку, описанию, автору и тегам
// (без учёта регистра).
func (v *DocumentListView) Search(query string) {
	v.query = strings.TrimSpace(query)
	v.apply()
}

// SortBy задаёт порядок сортировки.
func (v *DocumentListView) SortBy(order SortOrder) {
	v.order = order
	v.apply()
}

// Total возвращает количество документов после поиска.
func (v *DocumentListView) Total() int {
	return len(v.filtered)
}

// Page возвращает страницу n (с 1). Номер меньше единицы — первая страница,
// номер за последней страницей — пустая страница. У пустого списка одна страница.
func (v *DocumentListView) Page(n int) Page {
	total := len(v.filtered)
	totalPages := (total + PageSize - 1) / PageSize
	n = max(n, 1)
	if totalPages == 0 {
		n = 1
	}

	start := min((n-1)*PageSize, total)
	end := min(start+PageSize, total)
	items := make([]ListItem, 0, end-start)
	for _, d := range v.filtered[start:end] {
		items = append(items, ListItem{Document: d, DisplayAuthor: d.Author()})
	}
	return Page{
		Items:      items,
		Page:       n,
		TotalPages: totalPages,
		Total:      total,
	}
}

// apply пересчитывает отфильтрованный и отсортированный список.
func (v *DocumentListView) apply() {
	v.filtered = v.filtered[:0]
	if v.query == "" {
		v.filtered = append(v.filtered, v.all...)
	} else {
		fold := cases.Fold()
		needle := fold.String(v.query)
		for _, d := range v.all {
			if matches(fold, d, needle) {
				v.filtered = append(v.filtered, d)
			}
		}
	}

	switch v.order {
	case SortOldest:
		slices.SortStableFunc(v.filtered, func(a, b model.Document) int {
			return a.CreatedAt.Compare(b.CreatedAt.Time)
		})
	case SortTitle:
		col := collate.New(v.lang, collate.IgnoreCase)
		slices.SortStableFunc(v.filtered, func(a, b model.Document) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortStars:
		slices.SortStableFunc(v.filtered, func(a, b model.Document) int {
			return b.StarsCount - a.StarsCount
		})
	default:
		slices.SortStableFunc(v.filtered, func(a, b model.Document) int {
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		})
	}
}

// matches проверяет вхождение needle в текстовые поля документа.
func matches(fold cases.Caser, d model.Document, needle string) bool {
	fields := append([]string{d.Title, d.Description, d.Author()}, d.Tags...)
	for _, f := range fields {
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}
