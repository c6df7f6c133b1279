package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

// makeDocuments создаёт n документов, созданных с интервалом в час.
func makeDocuments(n int) []model.Document {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	docs := make([]model.Document, n)
	for i := range n {
		docs[i] = model.Document{
			ID:         fmt.Sprintf("d%02d", i),
			Title:      fmt.Sprintf("Документ %02d", i),
			CreatedAt:  model.NewTimestamp(base.Add(time.Duration(i) * time.Hour)),
			StarsCount: i % 3,
		}
	}
	return docs
}

func TestDocumentListView_Page(t *testing.T) {
	v := NewDocumentListView(makeDocuments(23), language.English)

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantItems int
		wantFirst string
	}{
		{"первая страница", 1, 1, 10, "d22"},
		{"последняя неполная", 3, 3, 3, "d02"},
		{"номер больше числа страниц", 99, 99, 0, ""},
		{"номер меньше единицы", 0, 1, 10, "d22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := v.Page(tt.page)
			if p.Page != tt.wantPage || len(p.Items) != tt.wantItems {
				t.Fatalf("Page(%d) = страница %d, %d элементов; ожидалось %d, %d",
					tt.page, p.Page, len(p.Items), tt.wantPage, tt.wantItems)
			}
			if p.TotalPages != 3 || p.Total != 23 {
				t.Errorf("ожидалось 3 страницы и 23 документа, получено %d, %d", p.TotalPages, p.Total)
			}
			if tt.wantItems > 0 && p.Items[0].ID != tt.wantFirst {
				t.Errorf("первый элемент %s, ожидался %s", p.Items[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestDocumentListView_Empty(t *testing.T) {
	p := NewDocumentListView(nil, language.English).Page(5)
	if p.Page != 1 || p.TotalPages != 0 || len(p.Items) != 0 {
		t.Errorf("пустой список: получено %+v", p)
	}
}

func TestDocumentListView_Search(t *testing.T) {
	author := "Мария Иванова"
	docs := []model.Document{
		{ID: "d1", Title: "Годовой ОТЧЁТ", CreatedAt: model.NewTimestamp(time.Unix(1, 0))},
		{ID: "d2", Title: "План", Description: "квартальный отчёт", CreatedAt: model.NewTimestamp(time.Unix(2, 0))},
		{ID: "d3", Title: "Договор", Tags: []string{"Legal"}, CreatedAt: model.NewTimestamp(time.Unix(3, 0))},
		{ID: "d4", Title: "Письмо", AuthorName: &author, CreatedAt: model.NewTimestamp(time.Unix(4, 0))},
	}
	v := NewDocumentListView(docs, language.Russian)

	tests := []struct {
		query string
		want  []string
	}{
		{"отчёт", []string{"d2", "d1"}},
		{"LEGAL", []string{"d3"}},
		{"иванова", []string{"d4"}},
		{"нет такого", nil},
		{"", []string{"d4", "d3", "d2", "d1"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			v.Search(tt.query)
			items := v.Page(1).Items
			if len(items) != len(tt.want) {
				t.Fatalf("найдено %d, ожидалось %d", len(items), len(tt.want))
			}
			for i, id := range tt.want {
				if items[i].ID != id {
					t.Errorf("позиция %d: %s, ожидался %s", i, items[i].ID, id)
				}
			}
		})
	}
}

func TestDocumentListView_Sort(t *testing.T) {
	docs := []model.Document{
		{ID: "a", Title: "яблоко", StarsCount: 1, CreatedAt: model.NewTimestamp(time.Unix(10, 0))},
		{ID: "b", Title: "Арбуз", StarsCount: 5, CreatedAt: model.NewTimestamp(time.Unix(30, 0))},
		{ID: "c", Title: "банан", StarsCount: 3, CreatedAt: model.NewTimestamp(time.Unix(20, 0))},
	}
	v := NewDocumentListView(docs, language.Russian)

	tests := []struct {
		order SortOrder
		want  string
	}{
		{SortNewest, "bca"},
		{SortOldest, "acb"},
		{SortTitle, "bca"},
		{SortStars, "bca"},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			v.SortBy(tt.order)
			got := ""
			for _, d := range v.Page(1).Items {
				got += d.ID
			}
			if got != tt.want {
				t.Errorf("порядок %q, ожидался %q", got, tt.want)
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	if got, err := ParseSortOrder(""); err != nil || got != SortNewest {
		t.Errorf("пустая строка: %v, %v", got, err)
	}
	if got, err := ParseSortOrder("Stars"); err != nil || got != SortStars {
		t.Errorf("Stars: %v, %v", got, err)
	}
	if _, err := ParseSortOrder("random"); err == nil {
		t.Error("ожидалась ошибка для неизвестной сортировки")
	}
}

func TestDocumentListView_DeletedAuthor(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	anna := "Анна"
	backend.users = []model.User{{ID: "u2", Name: anna}}
	backend.addDocument(model.Document{ID: "d1", AuthorID: "u2", AuthorName: &anna, Title: "Отчёт"})

	admin := newAdmin(backend, rbac.RoleManager)
	if err := admin.DeleteUser(ctx, "u2", true); err != nil {
		t.Fatalf("Ошибка DeleteUser: %v", err)
	}

	docs, err := newWorkflow(backend, viewerWith("u1", rbac.RoleReader)).List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("Ошибка List: %v", err)
	}
	page := NewDocumentListView(docs, language.Russian).Page(1)
	if len(page.Items) != 1 || page.Items[0].DisplayAuthor != model.UnknownName {
		t.Fatalf("документ удалённого автора должен остаться с автором %s, получено %+v", model.UnknownName, page.Items)
	}

	data, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("Ошибка Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"author":"Unknown"`) {
		t.Errorf("в ответе нет отображаемого автора: %s", data)
	}
}
