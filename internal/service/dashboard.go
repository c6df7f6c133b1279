package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

// DocumentCounts — счётчики по документам автора.
type DocumentCounts struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Pending   int `json:"pending"`
	Rejected  int `json:"rejected"`
	Stars     int `json:"stars"`
	Comments  int `json:"comments"`
}

// Dashboard — данные стартовой панели. Набор заполненных полей зависит от актора.
type Dashboard struct {
	Actor   rbac.Actor         `json:"actor"`
	Stats   *model.SystemStats `json:"stats,omitempty"`
	Mine    []model.Document   `json:"mine,omitempty"`
	All     []model.Document   `json:"all,omitempty"`
	Starred []model.Document   `json:"starred,omitempty"`
	Pending []model.Document   `json:"pending,omitempty"`
	Counts  *DocumentCounts    `json:"counts,omitempty"`
}

// LoadDashboard параллельно загружает данные панели для актора пользователя.
// Результат возвращается только после завершения всех запросов.
func LoadDashboard(ctx context.Context, docs *DocumentWorkflow, admin *AdminResources) (*Dashboard, error) {
	viewer := docs.Viewer()
	d := &Dashboard{Actor: viewer.Caps.Actor()}

	g, gctx := errgroup.WithContext(ctx)
	loadAll := func() {
		g.Go(func() error {
			all, err := docs.List(gctx, ListFilter{})
			d.All = all
			return err
		})
	}
	loadStarred := func() {
		g.Go(func() error {
			starred, err := docs.Starred(gctx)
			d.Starred = starred
			return err
		})
	}

	switch d.Actor {
	case rbac.ActorManager:
		g.Go(func() error {
			stats, err := admin.SystemStats(gctx)
			d.Stats = stats
			return err
		})
	case rbac.ActorCreator:
		g.Go(func() error {
			mine, err := docs.List(gctx, ListFilter{AuthorID: viewer.UserID})
			d.Mine = mine
			return err
		})
		loadAll()
		loadStarred()
	case rbac.ActorApprover:
		g.Go(func() error {
			pending, err := docs.Pending(gctx)
			d.Pending = pending
			return err
		})
		loadAll()
	case rbac.ActorReader:
		loadAll()
		loadStarred()
	case rbac.ActorAnonymous:
		// пользователь без ролей видит пустую панель
	default:
		return nil, fmt.Errorf("неизвестный актор: %s", d.Actor)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if d.Actor == rbac.ActorCreator {
		counts := countDocuments(d.Mine)
		d.Counts = &counts
	}
	return d, nil
}

// countDocuments считает производные показатели по документам автора.
func countDocuments(docs []model.Document) DocumentCounts {
	c := DocumentCounts{Total: len(docs)}
	for _, doc := range docs {
		switch doc.Status {
		case model.StatusPublished:
			c.Published++
		case model.StatusPending:
			c.Pending++
		case model.StatusRejected:
			c.Rejected++
		}
		c.Stars += doc.StarsCount
		c.Comments += doc.CommentsCount
	}
	return c
}
