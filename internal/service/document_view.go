package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/dochub-portal/internal/domain/lifecycle"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

// DocumentView — состояние страницы документа: документ, комментарии и
// наблюдаемый статус. Закладка меняется оптимистично с откатом при ошибке,
// решение согласующего заменяет документ целиком.
type DocumentView struct {
	workflow *DocumentWorkflow
	tracker  *lifecycle.Tracker
	logger   *slog.Logger

	mu             sync.Mutex
	doc            *model.Document
	comments       []model.Comment
	commentsLoaded bool
}

// LoadDocumentView параллельно загружает документ и его комментарии.
func LoadDocumentView(ctx context.Context, w *DocumentWorkflow, id string) (*DocumentView, error) {
	var (
		doc      *model.Document
		comments []model.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = w.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = w.Comments(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v, err := NewDocumentView(w, doc, comments)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// NewDocumentView создаёт представление для уже загруженного документа.
// comments == nil — комментарии не загружались.
func NewDocumentView(w *DocumentWorkflow, doc *model.Document, comments []model.Comment) (*DocumentView, error) {
	tracker, err := lifecycle.NewTracker(doc.Status)
	if err != nil {
		return nil, err
	}
	return &DocumentView{
		workflow:       w,
		tracker:        tracker,
		logger:         w.logger.With(slog.String("document_id", doc.ID)),
		doc:            doc.Clone(),
		comments:       slices.Clone(comments),
		commentsLoaded: comments != nil,
	}, nil
}

// Document возвращает копию текущего документа.
func (v *DocumentView) Document() *model.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.Clone()
}

// Comments возвращает копию списка комментариев.
func (v *DocumentView) Comments() []model.Comment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.comments)
}

// Status возвращает наблюдаемый статус документа.
func (v *DocumentView) Status() model.Status {
	return v.tracker.Current()
}

// ToggleStar переключает закладку.
func (v *DocumentView) ToggleStar(ctx context.Context) error {
	v.mu.Lock()
	starred := v.doc.IsStarred
	v.mu.Unlock()
	return v.SetStarred(ctx, !starred)
}

// SetStarred устанавливает закладку оптимистично: счётчик и флаг меняются
// до ответа backend и восстанавливаются при ошибке.
func (v *DocumentView) SetStarred(ctx context.Context, starred bool) error {
	v.mu.Lock()
	if v.doc.IsStarred == starred {
		v.mu.Unlock()
		return nil
	}
	prevStarred, prevCount := v.doc.IsStarred, v.doc.StarsCount
	v.doc.IsStarred = starred
	if starred {
		v.doc.StarsCount++
	} else {
		v.doc.StarsCount = max(0, v.doc.StarsCount-1)
	}
	id := v.doc.ID
	v.mu.Unlock()

	var err error
	if starred {
		err = v.workflow.Star(ctx, id)
	} else {
		err = v.workflow.Unstar(ctx, id)
	}
	if err != nil {
		v.mu.Lock()
		v.doc.IsStarred, v.doc.StarsCount = prevStarred, prevCount
		v.mu.Unlock()
		v.logger.Debug("Закладка откатена", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// PostComment публикует комментарий и добавляет запись сервера в список.
func (v *DocumentView) PostComment(ctx context.Context, content string) (*model.Comment, error) {
	v.mu.Lock()
	id := v.doc.ID
	v.mu.Unlock()

	comment, err := v.workflow.PostComment(ctx, id, content)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.commentsLoaded {
		v.comments = append(v.comments, *comment)
		v.doc.CommentsCount = len(v.comments)
	} else {
		v.doc.CommentsCount++
	}
	return comment, nil
}

// Approve одобряет документ и заменяет его версией backend.
func (v *DocumentView) Approve(ctx context.Context, confirm bool) (*model.Document, error) {
	return v.decide(ctx, lifecycle.OpApprove, confirm)
}

// Reject отклоняет документ и заменяет его версией backend.
func (v *DocumentView) Reject(ctx context.Context, confirm bool) (*model.Document, error) {
	return v.decide(ctx, lifecycle.OpReject, confirm)
}

func (v *DocumentView) decide(ctx context.Context, op lifecycle.Operation, confirm bool) (*model.Document, error) {
	if !v.workflow.viewer.Caps.CanApprove {
		return nil, errApproverOnly()
	}
	if err := v.tracker.Check(op, confirm); err != nil {
		return nil, transitionError(err)
	}

	v.mu.Lock()
	id := v.doc.ID
	v.mu.Unlock()

	var (
		doc *model.Document
		err error
	)
	if op == lifecycle.OpApprove {
		doc, err = v.workflow.Approve(ctx, id, confirm)
	} else {
		doc, err = v.workflow.Reject(ctx, id, confirm)
	}
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.doc = doc.Clone()
	v.mu.Unlock()

	if err := v.tracker.Observe(doc.Status, v.workflow.viewer.UserID); err != nil {
		v.logger.Warn("Неожиданный статус после решения",
			slog.String("action", string(op)),
			slog.String("error", err.Error()),
		)
	}
	return doc, nil
}

// Actions возвращает действия, которые страница может предложить пользователю.
func (v *DocumentView) Actions(caps rbac.Capabilities, userID string) []lifecycle.Operation {
	v.mu.Lock()
	doc := v.doc.Clone()
	v.mu.Unlock()

	isAuthor := userID != "" && doc.AuthorID == userID
	result := make([]lifecycle.Operation, 0)
	for _, op := range v.tracker.AllowedOperations() {
		var ok bool
		switch op {
		case lifecycle.OpEdit:
			ok = isAuthor
		case lifecycle.OpSubmit:
			ok = isAuthor && caps.CanCreate
		case lifecycle.OpApprove, lifecycle.OpReject:
			ok = caps.CanApprove
		case lifecycle.OpComment:
			ok = caps.CanComment
		case lifecycle.OpStar:
			ok = caps.CanStar
		case lifecycle.OpDownload:
			ok = doc.HasFile() && (caps.CanRead || isAuthor)
		case lifecycle.OpDelete:
			ok = isAuthor || caps.CanManageSystem
		}
		if ok {
			result = append(result, op)
		}
	}
	return result
}

// History возвращает наблюдавшиеся переходы статуса.
func (v *DocumentView) History() []lifecycle.TransitionRecord {
	return v.tracker.History()
}
