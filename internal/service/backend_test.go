package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/bigkaa/dochub-portal/internal/apiclient"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

var (
	_ DocumentBackend = (*fakeBackend)(nil)
	_ AdminBackend    = (*fakeBackend)(nil)
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// viewerWith создаёт Viewer с возможностями указанных ролей.
func viewerWith(userID string, roles ...string) Viewer {
	return Viewer{UserID: userID, Caps: rbac.Resolve(roles)}
}

// fakeBackend — in-memory backend DocHub для тестов сервисов.
// Реализует DocumentBackend и AdminBackend.
type fakeBackend struct {
	mu sync.Mutex

	docs       map[string]*model.Document
	comments   map[string][]model.Comment
	users      []model.User
	roles      []model.Role
	categories []model.Category
	stats      *model.SystemStats
	assigned   map[string][]string
	uploaded   []byte

	// errs — ошибка, возвращаемая операцией (по имени метода)
	errs  map[string]error
	calls map[string]int
	// decision — статус, который backend выставляет при approve/reject
	decision map[string]model.Status
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:     make(map[string]*model.Document),
		comments: make(map[string][]model.Comment),
		assigned: make(map[string][]string),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
		decision: map[string]model.Status{
			"Approve": model.StatusPublished,
			"Reject":  model.StatusRejected,
		},
	}
}

// call регистрирует вызов и возвращает настроенную ошибку.
func (f *fakeBackend) call(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.errs[name]
}

// count возвращает количество вызовов метода.
func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// total возвращает общее количество вызовов backend.
func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) failOn(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeBackend) addDocument(d model.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[d.ID] = &d
}

func (f *fakeBackend) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

// --- DocumentBackend ---

func (f *fakeBackend) ListDocuments(_ context.Context, q apiclient.DocumentQuery) ([]model.Document, error) {
	if err := f.call("ListDocuments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]model.Document, 0, len(f.docs))
	for _, d := range f.docs {
		if q.AuthorID != "" && d.AuthorID != q.AuthorID {
			continue
		}
		if q.Status != nil && d.Status != *q.Status {
			continue
		}
		result = append(result, *d)
	}
	return result, nil
}

func (f *fakeBackend) StarredDocuments(_ context.Context) ([]model.Document, error) {
	if err := f.call("StarredDocuments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]model.Document, 0)
	for _, d := range f.docs {
		if d.IsStarred {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (f *fakeBackend) GetDocument(_ context.Context, id string) (*model.Document, error) {
	if err := f.call("GetDocument"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, &apperr.Error{Kind: apperr.ErrNotFound, Status: 404, Message: "Document not found"}
	}
	return d.Clone(), nil
}

func (f *fakeBackend) CreateDocument(_ context.Context, in model.DocumentCreate) (*model.Document, error) {
	if err := f.call("CreateDocument"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &model.Document{
		ID:          f.newID("d"),
		AuthorID:    "u1",
		Title:       in.Title,
		Description: in.Description,
		Link:        in.Link,
		Size:        in.Size,
		Tags:        in.Tags,
		Status:      model.StatusPending,
	}
	f.docs[d.ID] = d
	return d.Clone(), nil
}

func (f *fakeBackend) UpdateDocument(_ context.Context, id string, in model.DocumentUpdate) (*model.Document, error) {
	if err := f.call("UpdateDocument"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.docs[id]
	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Tags != nil {
		d.Tags = in.Tags
	}
	return d.Clone(), nil
}

func (f *fakeBackend) DeleteDocument(_ context.Context, id string) error {
	if err := f.call("DeleteDocument"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeBackend) UploadFile(_ context.Context, file apiclient.FileUpload) (*model.UploadResult, error) {
	if err := f.call("UploadFile"); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(file.Data)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = data
	return &model.UploadResult{
		Filename: file.Filename,
		FilePath: "uploads/" + file.Filename,
		Size:     float64(len(data)),
	}, nil
}

func (f *fakeBackend) DownloadFile(_ context.Context, id string, download bool) (*apiclient.FileContent, error) {
	if err := f.call("DownloadFile"); err != nil {
		return nil, err
	}
	disposition := "inline"
	if download {
		disposition = "attachment"
	}
	return &apiclient.FileContent{
		ContentType: "application/pdf",
		Filename:    id + ".pdf",
		Disposition: disposition,
		Data:        bytes.Repeat([]byte("%"), 16),
	}, nil
}

func (f *fakeBackend) Star(_ context.Context, id string) error {
	if err := f.call("Star"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[id]; ok && !d.IsStarred {
		d.IsStarred = true
		d.StarsCount++
	}
	return nil
}

func (f *fakeBackend) Unstar(_ context.Context, id string) error {
	if err := f.call("Unstar"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[id]; ok && d.IsStarred {
		d.IsStarred = false
		d.StarsCount = max(0, d.StarsCount-1)
	}
	return nil
}

func (f *fakeBackend) Comments(_ context.Context, documentID string) ([]model.Comment, error) {
	if err := f.call("Comments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Comment(nil), f.comments[documentID]...), nil
}

func (f *fakeBackend) PostComment(_ context.Context, in model.CommentCreate) (*model.Comment, error) {
	if err := f.call("PostComment"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.Comment{AuthorID: "u1", DocumentID: in.DocumentID, Content: in.Content}
	f.comments[in.DocumentID] = append(f.comments[in.DocumentID], c)
	if d, ok := f.docs[in.DocumentID]; ok {
		d.CommentsCount++
	}
	return &c, nil
}

func (f *fakeBackend) Approve(_ context.Context, id string) (*model.Document, error) {
	return f.decide("Approve", id)
}

func (f *fakeBackend) Reject(_ context.Context, id string) (*model.Document, error) {
	return f.decide("Reject", id)
}

func (f *fakeBackend) decide(name, id string) (*model.Document, error) {
	if err := f.call(name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, apperr.NotFound("Document not found")
	}
	if d.Status != model.StatusPending {
		return nil, &apperr.Error{Kind: apperr.ErrValidation, Status: 400, Message: "Document is not pending approval"}
	}
	d.Status = f.decision[name]
	approver := "u9"
	d.ApprovedBy = &approver
	return d.Clone(), nil
}

func (f *fakeBackend) PendingApprovals(_ context.Context) ([]model.Document, error) {
	if err := f.call("PendingApprovals"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]model.Document, 0)
	for _, d := range f.docs {
		if d.Status == model.StatusPending {
			result = append(result, *d)
		}
	}
	return result, nil
}

// --- AdminBackend ---

func (f *fakeBackend) ListUsers(_ context.Context) ([]model.User, error) {
	if err := f.call("ListUsers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeBackend) CreateUser(_ context.Context, in model.UserCreate) (*model.User, error) {
	if err := f.call("CreateUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := model.User{ID: f.newID("u"), Name: in.Name, Email: in.Email, Roles: []string{}}
	f.users = append(f.users, u)
	return &u, nil
}

// DeleteUser удаляет пользователя; его документы остаются без имени автора.
func (f *fakeBackend) DeleteUser(_ context.Context, id string) error {
	if err := f.call("DeleteUser"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = slices.DeleteFunc(f.users, func(u model.User) bool { return u.ID == id })
	for _, d := range f.docs {
		if d.AuthorID == id {
			d.AuthorName = nil
		}
	}
	return nil
}

func (f *fakeBackend) AssignRoles(_ context.Context, userID string, roleIDs []string) error {
	if err := f.call("AssignRoles"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned[userID] = roleIDs
	return nil
}

func (f *fakeBackend) ListRoles(_ context.Context) ([]model.Role, error) {
	if err := f.call("ListRoles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Role(nil), f.roles...), nil
}

func (f *fakeBackend) CreateRole(_ context.Context, in model.RoleCreate) (*model.Role, error) {
	if err := f.call("CreateRole"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.Role{ID: f.newID("r"), Name: in.Name}, nil
}

func (f *fakeBackend) ListCategories(_ context.Context) ([]model.Category, error) {
	if err := f.call("ListCategories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Category(nil), f.categories...), nil
}

func (f *fakeBackend) CreateCategory(_ context.Context, in model.CategoryCreate) (*model.Category, error) {
	if err := f.call("CreateCategory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.Category{ID: f.newID("c"), Name: in.Name, Description: in.Description}, nil
}

func (f *fakeBackend) SystemStats(_ context.Context) (*model.SystemStats, error) {
	if err := f.call("SystemStats"); err != nil {
		return nil, err
	}
	if f.stats == nil {
		return &model.SystemStats{}, nil
	}
	return f.stats, nil
}
