// Пакет service — бизнес-логика портала DocHub поверх API backend.
// Сервисы создаются на каждый запрос: Viewer описывает текущего пользователя,
// backend уже привязан к его токену.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bigkaa/dochub-portal/internal/apiclient"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/lifecycle"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

// MaxFileSize — максимальный размер загружаемого файла (10 МиБ).
const MaxFileSize = 10 << 20

// allowedFileTypes — допустимые расширения и их MIME-типы.
var allowedFileTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// DocumentBackend — операции backend над документами.
// Реализуется apiclient.Client.
type DocumentBackend interface {
	ListDocuments(ctx context.Context, q apiclient.DocumentQuery) ([]model.Document, error)
	StarredDocuments(ctx context.Context) ([]model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	CreateDocument(ctx context.Context, in model.DocumentCreate) (*model.Document, error)
	UpdateDocument(ctx context.Context, id string, in model.DocumentUpdate) (*model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	UploadFile(ctx context.Context, f apiclient.FileUpload) (*model.UploadResult, error)
	DownloadFile(ctx context.Context, id string, download bool) (*apiclient.FileContent, error)
	Star(ctx context.Context, id string) error
	Unstar(ctx context.Context, id string) error
	Comments(ctx context.Context, documentID string) ([]model.Comment, error)
	PostComment(ctx context.Context, in model.CommentCreate) (*model.Comment, error)
	Approve(ctx context.Context, id string) (*model.Document, error)
	Reject(ctx context.Context, id string) (*model.Document, error)
	PendingApprovals(ctx context.Context) ([]model.Document, error)
}

var _ DocumentBackend = (*apiclient.Client)(nil)

// Viewer — пользователь, от имени которого выполняются операции.
type Viewer struct {
	UserID string
	Caps   rbac.Capabilities
}

// ListFilter — серверные фильтры списка документов.
type ListFilter struct {
	Status   *model.Status
	AuthorID string
	Skip     int
	Limit    int
}

// FileInput — файл из формы создания документа.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// CreateInput — данные формы создания документа.
type CreateInput struct {
	Title       string
	Description string
	CategoryIDs []string
	Tags        []string
	File        *FileInput
}

// UpdateInput — изменяемые поля документа. nil — поле не меняется.
type UpdateInput struct {
	Title       *string
	Description *string
	Tags        []string
}

// DocumentWorkflow — операции над документами от имени Viewer.
type DocumentWorkflow struct {
	backend DocumentBackend
	viewer  Viewer
	blobs   *BlobRegistry
	logger  *slog.Logger
}

// NewDocumentWorkflow создаёт сервис документов.
func NewDocumentWorkflow(backend DocumentBackend, viewer Viewer, blobs *BlobRegistry, logger *slog.Logger) *DocumentWorkflow {
	return &DocumentWorkflow{
		backend: backend,
		viewer:  viewer,
		blobs:   blobs,
		logger:  logger.With(slog.String("component", "document_workflow")),
	}
}

// Viewer возвращает пользователя сервиса.
func (w *DocumentWorkflow) Viewer() Viewer {
	return w.viewer
}

// List возвращает документы с серверной фильтрацией. Пустой список — корректный результат.
// Без права чтения backend не вызывается: список пуст.
func (w *DocumentWorkflow) List(ctx context.Context, f ListFilter) ([]model.Document, error) {
	if !w.viewer.Caps.CanRead {
		return []model.Document{}, nil
	}
	limit := f.Limit
	if limit <= 0 {
		limit = apiclient.DefaultListLimit
	}
	docs, err := w.backend.ListDocuments(ctx, apiclient.DocumentQuery{
		Skip:     max(f.Skip, 0),
		Limit:    limit,
		Status:   f.Status,
		AuthorID: f.AuthorID,
	})
	if err != nil {
		return nil, fmt.Errorf("получение списка документов: %w", err)
	}
	return sanitizeDocuments(docs), nil
}

// Starred возвращает документы в закладках пользователя.
func (w *DocumentWorkflow) Starred(ctx context.Context) ([]model.Document, error) {
	if !w.viewer.Caps.CanRead {
		return []model.Document{}, nil
	}
	docs, err := w.backend.StarredDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение закладок: %w", err)
	}
	return sanitizeDocuments(docs), nil
}

// GetByID возвращает документ. Отсутствующий документ — apperr.ErrNotFound.
func (w *DocumentWorkflow) GetByID(ctx context.Context, id string) (*model.Document, error) {
	id, err := requireID("id", id)
	if err != nil {
		return nil, err
	}
	doc, err := w.backend.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение документа %s: %w", id, err)
	}
	return sanitizeDocument(doc), nil
}

// Create проверяет форму, загружает файл и создаёт документ.
// Проверка выполняется до любого сетевого вызова. Ошибка любого шага
// завершает операцию целиком: частично созданный документ не возвращается.
func (w *DocumentWorkflow) Create(ctx context.Context, in CreateInput) (*model.Document, error) {
	if !w.viewer.Caps.CanCreate {
		return nil, apperr.Forbidden("Создание документов доступно только роли CREATOR")
	}

	draft, err := validateCreate(in)
	if err != nil {
		return nil, err
	}

	uploaded, err := w.backend.UploadFile(ctx, apiclient.FileUpload{
		Filename:    in.File.Name,
		ContentType: in.File.ContentType,
		Data:        io.LimitReader(in.File.Data, MaxFileSize),
	})
	if err != nil {
		return nil, fmt.Errorf("загрузка файла: %w", err)
	}

	draft.Link = uploaded.FilePath
	draft.Size = uploaded.Size
	if draft.Size == 0 {
		draft.Size = float64(in.File.Size)
	}

	doc, err := w.backend.CreateDocument(ctx, draft)
	if err != nil {
		w.logger.Warn("Файл загружен, но документ не создан",
			slog.String("file_path", uploaded.FilePath),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("создание документа: %w", err)
	}

	w.logger.Info("Документ создан",
		slog.String("document_id", doc.ID),
		slog.String("user_id", w.viewer.UserID),
		slog.Float64("size", doc.Size),
	)
	return sanitizeDocument(doc), nil
}

// Update изменяет метаданные документа.
// Доступно только автору и только пока статус допускает редактирование.
func (w *DocumentWorkflow) Update(ctx context.Context, id string, in UpdateInput) (*model.Document, error) {
	doc, err := w.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.AuthorID != w.viewer.UserID {
		return nil, apperr.Forbidden("Редактировать документ может только автор")
	}
	if !lifecycle.CanPerform(doc.Status, lifecycle.OpEdit) {
		return nil, transitionError(&lifecycle.TransitionError{
			Code:    lifecycle.CodeInvalidTransition,
			Message: fmt.Sprintf("документ в статусе %s нельзя редактировать", doc.Status),
		})
	}

	update := model.DocumentUpdate{Description: in.Description}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title", "Укажите название документа")
		}
		update.Title = &title
	}
	if in.Tags != nil {
		update.Tags = normalizeList(in.Tags)
	}

	updated, err := w.backend.UpdateDocument(ctx, doc.ID, update)
	if err != nil {
		return nil, fmt.Errorf("изменение документа %s: %w", doc.ID, err)
	}
	return sanitizeDocument(updated), nil
}

// Delete удаляет документ. Доступно автору и менеджеру, требует подтверждения.
func (w *DocumentWorkflow) Delete(ctx context.Context, id string, confirm bool) error {
	if !confirm {
		return apperr.ConfirmationRequired(string(lifecycle.OpDelete))
	}
	doc, err := w.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.AuthorID != w.viewer.UserID && !w.viewer.Caps.CanManageSystem {
		return apperr.Forbidden("Удалить документ может только автор или менеджер")
	}
	if err := w.backend.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("удаление документа %s: %w", doc.ID, err)
	}
	w.logger.Info("Документ удалён",
		slog.String("document_id", doc.ID),
		slog.String("user_id", w.viewer.UserID),
	)
	return nil
}

// Star добавляет документ в закладки.
func (w *DocumentWorkflow) Star(ctx context.Context, id string) error {
	return w.setStar(ctx, id, true)
}

// Unstar удаляет документ из закладок.
func (w *DocumentWorkflow) Unstar(ctx context.Context, id string) error {
	return w.setStar(ctx, id, false)
}

func (w *DocumentWorkflow) setStar(ctx context.Context, id string, starred bool) error {
	if !w.viewer.Caps.CanStar {
		return apperr.Forbidden("Закладки недоступны для ваших ролей")
	}
	id, err := requireID("id", id)
	if err != nil {
		return err
	}
	if starred {
		err = w.backend.Star(ctx, id)
	} else {
		err = w.backend.Unstar(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("закладка документа %s: %w", id, err)
	}
	return nil
}

// Comments возвращает комментарии документа в порядке создания.
func (w *DocumentWorkflow) Comments(ctx context.Context, id string) ([]model.Comment, error) {
	id, err := requireID("id", id)
	if err != nil {
		return nil, err
	}
	comments, err := w.backend.Comments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение комментариев %s: %w", id, err)
	}

	result := make([]model.Comment, len(comments))
	for i, c := range comments {
		result[i] = sanitizeComment(c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt.Time)
	})
	return result, nil
}

// PostComment публикует комментарий. Пустой после обрезки текст отклоняется
// без обращения к backend. Возвращается запись сервера.
func (w *DocumentWorkflow) PostComment(ctx context.Context, id, content string) (*model.Comment, error) {
	if !w.viewer.Caps.CanComment {
		return nil, apperr.Forbidden("Комментарии недоступны для ваших ролей")
	}
	id, err := requireID("id", id)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content", "Комментарий не может быть пустым")
	}

	comment, err := w.backend.PostComment(ctx, model.CommentCreate{DocumentID: id, Content: content})
	if err != nil {
		return nil, fmt.Errorf("публикация комментария: %w", err)
	}
	sanitized := sanitizeComment(*comment)
	return &sanitized, nil
}

// Approve одобряет документ. Возвращает документ, заново полученный от backend.
func (w *DocumentWorkflow) Approve(ctx context.Context, id string, confirm bool) (*model.Document, error) {
	return w.decide(ctx, id, lifecycle.OpApprove, confirm)
}

// Reject отклоняет документ. Возвращает документ, заново полученный от backend.
func (w *DocumentWorkflow) Reject(ctx context.Context, id string, confirm bool) (*model.Document, error) {
	return w.decide(ctx, id, lifecycle.OpReject, confirm)
}

// decide выполняет решение согласующего. Статус определяет backend,
// поэтому после вызова документ всегда перечитывается.
func (w *DocumentWorkflow) decide(ctx context.Context, id string, op lifecycle.Operation, confirm bool) (*model.Document, error) {
	if !w.viewer.Caps.CanApprove {
		return nil, errApproverOnly()
	}
	if !confirm {
		return nil, apperr.ConfirmationRequired(string(op))
	}
	id, err := requireID("id", id)
	if err != nil {
		return nil, err
	}

	if op == lifecycle.OpApprove {
		_, err = w.backend.Approve(ctx, id)
	} else {
		_, err = w.backend.Reject(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s документа %s: %w", op, id, err)
	}

	w.logger.Info("Решение по документу принято",
		slog.String("document_id", id),
		slog.String("action", string(op)),
		slog.String("user_id", w.viewer.UserID),
	)
	return w.GetByID(ctx, id)
}

// Pending возвращает документы, ожидающие решения.
func (w *DocumentWorkflow) Pending(ctx context.Context) ([]model.Document, error) {
	if !w.viewer.Caps.CanApprove {
		return nil, apperr.Forbidden("Очередь согласования доступна только роли APPROVER")
	}
	docs, err := w.backend.PendingApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение очереди согласования: %w", err)
	}
	return sanitizeDocuments(docs), nil
}

// OpenFile получает файл документа и регистрирует объектный URL.
// download=true — файл отдаётся как вложение.
func (w *DocumentWorkflow) OpenFile(ctx context.Context, id string, download bool) (*Blob, error) {
	id, err := requireID("id", id)
	if err != nil {
		return nil, err
	}
	content, err := w.backend.DownloadFile(ctx, id, download)
	if err != nil {
		return nil, fmt.Errorf("получение файла документа %s: %w", id, err)
	}
	blob := w.blobs.Register(w.viewer.UserID, id, content)
	w.logger.Debug("Объектный URL выдан",
		slog.String("document_id", id),
		slog.String("blob_id", blob.ID),
		slog.Int("bytes", len(blob.Data)),
	)
	return blob, nil
}

// Release освобождает объектный URL пользователя.
func (w *DocumentWorkflow) Release(blobID string) error {
	return w.blobs.Release(blobID, w.viewer.UserID)
}

// --- проверки ---

// validateCreate проверяет форму создания и возвращает тело запроса без link/size.
func validateCreate(in CreateInput) (model.DocumentCreate, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.DocumentCreate{}, apperr.Validation("title", "Укажите название документа")
	}

	categories := normalizeList(in.CategoryIDs)
	if len(categories) == 0 {
		return model.DocumentCreate{}, apperr.Validation("category_ids", "Выберите хотя бы одну категорию")
	}

	if err := validateFile(in.File); err != nil {
		return model.DocumentCreate{}, err
	}

	return model.DocumentCreate{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Tags:        normalizeList(in.Tags),
		CategoryIDs: categories,
	}, nil
}

// validateFile проверяет расширение, MIME-тип и размер файла.
func validateFile(f *FileInput) error {
	if f == nil || f.Data == nil || strings.TrimSpace(f.Name) == "" {
		return apperr.Validation("file", "Выберите файл для загрузки")
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	types, ok := allowedFileTypes[ext]
	if !ok {
		return apperr.Validation("file", "Допустимы только файлы PDF и DOCX")
	}

	if f.ContentType != "" {
		mediaType, _, err := mime.ParseMediaType(f.ContentType)
		if err != nil {
			return apperr.Validation("file", "Некорректный тип файла")
		}
		if mediaType != "application/octet-stream" && !slices.Contains(types, mediaType) {
			return apperr.Validation("file", fmt.Sprintf("Тип %s не соответствует расширению %s", mediaType, ext))
		}
	}

	if f.Size <= 0 {
		return apperr.Validation("file", "Файл пуст")
	}
	if f.Size > MaxFileSize {
		return apperr.Validation("file", "Размер файла превышает 10 МБ")
	}
	return nil
}

// requireID обрезает идентификатор и отклоняет пустой.
func requireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperr.Validation(field, "Не указан идентификатор")
	}
	return id, nil
}

// normalizeList обрезает элементы, удаляет пустые и дубликаты, сохраняя порядок.
func normalizeList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || slices.Contains(result, item) {
			continue
		}
		result = append(result, item)
	}
	return result
}

func errApproverOnly() error {
	return apperr.Forbidden("Решение по документу доступно только роли APPROVER")
}

// transitionError переводит ошибку автомата статусов в таксономию apperr.
func transitionError(err error) error {
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		return &apperr.Error{Kind: apperr.ErrValidation, Code: te.Code, Message: te.Message, Err: err}
	}
	return err
}
