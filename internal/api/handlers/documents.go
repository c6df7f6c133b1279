// documents.go — документы: список, создание, просмотр, изменение,
// закладки, комментарии, согласование и файлы.
package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/lifecycle"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/service"
)

// multipartMemory — часть формы, удерживаемая в памяти; остальное — во временных файлах.
const multipartMemory = 4 << 20

// documentResponse — документ с действиями, доступными пользователю.
type documentResponse struct {
	Document *model.Document              `json:"document"`
	Author   string                       `json:"author"`
	Approver string                       `json:"approver,omitempty"`
	Comments []model.Comment              `json:"comments,omitempty"`
	Actions  []lifecycle.Operation        `json:"actions"`
	History  []lifecycle.TransitionRecord `json:"history,omitempty"`
}

// updateDocumentRequest — тело PUT /api/documents/{id}.
type updateDocumentRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

// decisionRequest — тело POST /api/documents/{id}/approve|reject.
type decisionRequest struct {
	Confirm bool `json:"confirm"`
}

// ListDocuments обрабатывает GET /api/documents?page&status&author&q&sort.
// status и author фильтруют на backend, q и sort — локально.
// author=me — документы текущего пользователя.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	wf := h.workflow(r)

	filter := service.ListFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			h.fail(w, r, apperr.Validation("status", err.Error()))
			return
		}
		filter.Status = &status
	}
	filter.AuthorID = strings.TrimSpace(r.URL.Query().Get("author"))
	if filter.AuthorID == "me" {
		filter.AuthorID = wf.Viewer().UserID
	}

	docs, err := wf.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writePage(w, r, docs)
}

// ListStarred обрабатывает GET /api/documents/starred.
func (h *Handler) ListStarred(w http.ResponseWriter, r *http.Request) {
	docs, err := h.workflow(r).Starred(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writePage(w, r, docs)
}

// ListPending обрабатывает GET /api/approvals/pending.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	docs, err := h.workflow(r).Pending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writePage(w, r, docs)
}

// writePage записывает страницу списка.
func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, docs []model.Document) {
	page, err := listView(r, docs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateDocument обрабатывает POST /api/documents (multipart/form-data).
// Поля: title, description, category_ids, tags (через запятую или повтором), file.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, apperr.Validation("file", "Размер файла превышает 10 МБ"))
			return
		}
		h.fail(w, r, apperr.Validation("", fmt.Sprintf("некорректная форма: %v", err)))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := service.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		CategoryIDs: formList(r.MultipartForm, "category_ids"),
		Tags:        formList(r.MultipartForm, "tags"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		h.fail(w, r, apperr.Validation("file", fmt.Sprintf("не удалось прочитать файл: %v", err)))
		return
	default:
		defer func() { _ = file.Close() }()
		in.File = &service.FileInput{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		}
	}

	doc, err := h.workflow(r).Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// formList собирает значения поля: повторяющиеся поля и списки через запятую.
func formList(form *multipart.Form, name string) []string {
	var result []string
	for _, v := range form.Value[name] {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

// GetDocument обрабатывает GET /api/documents/{id}.
// Документ и комментарии загружаются параллельно.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	wf := h.workflow(r)
	view, err := service.LoadDocumentView(r.Context(), wf, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.documentResponse(wf, view, true))
}

// documentResponse собирает ответ по представлению документа.
func (h *Handler) documentResponse(wf *service.DocumentWorkflow, view *service.DocumentView, withComments bool) documentResponse {
	viewer := wf.Viewer()
	doc := view.Document()
	resp := documentResponse{
		Document: doc,
		Author:   doc.Author(),
		Approver: doc.Approver(),
		Actions:  view.Actions(viewer.Caps, viewer.UserID),
		History:  view.History(),
	}
	if withComments {
		resp.Comments = view.Comments()
		if resp.Comments == nil {
			resp.Comments = []model.Comment{}
		}
	}
	return resp
}

// UpdateDocument обрабатывает PUT /api/documents/{id}.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req updateDocumentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	doc, err := h.workflow(r).Update(r.Context(), chi.URLParam(r, "id"), service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument обрабатывает DELETE /api/documents/{id}?confirm=true.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	confirm, err := queryBool(r, "confirm")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.workflow(r).Delete(r.Context(), chi.URLParam(r, "id"), confirm); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StarDocument обрабатывает POST /api/documents/{id}/star.
func (h *Handler) StarDocument(w http.ResponseWriter, r *http.Request) {
	h.setStarred(w, r, true)
}

// UnstarDocument обрабатывает DELETE /api/documents/{id}/star.
func (h *Handler) UnstarDocument(w http.ResponseWriter, r *http.Request) {
	h.setStarred(w, r, false)
}

// setStarred меняет закладку и возвращает документ с новым счётчиком.
func (h *Handler) setStarred(w http.ResponseWriter, r *http.Request, starred bool) {
	wf := h.workflow(r)
	view, err := h.loadView(r, wf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := view.SetStarred(r.Context(), starred); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.documentResponse(wf, view, false))
}

// ListComments обрабатывает GET /api/documents/{id}/comments.
// Комментарии упорядочены по времени создания.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.workflow(r).Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// PostComment обрабатывает POST /api/documents/{id}/comments.
func (h *Handler) PostComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	comment, err := h.workflow(r).PostComment(r.Context(), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// ApproveDocument обрабатывает POST /api/documents/{id}/approve.
func (h *Handler) ApproveDocument(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, lifecycle.OpApprove)
}

// RejectDocument обрабатывает POST /api/documents/{id}/reject.
func (h *Handler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, lifecycle.OpReject)
}

// decide выполняет решение согласующего. Переход проверяется локально
// до обращения к backend, итоговый статус определяет backend.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op lifecycle.Operation) {
	var req decisionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.fail(w, r, err)
		return
	}

	wf := h.workflow(r)
	view, err := h.loadView(r, wf)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if op == lifecycle.OpApprove {
		_, err = view.Approve(r.Context(), req.Confirm)
	} else {
		_, err = view.Reject(r.Context(), req.Confirm)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.documentResponse(wf, view, false))
}

// loadView загружает документ без комментариев.
func (h *Handler) loadView(r *http.Request, wf *service.DocumentWorkflow) (*service.DocumentView, error) {
	doc, err := wf.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return service.NewDocumentView(wf, doc, nil)
}

// OpenDocumentFile обрабатывает GET /api/documents/{id}/file?download=.
// Содержимое регистрируется в реестре и отдаётся по объектному URL.
func (h *Handler) OpenDocumentFile(w http.ResponseWriter, r *http.Request) {
	download, err := queryBool(r, "download")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	blob, err := h.workflow(r).OpenFile(r.Context(), chi.URLParam(r, "id"), download)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"object_url":   blob.URL(),
		"content_type": blob.ContentType,
		"filename":     blob.Filename,
		"size":         len(blob.Data),
	})
}
