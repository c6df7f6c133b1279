// Пакет handlers — HTTP-обработчики API портала DocHub.
// handler.go — общие зависимости и вспомогательные функции.
// Сервисы создаются на каждый запрос от имени пользователя сессии.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bigkaa/dochub-portal/internal/apiclient"
	apierrors "github.com/bigkaa/dochub-portal/internal/api/errors"
	"github.com/bigkaa/dochub-portal/internal/api/middleware"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/service"
	"github.com/bigkaa/dochub-portal/internal/session"
	"github.com/bigkaa/dochub-portal/internal/ui/i18n"
)

// maxJSONBody — предел размера JSON-тела запроса.
const maxJSONBody = 1 << 20

// Handler — обработчики API портала.
type Handler struct {
	api    *apiclient.Client
	blobs  *service.BlobRegistry
	bundle *i18n.Bundle
	logger *slog.Logger
}

// New создаёт обработчики API.
// api — клиент backend без токена; токен подставляется на каждый запрос.
func New(api *apiclient.Client, blobs *service.BlobRegistry, bundle *i18n.Bundle, logger *slog.Logger) *Handler {
	return &Handler{
		api:    api,
		blobs:  blobs,
		bundle: bundle,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// --- сервисы запроса ---

// store возвращает сессию запроса.
// Маршруты, использующие обработчики, всегда обёрнуты в SessionAuth.
func (h *Handler) store(r *http.Request) *session.Store {
	return middleware.SessionFromContext(r.Context())
}

// viewer описывает пользователя сессии.
func (h *Handler) viewer(store *session.Store) service.Viewer {
	state := store.State()
	v := service.Viewer{Caps: state.Capabilities}
	if state.User != nil {
		v.UserID = state.User.ID
	}
	return v
}

// backend возвращает клиент backend с токеном сессии.
func (h *Handler) backend(store *session.Store) *apiclient.Client {
	return h.api.WithTokenProvider(store.TokenProvider())
}

// workflow создаёт сервис документов для запроса.
func (h *Handler) workflow(r *http.Request) *service.DocumentWorkflow {
	store := h.store(r)
	return service.NewDocumentWorkflow(h.backend(store), h.viewer(store), h.blobs, h.logger)
}

// admin создаёт сервис администрирования для запроса.
func (h *Handler) admin(r *http.Request) *service.AdminResources {
	store := h.store(r)
	return service.NewAdminResources(h.backend(store), h.viewer(store), h.logger)
}

// --- ответы ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// fail записывает ответ по ошибке сервиса.
// Ошибка аутентификации от backend сбрасывает сессию (cookie удаляется).
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if store := h.store(r); store != nil {
		store.Invalidate(err)
	}
	h.respondError(w, r, err)
}

// respondError записывает ошибку без сброса сессии.
// Используется при обмене учётных данных: их отказ не касается текущего токена.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apierrors.FromError(w, err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Ошибка обработки запроса",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
	}
}

// --- разбор запроса ---

// decodeJSON читает JSON-тело запроса в dst.
// Пустое тело допустимо, если allowEmpty.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return &apperr.Error{
			Kind:    apperr.ErrValidation,
			Message: fmt.Sprintf("некорректный JSON: %v", err),
			Err:     err,
		}
	}
	return nil
}

// queryBool разбирает булев query-параметр (отсутствует — false).
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation(name, fmt.Sprintf("некорректное булево значение: %q", raw))
	}
	return v, nil
}

// queryPage разбирает номер страницы (отсутствует — 1).
func queryPage(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Validation("page", fmt.Sprintf("некорректный номер страницы: %q", raw))
	}
	return n, nil
}

// listView строит страницу списка документов по параметрам q, sort, page.
func listView(r *http.Request, docs []model.Document) (service.Page, error) {
	page, err := queryPage(r)
	if err != nil {
		return service.Page{}, err
	}
	order, err := service.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		return service.Page{}, apperr.Validation("sort", err.Error())
	}

	view := service.NewDocumentListView(docs, i18n.Tag(i18n.LangFromContext(r.Context())))
	view.Search(r.URL.Query().Get("q"))
	view.SortBy(order)
	return view.Page(page), nil
}
