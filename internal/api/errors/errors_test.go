package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Ошибка разбора ответа: %v", err)
	}
	return body.Error
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
		wantMsg    string
	}{
		{
			name:       "валидация поля",
			err:        apperr.Validation("title", "Название обязательно"),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidationError,
			wantField:  "title",
			wantMsg:    "Название обязательно",
		},
		{
			name:       "требуется подтверждение",
			err:        fmt.Errorf("удаление: %w", apperr.ConfirmationRequired("delete")),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeConfirmationRequired,
			wantField:  "confirm",
		},
		{
			name:       "аутентификация",
			err:        apperr.Auth("Could not validate credentials"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   CodeUnauthorized,
			wantMsg:    "Could not validate credentials",
		},
		{
			name:       "нет прав",
			err:        apperr.Forbidden("Администрирование доступно только роли MANAGER"),
			wantStatus: http.StatusForbidden,
			wantCode:   CodeForbidden,
		},
		{
			name:       "не найдено",
			err:        fmt.Errorf("получение документа d1: %w", apperr.NotFound("Document not found")),
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
			wantMsg:    "Document not found",
		},
		{
			name:       "backend недоступен",
			err:        apperr.Network("Сервер недоступен", stderrors.New("connection refused")),
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeBackendUnavailable,
			wantMsg:    "Сервер недоступен",
		},
		{
			name:       "ошибка вне таксономии скрывается",
			err:        stderrors.New("panic: nil map"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternalError,
			wantMsg:    "Внутренняя ошибка сервера",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			status := FromError(rec, tt.err)

			if status != tt.wantStatus || rec.Code != tt.wantStatus {
				t.Errorf("статус %d/%d, ожидался %d", status, rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			detail := decode(t, rec)
			if detail.Code != tt.wantCode {
				t.Errorf("code = %q, ожидался %q", detail.Code, tt.wantCode)
			}
			if detail.Field != tt.wantField {
				t.Errorf("field = %q, ожидалось %q", detail.Field, tt.wantField)
			}
			if tt.wantMsg != "" && detail.Message != tt.wantMsg {
				t.Errorf("message = %q, ожидалось %q", detail.Message, tt.wantMsg)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"ValidationError", func(w http.ResponseWriter) { ValidationError(w, "x") }, http.StatusBadRequest, CodeValidationError},
		{"Unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "x") }, http.StatusUnauthorized, CodeUnauthorized},
		{"Forbidden", func(w http.ResponseWriter) { Forbidden(w, "x") }, http.StatusForbidden, CodeForbidden},
		{"NotFound", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound, CodeNotFound},
		{"BackendUnavailable", func(w http.ResponseWriter) { BackendUnavailable(w, "x") }, http.StatusBadGateway, CodeBackendUnavailable},
		{"InternalError", func(w http.ResponseWriter) { InternalError(w, "x") }, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.wantStatus {
				t.Errorf("статус %d, ожидался %d", rec.Code, tt.wantStatus)
			}
			if detail := decode(t, rec); detail.Code != tt.wantCode || detail.Message != "x" {
				t.Errorf("неверное тело: %+v", detail)
			}
		})
	}
}

func TestFieldError(t *testing.T) {
	rec := httptest.NewRecorder()
	FieldError(rec, "email", "некорректный адрес")

	detail := decode(t, rec)
	if rec.Code != http.StatusBadRequest || detail.Field != "email" || detail.Code != CodeValidationError {
		t.Errorf("неверный ответ: %d %+v", rec.Code, detail)
	}
}
