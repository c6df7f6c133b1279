// Пакет errors — ответы с ошибками в формате портала DocHub.
// Единый формат: {"error": {"code": "...", "message": "...", "field": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError или FromError.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
)

// Коды ошибок портала.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeConfirmationRequired = apperr.CodeConfirmationRequired
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeBackendUnavailable   = "BACKEND_UNAVAILABLE"
	CodeInternalError        = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeError(w, statusCode, errorDetail{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, statusCode int, detail errorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: detail})
}

// FromError записывает ответ по виду ошибки (apperr).
// Возвращает записанный HTTP-статус.
//
//   - ErrValidation → 400 (код уточняется apperr.Error.Code)
//   - ErrAuth → 401
//   - ErrForbidden → 403
//   - ErrNotFound → 404
//   - ErrNetwork → 502
//   - прочие → 500 без деталей
func FromError(w http.ResponseWriter, err error) int {
	status, detail := describe(err)
	writeError(w, status, detail)
	return status
}

// describe вычисляет статус и детали ответа без записи.
func describe(err error) (int, errorDetail) {
	var appErr *apperr.Error
	detail := errorDetail{Message: apperr.Message(err)}
	if stderrors.As(err, &appErr) {
		detail.Field = appErr.Field
	}

	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		detail.Code = CodeValidationError
		if appErr != nil && appErr.Code != "" {
			detail.Code = appErr.Code
		}
		return http.StatusBadRequest, detail
	case apperr.ErrAuth:
		detail.Code = CodeUnauthorized
		return http.StatusUnauthorized, detail
	case apperr.ErrForbidden:
		detail.Code = CodeForbidden
		return http.StatusForbidden, detail
	case apperr.ErrNotFound:
		detail.Code = CodeNotFound
		return http.StatusNotFound, detail
	case apperr.ErrNetwork:
		detail.Code = CodeBackendUnavailable
		return http.StatusBadGateway, detail
	default:
		return http.StatusInternalServerError, errorDetail{
			Code:    CodeInternalError,
			Message: "Внутренняя ошибка сервера",
		}
	}
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// FieldError — 400 ошибка конкретного поля.
func FieldError(w http.ResponseWriter, field, message string) {
	writeError(w, http.StatusBadRequest, errorDetail{
		Code:    CodeValidationError,
		Message: message,
		Field:   field,
	})
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// BackendUnavailable — 502 backend недоступен.
func BackendUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, CodeBackendUnavailable, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
