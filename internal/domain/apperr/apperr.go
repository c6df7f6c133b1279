// Пакет apperr — таксономия ошибок портала.
// Каждая ошибка относится к одному из видов: аутентификация, права,
// валидация, отсутствие ресурса, сеть. Вид проверяется через errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// Виды ошибок.
var (
	// ErrAuth — неверные учётные данные или истёкший/невалидный токен.
	ErrAuth = errors.New("ошибка аутентификации")
	// ErrForbidden — у пользователя нет нужной возможности.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrValidation — некорректные входные данные (клиентская проверка или отказ backend).
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotFound — сущность не существует.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrNetwork — временная недоступность backend или таймаут.
	ErrNetwork = errors.New("backend недоступен")
)

// Коды, уточняющие вид ошибки.
const (
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
)

// Error — ошибка с видом, сообщением для пользователя и исходной причиной.
type Error struct {
	// Kind — один из ErrAuth, ErrForbidden, ErrValidation, ErrNotFound, ErrNetwork.
	Kind error
	// Code — машиночитаемое уточнение (может быть пустым).
	Code string
	// Field — поле формы, к которому относится ошибка валидации.
	Field string
	// Status — HTTP-статус ответа backend (0 для клиентских ошибок).
	Status int
	// Message — текст для показа пользователю. Сообщения backend передаются дословно.
	Message string
	// Err — исходная ошибка (может быть nil).
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap позволяет errors.Is находить и вид ошибки, и исходную причину.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation создаёт ошибку валидации поля.
func Validation(field, message string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

// ConfirmationRequired — операция необратима и вызвана без подтверждения.
func ConfirmationRequired(action string) *Error {
	return &Error{
		Kind:    ErrValidation,
		Code:    CodeConfirmationRequired,
		Field:   "confirm",
		Message: fmt.Sprintf("действие %q требует подтверждения (confirm: true)", action),
	}
}

// Forbidden — не хватает возможности для операции.
func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// Auth — ошибка аутентификации.
func Auth(message string) *Error {
	return &Error{Kind: ErrAuth, Message: message}
}

// NotFound — сущность не найдена.
func NotFound(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

// Network оборачивает транспортную ошибку.
func Network(message string, err error) *Error {
	return &Error{Kind: ErrNetwork, Message: message, Err: err}
}

// KindOf возвращает вид ошибки или nil, если ошибка не из таксономии.
func KindOf(err error) error {
	for _, kind := range []error{ErrAuth, ErrForbidden, ErrValidation, ErrNotFound, ErrNetwork} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message возвращает текст для пользователя.
// Для ошибок вне таксономии — err.Error().
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
