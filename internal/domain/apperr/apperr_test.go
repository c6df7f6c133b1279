package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"валидация", Validation("title", "пусто"), ErrValidation},
		{"подтверждение — тоже валидация", ConfirmationRequired("delete"), ErrValidation},
		{"права", Forbidden("нет"), ErrForbidden},
		{"аутентификация", Auth("нет"), ErrAuth},
		{"не найдено", NotFound("нет"), ErrNotFound},
		{"сеть", Network("таймаут", context.DeadlineExceeded), ErrNetwork},
		{"обёрнутая", fmt.Errorf("слой: %w", NotFound("нет")), ErrNotFound},
		{"чужая ошибка", errors.New("что-то"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestError_UnwrapCause(t *testing.T) {
	err := Network("таймаут", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("исходная причина должна находиться через errors.Is")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("вид ошибки должен находиться через errors.Is")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(fmt.Errorf("обёртка: %w", Validation("password", "слишком короткий"))); got != "слишком короткий" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Errorf("Message() = %q", got)
	}

	var appErr *Error
	if !errors.As(ConfirmationRequired("delete_user"), &appErr) || appErr.Code != CodeConfirmationRequired {
		t.Error("ожидался код CONFIRMATION_REQUIRED")
	}
}
