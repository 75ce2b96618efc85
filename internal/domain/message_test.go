package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAPIError_UnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("create group: %w", NewAPIError(http.StatusBadRequest, "Название от 2 до 255 символов", ErrBadRequest))

	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected errors.Is(err, ErrBadRequest), got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("did not expect ErrNotFound")
	}
	if !strings.Contains(err.Error(), "HTTP 400") {
		t.Errorf("expected status in message, got %q", err.Error())
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "business error shown verbatim",
			err:  NewAPIError(http.StatusBadRequest, "Группа не найдена", ErrBadRequest),
			want: "Группа не найдена",
		},
		{
			name: "conflict message shown verbatim",
			err:  NewAPIError(http.StatusConflict, "Группа используется", ErrConflict),
			want: "Группа используется",
		},
		{
			name: "server error message hidden",
			err:  NewAPIError(http.StatusInternalServerError, "NullPointerException", ErrServer),
			want: "Ошибка сервера, попробуйте позже",
		},
		{
			name: "unreachable",
			err:  fmt.Errorf("list students: %w", ErrUnreachable),
			want: "Сервер недоступен, проверьте подключение",
		},
		{
			name: "unauthorized",
			err:  NewAPIError(http.StatusUnauthorized, "", ErrUnauthorized),
			want: "Сессия истекла, войдите снова (roster auth login)",
		},
		{
			name: "forbidden",
			err:  NewAPIError(http.StatusForbidden, "Access Denied", ErrForbidden),
			want: "Недостаточно прав для этого действия",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
