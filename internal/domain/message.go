package domain

import (
	"errors"
	"fmt"
	"time"
)

// APIError carries the HTTP status and the server-provided message of a
// rejected request. It unwraps to the sentinel matching the status, so
// errors.Is(err, ErrBadRequest) holds for a 400. RetryAfter is the wait
// the server asked for, if any.
type APIError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
	kind       error
}

// NewAPIError builds an APIError classified under kind.
func NewAPIError(status int, message string, kind error) *APIError {
	return &APIError{Status: status, Message: message, kind: kind}
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (HTTP %d)", e.kind, e.Status)
	}
	return fmt.Sprintf("%v (HTTP %d): %s", e.kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// UserMessage renders err for display in the UI. Messages of 4xx business
// errors are shown verbatim; the other categories get a fixed phrase.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && businessStatus(apiErr.Status) {
		return apiErr.Message
	}

	switch {
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return "Неверный email или пароль"
	case errors.Is(err, ErrUnauthorized):
		return "Сессия истекла, войдите снова (roster auth login)"
	case errors.Is(err, ErrForbidden):
		return "Недостаточно прав для этого действия"
	case errors.Is(err, ErrUnreachable):
		return "Сервер недоступен, проверьте подключение"
	case errors.Is(err, ErrNotFound):
		return "Запись не найдена"
	case errors.Is(err, ErrRateLimited):
		return "Слишком много запросов, попробуйте позже"
	case errors.Is(err, ErrServer):
		return "Ошибка сервера, попробуйте позже"
	case errors.Is(err, ErrConflict):
		return "Конфликт данных, обновите список"
	}
	return err.Error()
}

// businessStatus reports whether a 4xx response carries a message meant for
// the user. Auth failures get a fixed phrase instead.
func businessStatus(status int) bool {
	return status >= 400 && status < 500 && status != 401 && status != 403
}
