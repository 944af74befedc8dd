package webmaster

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized токен отсутствует, просрочен или не имеет доступа (401/403)
	ErrUnauthorized = errors.New("webmaster: unauthorized")

	// ErrRateLimited API вернул 429
	ErrRateLimited = errors.New("webmaster: rate limited")

	// ErrServer API вернул 5xx
	ErrServer = errors.New("webmaster: server error")

	// ErrNetwork ошибка соединения или таймаут
	ErrNetwork = errors.New("webmaster: network failure")

	// ErrRequestRejected API отклонил запрос (4xx кроме 401/403/429)
	ErrRequestRejected = errors.New("webmaster: request rejected")

	// ErrBuildRequest ошибка формирования запроса
	ErrBuildRequest = errors.New("webmaster: failed to build request")

	// ErrInvalidResponse ответ не удалось разобрать
	ErrInvalidResponse = errors.New("webmaster: invalid response")
)

// TransientError временная ошибка: сеть, 5xx, 429
// Повторяется клиентом, наружу отдаётся после исчерпания попыток
type TransientError struct {
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// FatalError ошибка, которую нет смысла повторять: 4xx, проблемы авторизации
type FatalError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *FatalError) Error() string {
	msg := e.Err.Error()
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsTransient проверяет, что err содержит TransientError
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsFatal проверяет, что err содержит FatalError
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}
