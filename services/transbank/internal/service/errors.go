package service

import (
	"fmt"
	"net/http"
)

// ValidationError клиент прислал запрос без обязательных полей (HTTP 400)
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError шлюз недоступен или вернул не-2xx.
// StatusCode = 0 означает, что ответа не было (ошибка транспорта).
// Relay = true: вызывающий получает статус шлюза, иначе 500.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Relay      bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: gateway status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// HTTPStatus статус, который увидит вызывающий
func (e *UpstreamError) HTTPStatus() int {
	if e.Relay && e.StatusCode != 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Detail текст шлюза, если он есть, иначе текст ошибки транспорта
func (e *UpstreamError) Detail() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode)
}

// InternalError любая другая локальная ошибка (HTTP 500)
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
