package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Category — класс ошибки транспорта, по нему решается, повторять ли запрос и что показать пользователю.
type Category string

const (
	CategoryUnauthorized Category = "unauthorized" // 401
	CategoryForbidden    Category = "forbidden"    // 403
	CategoryNotFound     Category = "not_found"    // 404
	CategoryValidation   Category = "validation"   // 422
	CategoryClient       Category = "client"       // прочие 4xx
	CategoryTimeout      Category = "timeout"      // 408 и таймауты соединения
	CategoryRateLimited  Category = "rate_limited" // 429
	CategoryServer       Category = "server"       // 5xx
	CategoryNetwork      Category = "network"      // ответа нет
	CategoryCanceled     Category = "canceled"     // вызывающий отменил контекст
)

// APIError — неуспешный вызов бэкенд-сервиса. Достаётся через errors.As:
//
//	var apiErr *transport.APIError
//	if errors.As(err, &apiErr) && apiErr.Category == transport.CategoryNotFound { ... }
type APIError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int // 0, если ответа не было
	Message    string
	Category   Category
	Err        error // исходная ошибка для сетевых сбоев
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s %s: %s: %v", e.Service, e.Method, e.Path, e.Category, e.Err)
	}

	return fmt.Sprintf("%s: %s %s: %d %s: %s", e.Service, e.Method, e.Path, e.StatusCode, e.Category, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable сообщает, имеет ли смысл повторять запрос: 408, 429, 5xx, сетевые сбои и таймауты.
func (e *APIError) Retryable() bool {
	switch e.Category {
	case CategoryTimeout, CategoryRateLimited, CategoryServer, CategoryNetwork:
		return true
	}

	return false
}

// IsStatus проверяет, что err является APIError с данным HTTP-статусом.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}

// IsUnauthorized — сокращение для IsStatus(err, 401).
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// CategoryOf возвращает категорию ошибки или пустую строку, если это не APIError.
func CategoryOf(err error) Category {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Category
	}

	return ""
}

// ClassifyStatus относит HTTP-статус ответа к категории.
func ClassifyStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized:
		return CategoryUnauthorized
	case status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status == http.StatusRequestTimeout:
		return CategoryTimeout
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	case status >= 500:
		return CategoryServer
	default:
		return CategoryClient
	}
}

// classifyTransportError относит ошибку http.Client.Do (ответа нет) к категории.
func classifyTransportError(ctx context.Context, err error) Category {
	if ctx.Err() != nil {
		return CategoryCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	return CategoryNetwork
}
