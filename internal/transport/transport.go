// Package transport содержит HTTP-клиенты бэкенд-сервисов и цепочка перехватчиков вокруг них:
// подстановка токена, замер времени, классификация ошибок и вытеснение сессии по 401,
// повтор с экспоненциальной задержкой, уведомления пользователю и счётчик запросов в полёте.
package transport

import (
	"context"
	"net/http"
)

// Handler выполняет запрос. Неуспешный ответ после стадии Classify превращается в *APIError.
type Handler func(req *http.Request) (*http.Response, error)

// Interceptor оборачивает Handler.
type Interceptor func(next Handler) Handler

// Chain собирает цепочку. Первый перехватчик внешний.
func Chain(h Handler, interceptors ...Interceptor) Handler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		h = interceptors[i](h)
	}

	return h
}

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

type ctxKey int

const (
	retryStateKey ctxKey = iota
)

type retryState struct {
	attempt int
}

// Attempt возвращает номер попытки текущего запроса (0: первая). Вне стадии Retry всегда 0.
func Attempt(ctx context.Context) int {
	if st, ok := ctx.Value(retryStateKey).(*retryState); ok {
		return st.attempt
	}

	return 0
}
