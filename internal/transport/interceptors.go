package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/persist"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

const maxErrorBody = 64 << 10

// AuthSource читает сохранённый auth-раздел. Токен берётся из хранилища, а не из живого
// состояния, так что клиенты работают и до создания контейнера.
type AuthSource interface {
	ReadAuth(ctx context.Context) (persist.AuthPartition, bool, error)
}

// Authenticate подставляет Authorization: Bearer из сохранённого auth-раздела.
func Authenticate(src AuthSource, log logger.Logger) Interceptor {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			auth, found, err := src.ReadAuth(req.Context())
			if err != nil {
				log.Errorf(err, "failed to read persisted auth, sending request without token")
			}
			if found && auth.Token != nil && *auth.Token != "" && req.Header.Get(HeaderAuthorization) == "" {
				req.Header.Set(HeaderAuthorization, "Bearer "+*auth.Token)
			}

			return next(req)
		}
	}
}

// Timing логирует длительность запроса и предупреждает о медленных ответах.
func Timing(service string, clk clock.Clock, slowThreshold time.Duration, log logger.Logger) Interceptor {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			start := clk.Now()
			resp, err := next(req)
			elapsed := clk.Now().Sub(start)

			if err == nil && slowThreshold > 0 && elapsed > slowThreshold {
				log.Warnf("[%s] slow request %s %s took %s (threshold %s)",
					service, req.Method, req.URL.Path, elapsed, slowThreshold)
			} else {
				log.Debugf("[%s] %s %s took %s", service, req.Method, req.URL.Path, elapsed)
			}

			return resp, err
		}
	}
}

// Classify превращает неуспешный ответ и сбой соединения в *APIError и логирует его по категории.
// 401 на запросе с токеном запускает вытеснение сессии.
func Classify(service string, eviction *Eviction, log logger.Logger) Interceptor {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			resp, err := next(req)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return nil, err
				}

				apiErr = &APIError{
					Service:  service,
					Method:   req.Method,
					Path:     req.URL.Path,
					Category: classifyTransportError(req.Context(), err),
					Err:      err,
				}
				switch apiErr.Category {
				case CategoryCanceled:
					log.Debugf("[%s] %s %s canceled by caller", service, req.Method, req.URL.Path)
				case CategoryTimeout:
					log.Warnf("[%s] %s %s timed out: %v", service, req.Method, req.URL.Path, err)
				default:
					log.Warnf("[%s] %s %s network error, no response: %v", service, req.Method, req.URL.Path, err)
				}

				return nil, apiErr
			}

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			apiErr := responseError(service, req, resp)
			logAPIError(log, apiErr)

			if apiErr.Category == CategoryUnauthorized && req.Header.Get(HeaderAuthorization) != "" && eviction != nil {
				eviction.Trigger(req.Context())
			}

			return nil, apiErr
		}
	}
}

func responseError(service string, req *http.Request, resp *http.Response) *APIError {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &APIError{
		Service:    service,
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body, resp.StatusCode),
		Category:   ClassifyStatus(resp.StatusCode),
	}
}

// errorMessage достаёт текст ошибки из тела {"message": ...} или {"error": ...}.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}

	return http.StatusText(status)
}

func logAPIError(log logger.Logger, err *APIError) {
	switch err.Category {
	case CategoryUnauthorized:
		log.Warnf("[%s] %s %s: session rejected (401)", err.Service, err.Method, err.Path)
	case CategoryForbidden:
		log.Warnf("[%s] %s %s: access denied (403): %s", err.Service, err.Method, err.Path, err.Message)
	case CategoryNotFound:
		log.Infof("[%s] %s %s: resource not found (404)", err.Service, err.Method, err.Path)
	case CategoryValidation:
		log.Infof("[%s] %s %s: validation failed (422): %s", err.Service, err.Method, err.Path, err.Message)
	case CategoryServer:
		log.Errorf(err, "[%s] %s %s: server error (%d)", err.Service, err.Method, err.Path, err.StatusCode)
	default:
		log.Warnf("[%s] %s %s: request failed (%d): %s", err.Service, err.Method, err.Path, err.StatusCode, err.Message)
	}
}

// Toast показывает пользователю уведомление об окончательной ошибке запроса.
// 401 сюда не попадает: для него уведомление уже показал Eviction. Отмена вызывающим не показывается.
func Toast(hooks *Hooks, clk clock.Clock) Interceptor {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			resp, err := next(req)
			if err == nil {
				return resp, nil
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				return resp, err
			}
			if apiErr.Category == CategoryUnauthorized || apiErr.Category == CategoryCanceled {
				return resp, err
			}

			hooks.notify(domain.Notification{
				Type:      domain.NotificationError,
				Title:     toastTitle(apiErr.Category),
				Message:   apiErr.Message,
				CreatedAt: clk.Now(),
			})

			return resp, err
		}
	}
}

func toastTitle(c Category) string {
	switch c {
	case CategoryForbidden:
		return "Access denied"
	case CategoryNotFound:
		return "Not found"
	case CategoryValidation:
		return "Invalid request"
	case CategoryTimeout:
		return "Request timed out"
	case CategoryRateLimited:
		return "Too many requests"
	case CategoryServer:
		return "Server error"
	case CategoryNetwork:
		return "Network error"
	default:
		return "Request failed"
	}
}
