package store

import (
	"errors"

	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

// errorText — сообщение для поля Error среза: текст ответа бэкенда, если он есть.
func errorText(err error) string {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return err.Error()
}

// superseded завершает устаревшую загрузку. Если загрузок среза больше нет (idle), settle
// снимает флаг загрузки и, при ошибке вызова, записывает её текст. Ошибка вызова (например,
// 401, из-за которого сессия и была сброшена) возвращается вызывающему; успешный устаревший
// ответ отбрасывается с e.ErrSuperseded.
func (s *Store) superseded(err error, idle bool, settle func(st *State, errText string)) error {
	if idle {
		var text string
		if err != nil {
			text = errorText(err)
		}
		s.update(func(st *State) { settle(st, text) })
	}

	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return e.ErrSuperseded
}
