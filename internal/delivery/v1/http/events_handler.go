package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/google/uuid"
)

const (
	streamBuffer      = 64
	heartbeatInterval = 15 * time.Second
)

type EventsHandler struct {
	bus     *events.Bus
	clock   clock.Clock
	closing <-chan struct{}
	logger  logger.Logger
}

// NewEventsHandler создаёт обработчик потока. Потоки завершаются, когда закрывается closing
// (nil: только по отключению клиента).
func NewEventsHandler(bus *events.Bus, clk clock.Clock, closing <-chan struct{}, logger logger.Logger) *EventsHandler {
	return &EventsHandler{bus: bus, clock: clk, closing: closing, logger: logger}
}

// stream
//
//	@Summary		Поток событий шины
//	@Description	Server-Sent Events: имя события в поле event, полезная нагрузка JSON в data. Параметр kinds ограничивает набор событий
//	@Tags			events
//	@Produce		text/event-stream
//	@Param			kinds	query	string	false	"Список через запятую, например order:created,auth:login"
//	@Success		200
//	@Failure		400	{object}	ErrorResponse	"Неизвестное имя события"
//	@Router			/events [get]
func (h *EventsHandler) stream(w http.ResponseWriter, r *http.Request) {
	kinds, err := parseKinds(r.URL.Query().Get("kinds"))
	if err != nil {
		WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, e.ErrStreamUnsupported)
		return
	}

	queue := make(chan events.Event, streamBuffer)
	for _, kind := range kinds {
		unsubscribe := h.bus.Subscribe(kind, func(ev events.Event) {
			select {
			case queue <- ev:
			default:
				h.logger.Warnf("event stream is too slow, dropping %s", ev.Kind())
			}
		})
		defer unsubscribe()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// WriteTimeout сервера рассчитан на обычные запросы; поток живёт дольше.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.closing:
			return
		case ev := <-queue:
			if err := writeEvent(w, ev); err != nil {
				h.logger.Warnf("event stream write failed: %v", err)
				return
			}
		case <-h.clock.After(heartbeatInterval):
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), ev.Kind(), data)
	return err
}

func parseKinds(raw string) ([]events.Kind, error) {
	all := events.Kinds()
	if strings.TrimSpace(raw) == "" {
		return all, nil
	}

	known := make(map[events.Kind]struct{}, len(all))
	for _, k := range all {
		known[k] = struct{}{}
	}

	var out []events.Kind
	for _, part := range strings.Split(raw, ",") {
		k := events.Kind(strings.TrimSpace(part))
		if _, ok := known[k]; !ok {
			return nil, e.Wrap(fmt.Sprintf("unknown event kind %q", k), e.ErrStatusBadRequest)
		}
		out = append(out, k)
	}

	return out, nil
}
