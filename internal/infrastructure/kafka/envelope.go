package kafka

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Поля конверта события.
const (
	FieldEventID    = "event_id"
	FieldKind       = "kind"
	FieldOccurredAt = "occurred_at"
	FieldPayload    = "payload"
)

// Envelope — событие шины в виде, в котором оно уходит в топик.
type Envelope struct {
	EventID    string
	Kind       events.Kind
	OccurredAt time.Time
	Payload    map[string]any
}

// EncodeEnvelope сериализует событие в protobuf Struct:
// {event_id, kind, occurred_at (RFC 3339), payload}.
func EncodeEnvelope(id string, at time.Time, ev events.Event) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	st, err := structpb.NewStruct(map[string]any{
		FieldEventID:    id,
		FieldKind:       string(ev.Kind()),
		FieldOccurredAt: at.UTC().Format(time.RFC3339Nano),
		FieldPayload:    payload,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return proto.Marshal(st)
}

// DecodeEnvelope — обратное преобразование для потребителей топика.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	fields := st.GetFields()
	at, err := time.Parse(time.RFC3339Nano, fields[FieldOccurredAt].GetStringValue())
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Envelope{
		EventID:    fields[FieldEventID].GetStringValue(),
		Kind:       events.Kind(fields[FieldKind].GetStringValue()),
		OccurredAt: at,
		Payload:    fields[FieldPayload].GetStructValue().AsMap(),
	}, nil
}

// partitionKey держит события одного пользователя или заказа в одной партиции.
func partitionKey(ev events.Event) string {
	switch v := ev.(type) {
	case events.AuthLogin:
		return v.User.ID
	case events.AuthRegister:
		return v.User.ID
	case events.AuthLogout:
		return v.UserID
	case events.AuthTokenRefreshed:
		return v.UserID
	case events.CustomerProfileUpdated:
		return v.Profile.ID
	case events.OrderCreated:
		return v.Order.ID
	case events.OrderStatusChanged:
		return v.OrderID
	}

	return string(ev.Kind())
}
