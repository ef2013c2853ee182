// Package persist описывает сохраняемую часть состояния и её запись в долговременное хранилище.
//
// Сохраняются только три раздела: auth, cart и ui. Каждый раздел кодируется и читается
// отдельно, поэтому повреждённый раздел не мешает восстановить остальные.
package persist

import (
	"bytes"
	"encoding/json"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
)

// RecordVersion — версия формата записи. Записи более новой версии считаются отсутствующими.
const RecordVersion = 1

// AuthPartition — сохраняемые поля auth-среза.
type AuthPartition struct {
	Token           *string      `json:"token"`
	RefreshToken    *string      `json:"refreshToken"`
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// LoggedOut — форма auth-раздела после выхода или вытеснения по 401.
func LoggedOut() AuthPartition {
	return AuthPartition{}
}

// CartPartition — сохраняемые поля корзины. Итоги после чтения пересчитываются из строк.
type CartPartition struct {
	Items     []domain.CartItem `json:"items"`
	Subtotal  domain.Money      `json:"subtotal"`
	Tax       domain.Money      `json:"tax"`
	Shipping  domain.Money      `json:"shipping"`
	Total     domain.Money      `json:"total"`
	ItemCount int               `json:"itemCount"`
}

type UIPartition struct {
	Theme domain.Theme `json:"theme"`
}

// Snapshot — всё, что переживает перезагрузку.
type Snapshot struct {
	Auth AuthPartition
	Cart CartPartition
	UI   UIPartition
}

// Loaded — результат чтения. Has* == false означает, что раздел отсутствовал или был повреждён
// и срез должен стартовать со значений по умолчанию.
type Loaded struct {
	Snapshot
	HasAuth bool
	HasCart bool
	HasUI   bool
}

type record struct {
	State   recordState `json:"state"`
	Version int         `json:"version"`
}

type recordState struct {
	Auth json.RawMessage `json:"auth,omitempty"`
	Cart json.RawMessage `json:"cart,omitempty"`
	UI   json.RawMessage `json:"ui,omitempty"`
}

// Encode сериализует снимок в запись целиком.
func Encode(s Snapshot) ([]byte, error) {
	auth, err := json.Marshal(s.Auth)
	if err != nil {
		return nil, err
	}

	cart := s.Cart
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cartRaw, err := json.Marshal(cart)
	if err != nil {
		return nil, err
	}

	ui, err := json.Marshal(s.UI)
	if err != nil {
		return nil, err
	}

	return json.Marshal(record{
		State:   recordState{Auth: auth, Cart: cartRaw, UI: ui},
		Version: RecordVersion,
	})
}

// Decode никогда не возвращает ошибку: нечитаемые разделы просто помечаются отсутствующими.
func Decode(data []byte) Loaded {
	var out Loaded

	rec, ok := decodeRecord(data)
	if !ok {
		return out
	}

	out.Auth, out.HasAuth = decodeAuth(rec.State.Auth)
	out.Cart, out.HasCart = decodeCart(rec.State.Cart)
	out.UI, out.HasUI = decodeUI(rec.State.UI)
	return out
}

func decodeRecord(data []byte) (record, bool) {
	var rec record
	if len(bytes.TrimSpace(data)) == 0 {
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false
	}
	if rec.Version > RecordVersion {
		return rec, false
	}

	return rec, true
}

// decodePartition разбирает раздел, сохранённый объектом или строкой с JSON внутри.
func decodePartition(raw json.RawMessage, v any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return false
		}
		raw = []byte(inner)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return false
	}

	return true
}

func decodeAuth(raw json.RawMessage) (AuthPartition, bool) {
	var a AuthPartition
	if !decodePartition(raw, &a) {
		return AuthPartition{}, false
	}

	// isAuthenticated определяется наличием пользователя.
	a.IsAuthenticated = a.User != nil
	return a, true
}

func decodeCart(raw json.RawMessage) (CartPartition, bool) {
	var c CartPartition
	if !decodePartition(raw, &c) {
		return CartPartition{}, false
	}

	for _, it := range c.Items {
		if it.Product.ID == "" || it.Quantity < 1 || it.Product.Price < 0 {
			return CartPartition{}, false
		}
	}

	return c, true
}

func decodeUI(raw json.RawMessage) (UIPartition, bool) {
	var u UIPartition
	if !decodePartition(raw, &u) || !u.Theme.Valid() {
		return UIPartition{}, false
	}

	return u, true
}

// replaceAuth подменяет auth-раздел в существующей записи, остальные разделы переносятся байт в байт.
func replaceAuth(data []byte, auth AuthPartition) ([]byte, error) {
	rec, ok := decodeRecord(data)
	if !ok {
		rec = record{}
	}

	raw, err := json.Marshal(auth)
	if err != nil {
		return nil, err
	}

	rec.State.Auth = raw
	rec.Version = RecordVersion
	return json.Marshal(rec)
}
