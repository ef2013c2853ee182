package persist

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

// Adapter пишет снимок состояния под фиксированным ключом и читает его при старте.
// Запись заменяет значение целиком; повторная запись тех же байтов пропускается.
type Adapter struct {
	storage Storage
	key     string
	logger  logger.Logger

	mu   sync.Mutex
	last []byte
}

func NewAdapter(storage Storage, key string, logger logger.Logger) (*Adapter, error) {
	if strings.TrimSpace(key) == "" {
		return nil, e.ErrStorageKeyRequired
	}

	return &Adapter{storage: storage, key: key, logger: logger}, nil
}

func (a *Adapter) Key() string {
	return a.key
}

// Load читает сохранённый снимок. Ошибки хранилища и повреждённые данные приводят
// к значениям по умолчанию, а не к отказу старта.
func (a *Adapter) Load(ctx context.Context) Loaded {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, found, err := a.storage.Load(ctx, a.key)
	if err != nil {
		a.logger.Errorf(err, "failed to load persisted state %q, starting from defaults", a.key)
		return Loaded{}
	}
	if !found {
		return Loaded{}
	}

	loaded := Decode(data)
	if !loaded.HasAuth || !loaded.HasCart || !loaded.HasUI {
		a.logger.Warnf("persisted state %q partially unreadable (auth=%t cart=%t ui=%t), defaults applied",
			a.key, loaded.HasAuth, loaded.HasCart, loaded.HasUI)
	}

	a.last = data
	return loaded
}

// Save записывает снимок, если его сериализация отличается от последней записи.
func (a *Adapter) Save(ctx context.Context, s Snapshot) error {
	const op = "Adapter.Save"

	data, err := Encode(s)
	if err != nil {
		return e.Wrap(op, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last != nil && bytes.Equal(a.last, data) {
		return nil
	}

	if err := a.storage.Save(ctx, a.key, data); err != nil {
		return e.Wrap(op, err)
	}

	a.last = data
	return nil
}

// ReadAuth читает auth-раздел прямо из хранилища, минуя живое состояние.
func (a *Adapter) ReadAuth(ctx context.Context) (AuthPartition, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return ReadAuth(ctx, a.storage, a.key)
}

// WriteAuth перезаписывает только auth-раздел сохранённой записи.
func (a *Adapter) WriteAuth(ctx context.Context, auth AuthPartition) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Запись изменена в обход Save, следующий Save должен писать безусловно.
	a.last = nil
	return WriteAuth(ctx, a.storage, a.key, auth)
}

// ReadAuth читает auth-раздел записи key из storage.
func ReadAuth(ctx context.Context, storage Storage, key string) (AuthPartition, bool, error) {
	data, found, err := storage.Load(ctx, key)
	if err != nil {
		return AuthPartition{}, false, e.Wrap("persist.ReadAuth", err)
	}
	if !found {
		return AuthPartition{}, false, nil
	}

	rec, ok := decodeRecord(data)
	if !ok {
		return AuthPartition{}, false, nil
	}

	auth, ok := decodeAuth(rec.State.Auth)
	return auth, ok, nil
}

// WriteAuth заменяет auth-раздел записи key, сохраняя остальные разделы.
func WriteAuth(ctx context.Context, storage Storage, key string, auth AuthPartition) error {
	const op = "persist.WriteAuth"

	data, _, err := storage.Load(ctx, key)
	if err != nil {
		return e.Wrap(op, err)
	}

	updated, err := replaceAuth(data, auth)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := storage.Save(ctx, key, updated); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
