package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/persist"
)

// Persister — сохранение и восстановление персистентных разделов. Реализуется persist.Adapter.
type Persister interface {
	Load(ctx context.Context) persist.Loaded
	Save(ctx context.Context, s persist.Snapshot) error
}
