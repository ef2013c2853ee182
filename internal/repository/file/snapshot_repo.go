// Package file реализует хранилище записей состояния в локальных файлах, по файлу на ключ.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type SnapshotRepo struct {
	dir string
}

// NewSnapshotRepo создаёт каталог dir, если его нет.
func NewSnapshotRepo(dir string) (*SnapshotRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &SnapshotRepo{dir: dir}, nil
}

func (s *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, true, nil
}

// Save пишет во временный файл и переименовывает его, поэтому читатель видит либо старую, либо новую запись.
func (s *SnapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := tmp.Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("%s: failed to replace snapshot %q: %w", whereami.WhereAmI(), key, err)
	}

	return nil
}

// path переводит ключ в имя файла; разделители путей заменяются, чтобы ключ не выходил за каталог.
func (s *SnapshotRepo) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, name+".json")
}
