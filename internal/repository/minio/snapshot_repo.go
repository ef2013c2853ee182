package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/DRSN-tech/storefront-shell/internal/cfg"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// SnapshotRepo хранит каждую запись состояния отдельным объектом "state/<key>.json".
type SnapshotRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewSnapshotRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *SnapshotRepo {
	return &SnapshotRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Load читает объект записи. Отсутствующий объект: не ошибка.
func (s *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, bool, error) {
	obj, err := s.mc.GetObject(ctx, s.cfg.BucketName, objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}

		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, true, nil
}

// Save загружает запись, заменяя предыдущую версию объекта.
func (s *SnapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := s.mc.PutObject(ctx, s.cfg.BucketName, objectKey(key), reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func objectKey(key string) string {
	return "state/" + key + ".json"
}
