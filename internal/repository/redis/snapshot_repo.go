package redis

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-shell/internal/cfg"
	"github.com/DRSN-tech/storefront-shell/pkg/clients"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// SnapshotRepo хранит запись состояния строкой под ключом "storefront:<key>".
type SnapshotRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewSnapshotRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *SnapshotRepo {
	return &SnapshotRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Load читает запись. Отсутствующий ключ: не ошибка.
func (s *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, true, nil
}

// Save заменяет запись целиком. TTL берётся из конфигурации (0: без срока жизни).
func (s *SnapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Client.Set(ctx, s.redisKey(key), data, s.cfg.TTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// redisKey возвращает Redis-ключ для ключа хранилища
func (s *SnapshotRepo) redisKey(key string) string {
	return "storefront:" + key
}
