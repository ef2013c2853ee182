package app

import (
	"context"
	"time"

	config "github.com/DRSN-tech/storefront-shell/internal/cfg"
	"github.com/DRSN-tech/storefront-shell/internal/persist"
	fileRepo "github.com/DRSN-tech/storefront-shell/internal/repository/file"
	s3Repo "github.com/DRSN-tech/storefront-shell/internal/repository/minio"
	"github.com/DRSN-tech/storefront-shell/internal/repository/pgdb"
	redisRepo "github.com/DRSN-tech/storefront-shell/internal/repository/redis"
	"github.com/DRSN-tech/storefront-shell/pkg/clients"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/postgres"
	"github.com/jimlawless/whereami"
)

const storageInitTimeout = 10 * time.Second

// initStorage выбирает бэкенд persist.Storage по STORAGE_BACKEND. Соединения регистрируются в closer.
func (a *App) initStorage(ctx context.Context) (persist.Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, storageInitTimeout)
	defer cancel()

	switch a.cfg.Storage.Backend {
	case config.StorageFile:
		repo, err := fileRepo.NewSnapshotRepo(a.cfg.Storage.FilePath)
		if err != nil {
			a.logger.Errorf(err, "failed to open state directory %s", a.cfg.Storage.FilePath)
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		return repo, nil

	case config.StorageRedis:
		redisClient := clients.NewRedisClient(a.cfg.Redis)
		if err := redisClient.Ping(ctx); err != nil {
			a.logger.Errorf(err, "failed to connect to redis")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.Add("redis", redisClient.Close)
		return redisRepo.NewSnapshotRepo(redisClient, a.cfg.Redis, a.logger), nil

	case config.StoragePostgres:
		db, err := a.initPGDB(ctx)
		if err != nil {
			return nil, err
		}
		a.closer.Add("postgres", db.Close)
		return pgdb.NewSnapshotRepo(db.Pool), nil

	case config.StorageMinio:
		minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
		if err != nil {
			a.logger.Errorf(err, "failed to initialize minio client")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
			a.logger.Errorf(err, "failed to initialize MinIO bucket")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		return s3Repo.NewSnapshotRepo(minioClient, a.cfg.Minio), nil

	default:
		a.logger.Warnf("state is kept in memory and will not survive a restart")
		return persist.NewMemoryStorage(), nil
	}
}

func (a *App) initPGDB(ctx context.Context) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, a.cfg.Db)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(a.logger); err != nil {
		a.logger.Errorf(err, "failed to run migrations")
		db.Close(ctx)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to ping database")
		db.Close(ctx)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
