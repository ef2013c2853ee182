package main

import (
	"context"
	"os"

	"github.com/DRSN-tech/storefront-shell/internal/app"
	config "github.com/DRSN-tech/storefront-shell/internal/cfg"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	var (
		envFile  = pflag.String("env-file", ".env", "file with environment variables (ignored if missing)")
		httpPort = pflag.String("http-port", "", "override HTTP_PORT")
		grpcPort = pflag.String("grpc-port", "", "override GRPC_PORT")
		storage  = pflag.String("storage", "", "override STORAGE_BACKEND: memory, file, redis, postgres, minio")
		manifest = pflag.String("manifest", "", "override FRAGMENTS_MANIFEST")
	)
	pflag.Parse()

	log := logger.NewSlogLogger()
	config.LoadDotEnv(log, *envFile)

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	if *httpPort != "" {
		cfg.Http.Port = *httpPort
	}
	if *grpcPort != "" {
		cfg.Grpc.Port = *grpcPort
	}
	if *storage != "" {
		cfg.Storage.Backend = *storage
	}
	if *manifest != "" {
		cfg.Host.ManifestPath = *manifest
	}

	application, err := app.NewApp(context.Background(), cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
