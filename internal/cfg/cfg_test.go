package cfg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	c, err := Load(logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Retry.MaxRetries != 3 || c.Retry.BaseDelay != time.Second || c.Retry.Jitter != 0 {
		t.Fatalf("unexpected retry defaults: %+v", c.Retry)
	}
	if c.Transport.SlowRequestThreshold != 3*time.Second {
		t.Fatalf("slow threshold = %v, want 3s", c.Transport.SlowRequestThreshold)
	}
	if c.Transport.RedirectDelay != 1500*time.Millisecond {
		t.Fatalf("redirect delay = %v, want 1.5s", c.Transport.RedirectDelay)
	}
	if c.Storage.Backend != StorageMemory {
		t.Fatalf("storage backend = %q, want memory", c.Storage.Backend)
	}
	if c.Kafka != nil {
		t.Fatal("kafka must be disabled without KAFKA_BROKERS")
	}
	if len(c.Services.ByName()) != 6 {
		t.Fatalf("expected six services, got %d", len(c.Services.ByName()))
	}
}

func TestLoadServiceOverrides(t *testing.T) {
	t.Setenv("CATALOG_API_URL", "http://catalog.internal/api/")
	t.Setenv("ORDERS_API_TIMEOUT", "2s")

	c, err := Load(logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Services.Catalog.BaseURL; got != "http://catalog.internal/api" {
		t.Fatalf("catalog url = %q", got)
	}
	if got := c.Services.Orders.Timeout; got != 2*time.Second {
		t.Fatalf("orders timeout = %v", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("RETRY_MAX", "three")

	_, err := Load(logger.NewNopLogger())
	if !errors.Is(err, e.ErrIncorrectEnvVariable) {
		t.Fatalf("err = %v, want ErrIncorrectEnvVariable", err)
	}
}

func TestValidateStorage(t *testing.T) {
	c, err := Load(logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.Storage.Backend = "etcd"
	if err := c.Validate(); !errors.Is(err, e.ErrUnknownStorage) {
		t.Fatalf("err = %v, want ErrUnknownStorage", err)
	}

	c.Storage.Backend = StoragePostgres
	c.Db.User = ""
	if err := c.Validate(); err == nil {
		t.Fatal("postgres backend without credentials must fail validation")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STOREFRONT_DOTENV_CHECK=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("STOREFRONT_DOTENV_CHECK") })

	LoadDotEnv(logger.NewNopLogger(), path)

	if got := os.Getenv("STOREFRONT_DOTENV_CHECK"); got != "loaded" {
		t.Fatalf("env = %q, want loaded", got)
	}
}
