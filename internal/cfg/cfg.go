package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

// Имена бэкенд-сервисов. Совпадают с ключами ServicesCfg.ByName.
const (
	ServiceCatalog       = "catalog"
	ServiceOrders        = "orders"
	ServiceCustomers     = "customers"
	ServicePayments      = "payments"
	ServiceAuth          = "auth"
	ServiceNotifications = "notifications"
)

// Бэкенды хранилища персистентного состояния.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMinio    = "minio"
)

type Config struct {
	Services  *ServicesCfg
	Retry     *RetryCfg
	Transport *TransportCfg
	Storage   *StorageCfg
	Redis     *RedisCfg
	Db        *PGDBCfg
	Minio     *MinIOCfg
	Kafka     *KafkaCfg // nil, если KAFKA_BROKERS не задан
	Http      *HTTPConfig
	Grpc      *GRPCConfig
	Host      *HostCfg
}

// ServiceCfg — адрес и таймаут одного бэкенда.
type ServiceCfg struct {
	BaseURL string
	Timeout time.Duration
}

type ServicesCfg struct {
	Catalog       ServiceCfg
	Orders        ServiceCfg
	Customers     ServiceCfg
	Payments      ServiceCfg
	Auth          ServiceCfg
	Notifications ServiceCfg
}

// ByName возвращает конфигурацию сервисов, индексированную именем сервиса.
func (s *ServicesCfg) ByName() map[string]ServiceCfg {
	return map[string]ServiceCfg{
		ServiceCatalog:       s.Catalog,
		ServiceOrders:        s.Orders,
		ServiceCustomers:     s.Customers,
		ServicePayments:      s.Payments,
		ServiceAuth:          s.Auth,
		ServiceNotifications: s.Notifications,
	}
}

type RetryCfg struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration // 0: без ограничения
	Jitter     float64
	JitterSeed int64 // 0: случайный генератор
}

type TransportCfg struct {
	SlowRequestThreshold time.Duration
	RedirectDelay        time.Duration // задержка перед переходом на страницу входа после 401
	LoginPath            string
}

type StorageCfg struct {
	Backend  string
	Key      string
	FilePath string // каталог для файлового хранилища
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	TTL         time.Duration // 0: ключ без срока жизни
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для снимков состояния
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	BatchSize         int
	QueueSize         int           // ёмкость outbox моста
	RetryDelay        time.Duration // базовая задержка повтора отправки
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type HostCfg struct {
	ManifestPath       string // пусто: монтируются все встроенные фрагменты
	OrderWatchInterval time.Duration
}

// LoadDotEnv подгружает переменные из файла .env, если он есть. Уже заданные переменные не перезаписываются.
func LoadDotEnv(log logger.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Warnf("failed to load %s: %v", f, err)
			continue
		}
		log.Debugf("loaded environment from %s", f)
	}
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	services, err := loadServicesCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	retry, err := loadRetryCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	transport, err := loadTransportCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	storage, err := loadStorageCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	host, err := loadHostCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Services:  services,
		Retry:     retry,
		Transport: transport,
		Storage:   storage,
		Redis:     redis,
		Db:        loadPGDBCfg(),
		Minio:     minio,
		Kafka:     kafka,
		Http:      http,
		Grpc:      loadGRPCConfig(),
		Host:      host,
	}, nil
}

// Validate проверяет, что для выбранного бэкенда хранилища заданы обязательные параметры.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageRedis:
	case StorageFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("STORAGE_FILE_PATH is required for file storage")
		}
	case StoragePostgres:
		if c.Db.User == "" || c.Db.Password == "" || c.Db.DBName == "" {
			return fmt.Errorf("POSTGRES_USER, POSTGRES_PASSWORD and POSTGRES_DB are required for postgres storage")
		}
	case StorageMinio:
		if c.Minio.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME is required for minio storage")
		}
	default:
		return e.Wrap(c.Storage.Backend, e.ErrUnknownStorage)
	}

	return nil
}

func loadServicesCfg(log logger.Logger) (*ServicesCfg, error) {
	const (
		defaultTimeout = 10 * time.Second
		defaultBaseURL = "http://localhost:8080/api"
	)

	load := func(prefix, path string) (ServiceCfg, error) {
		timeout, err := parseDurationEnv(prefix+"_API_TIMEOUT", defaultTimeout)
		if err != nil {
			log.Errorf(err, "invalid %s_API_TIMEOUT", prefix)
			return ServiceCfg{}, err
		}

		return ServiceCfg{
			BaseURL: strings.TrimRight(getEnvOrDefault(prefix+"_API_URL", defaultBaseURL+path), "/"),
			Timeout: timeout,
		}, nil
	}

	var (
		s   ServicesCfg
		err error
	)
	if s.Catalog, err = load("CATALOG", "/catalog"); err != nil {
		return nil, err
	}
	if s.Orders, err = load("ORDERS", "/orders"); err != nil {
		return nil, err
	}
	if s.Customers, err = load("CUSTOMERS", "/customers"); err != nil {
		return nil, err
	}
	if s.Payments, err = load("PAYMENTS", "/payments"); err != nil {
		return nil, err
	}
	if s.Auth, err = load("AUTH", "/auth"); err != nil {
		return nil, err
	}
	if s.Notifications, err = load("NOTIFICATIONS", "/notifications"); err != nil {
		return nil, err
	}

	return &s, nil
}

func loadRetryCfg(log logger.Logger) (*RetryCfg, error) {
	const (
		defaultMaxRetries = 3
		defaultBaseDelay  = time.Second
	)

	maxRetries, err := parseIntEnv("RETRY_MAX", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid RETRY_MAX")
		return nil, e.Wrap("RETRY_MAX", err)
	}

	baseDelay, err := parseDurationEnv("RETRY_BASE_DELAY", defaultBaseDelay)
	if err != nil {
		log.Errorf(err, "invalid RETRY_BASE_DELAY")
		return nil, err
	}

	maxDelay, err := parseDurationEnv("RETRY_MAX_DELAY", 0)
	if err != nil {
		log.Errorf(err, "invalid RETRY_MAX_DELAY")
		return nil, err
	}

	jitter, err := strconv.ParseFloat(getEnvOrDefault("RETRY_JITTER", "0"), 64)
	if err != nil || jitter < 0 {
		log.Errorf(err, "invalid RETRY_JITTER")
		return nil, e.Wrap("RETRY_JITTER", e.ErrIncorrectEnvVariable)
	}

	seed, err := strconv.ParseInt(getEnvOrDefault("RETRY_JITTER_SEED", "0"), 10, 64)
	if err != nil {
		log.Errorf(err, "invalid RETRY_JITTER_SEED")
		return nil, e.Wrap("RETRY_JITTER_SEED", e.ErrIncorrectEnvVariable)
	}

	return &RetryCfg{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		Jitter:     jitter,
		JitterSeed: seed,
	}, nil
}

func loadTransportCfg(log logger.Logger) (*TransportCfg, error) {
	const (
		defaultSlowThreshold = 3 * time.Second
		defaultRedirectDelay = 1500 * time.Millisecond
		defaultLoginPath     = "/login"
	)

	slow, err := parseDurationEnv("SLOW_REQUEST_THRESHOLD", defaultSlowThreshold)
	if err != nil {
		log.Errorf(err, "invalid SLOW_REQUEST_THRESHOLD")
		return nil, err
	}

	redirect, err := parseDurationEnv("SESSION_EXPIRED_REDIRECT_DELAY", defaultRedirectDelay)
	if err != nil {
		log.Errorf(err, "invalid SESSION_EXPIRED_REDIRECT_DELAY")
		return nil, err
	}

	return &TransportCfg{
		SlowRequestThreshold: slow,
		RedirectDelay:        redirect,
		LoginPath:            getEnvOrDefault("LOGIN_PATH", defaultLoginPath),
	}, nil
}

func loadStorageCfg() (*StorageCfg, error) {
	const (
		defaultBackend  = StorageMemory
		defaultKey      = "storefront-state"
		defaultFilePath = "data"
	)

	key := getEnvOrDefault("STORAGE_KEY", defaultKey)
	if strings.TrimSpace(key) == "" {
		return nil, e.ErrStorageKeyRequired
	}

	return &StorageCfg{
		Backend:  strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", defaultBackend)),
		Key:      key,
		FilePath: getEnvOrDefault("STORAGE_FILE_PATH", defaultFilePath),
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "storefront-events"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultBatchSize         = 50
		defaultQueueSize         = 1024
		defaultRetryDelay        = 500 * time.Millisecond
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}
	brokers := strings.Split(brokerStr, ",")

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	batchSize, err := parseIntEnv("KAFKA_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, e.Wrap("KAFKA_BATCH_SIZE", err)
	}

	queueSize, err := parseIntEnv("KAFKA_QUEUE_SIZE", defaultQueueSize)
	if err != nil {
		return nil, e.Wrap("KAFKA_QUEUE_SIZE", err)
	}

	retryDelay, err := parseDurationEnv("KAFKA_RETRY_DELAY", defaultRetryDelay)
	if err != nil {
		return nil, e.Wrap("KAFKA_RETRY_DELAY", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		BatchSize:         batchSize,
		QueueSize:         queueSize,
		RetryDelay:        retryDelay,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnv("BUCKET_NAME"),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	// SSE-подписки держат соединение открытым, поэтому 0 отключает таймаут записи.
	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

// loadPGDBCfg не проверяет обязательные поля: они нужны только при STORAGE_BACKEND=postgres (см. Validate).
func loadPGDBCfg() *PGDBCfg {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     getEnv("POSTGRES_USER"),
		Password: getEnv("POSTGRES_PASSWORD"),
		DBName:   getEnv("POSTGRES_DB"),
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("REDIS_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("REDIS_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_WRITE_TIMEOUT")
		return nil, err
	}

	ttl, err := parseDurationEnv("REDIS_STATE_TTL", 0)
	if err != nil {
		log.Errorf(err, "invalid REDIS_STATE_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		TTL:         ttl,
	}, nil
}

func loadHostCfg() (*HostCfg, error) {
	const defaultOrderWatchInterval = 30 * time.Second

	interval, err := parseDurationEnv("ORDER_WATCH_INTERVAL", defaultOrderWatchInterval)
	if err != nil {
		return nil, e.Wrap("ORDER_WATCH_INTERVAL", err)
	}

	return &HostCfg{
		ManifestPath:       getEnv("FRAGMENTS_MANIFEST"),
		OrderWatchInterval: interval,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
