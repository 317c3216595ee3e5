package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Database drivers understood by the store layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBolt     = "bolt"
)

// Object storage and broker backends.
const (
	BackendNone     = ""
	BackendMinio    = "minio"
	BackendGCS      = "gcs"
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
	BackendMemory   = "memory"
)

type Config struct {
	Env        string
	LogLevel   string
	ServerPort int
	// APIKey guards the compatibility CRUD routes when non-empty.
	APIKey      string
	CORSOrigins []string
	Database    DatabaseConfig
	Auth        AuthConfig
	Gemini      GeminiConfig
	Storage     StorageConfig
	MQ          MQConfig
	Client      ClientConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
	// Path is the database file for the embedded drivers.
	Path           string
	MaxOpenConns   int
	AcquireTimeout time.Duration
	AutoMigrate    bool
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// environment is the flat set of variables read by envconfig.
type environment struct {
	Env         string   `envconfig:"ENV" default:"production"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort  int      `envconfig:"SERVER_PORT" default:"5050"`
	APIKey      string   `envconfig:"API_KEY"`
	CORSOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	DBDriver         string        `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost           string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort           int           `envconfig:"DB_PORT" default:"5432"`
	DBUser           string        `envconfig:"DB_USER" default:"portal"`
	DBPassword       string        `envconfig:"DB_PASSWORD" default:"password"`
	DBName           string        `envconfig:"DB_NAME" default:"academic_auth"`
	DBUseSSL         bool          `envconfig:"DB_SSL" default:"false"`
	DBPath           string        `envconfig:"DB_PATH" default:"data/portal.db"`
	DBMaxOpenConns   int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBAcquireTimeout time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"5s"`
	DBAutoMigrate    bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
	GeminiTimeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"5s"`

	StorageBackend     string `envconfig:"STORAGE_BACKEND"`
	MinioEndpoint      string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey     string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey     string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket        string `envconfig:"MINIO_BUCKET" default:"portal-exports"`
	MinioUseSSL        bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	GCSBucket          string `envconfig:"GCS_BUCKET"`
	GCSProjectID       string `envconfig:"GCS_PROJECT_ID"`
	GCSCredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`

	MQBackend               string `envconfig:"MQ_BACKEND"`
	MQChannel               string `envconfig:"MQ_CHANNEL" default:"user.registered"`
	RabbitMQURL             string `envconfig:"RABBITMQ_URL"`
	RabbitMQQueueDurable    bool   `envconfig:"RABBITMQ_QUEUE_DURABLE" default:"true"`
	RabbitMQQueueAutoDelete bool   `envconfig:"RABBITMQ_QUEUE_AUTO_DELETE" default:"false"`
	RabbitMQPrefetchCount   int    `envconfig:"RABBITMQ_PREFETCH_COUNT" default:"10"`
	PubSubProjectID         string `envconfig:"PUBSUB_PROJECT_ID"`
	PubSubCredentialsFile   string `envconfig:"PUBSUB_CREDENTIALS_FILE"`
	PubSubSubscriptionSfx   string `envconfig:"PUBSUB_SUBSCRIPTION_SUFFIX" default:"-sub"`

	APIURL        string        `envconfig:"API_URL" default:"http://localhost:5050"`
	ClientTimeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
}

// LoadConfig reads the process environment. In dev mode .env.local and .env
// are loaded first; variables already set in the environment win.
func LoadConfig() (Config, error) {
	if isDev(os.Getenv("ENV")) {
		_ = godotenv.Load(".env.local")
		_ = godotenv.Load()
	}

	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg := Config{
		Env:         env.Env,
		LogLevel:    env.LogLevel,
		ServerPort:  env.ServerPort,
		APIKey:      strings.TrimSpace(env.APIKey),
		CORSOrigins: env.CORSOrigins,
		Database: DatabaseConfig{
			Driver:         strings.ToLower(strings.TrimSpace(env.DBDriver)),
			Host:           env.DBHost,
			Port:           env.DBPort,
			User:           env.DBUser,
			Password:       env.DBPassword,
			DBName:         env.DBName,
			UseSSL:         env.DBUseSSL,
			Path:           env.DBPath,
			MaxOpenConns:   env.DBMaxOpenConns,
			AcquireTimeout: env.DBAcquireTimeout,
			AutoMigrate:    env.DBAutoMigrate,
		},
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(env.JWTSecret),
			TokenTTL:  env.JWTTTL,
		},
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(env.GeminiAPIKey),
			Model:   env.GeminiModel,
			Timeout: env.GeminiTimeout,
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(strings.TrimSpace(env.StorageBackend)),
			Minio: MinioConfig{
				Endpoint:  env.MinioEndpoint,
				AccessKey: env.MinioAccessKey,
				SecretKey: env.MinioSecretKey,
				Bucket:    env.MinioBucket,
				UseSSL:    env.MinioUseSSL,
			},
			GCS: GCSConfig{
				Bucket:          env.GCSBucket,
				ProjectID:       env.GCSProjectID,
				CredentialsFile: env.GCSCredentialsFile,
			},
		},
		MQ: MQConfig{
			Backend: strings.ToLower(strings.TrimSpace(env.MQBackend)),
			Channel: env.MQChannel,
			RabbitMQ: RabbitMQConfig{
				URL:             env.RabbitMQURL,
				QueueDurable:    env.RabbitMQQueueDurable,
				QueueAutoDelete: env.RabbitMQQueueAutoDelete,
				PrefetchCount:   env.RabbitMQPrefetchCount,
			},
			PubSub: PubSubConfig{
				ProjectID:          env.PubSubProjectID,
				CredentialsFile:    env.PubSubCredentialsFile,
				SubscriptionSuffix: env.PubSubSubscriptionSfx,
			},
		},
		Client: ClientConfig{
			BaseURL: strings.TrimRight(env.APIURL, "/"),
			Timeout: env.ClientTimeout,
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown backend names and nonsensical pool settings.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Database.AcquireTimeout <= 0 {
		return fmt.Errorf("DB_ACQUIRE_TIMEOUT must be positive")
	}
	switch c.Storage.Backend {
	case BackendNone, BackendMinio, BackendGCS:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	switch c.MQ.Backend {
	case BackendNone, BackendMemory, BackendRabbitMQ, BackendPubSub:
	default:
		return fmt.Errorf("unsupported MQ_BACKEND %q", c.MQ.Backend)
	}
	return nil
}

// IsDev reports whether the config targets local development.
func (c Config) IsDev() bool {
	return isDev(c.Env)
}

func isDev(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local":
		return true
	}
	return false
}
