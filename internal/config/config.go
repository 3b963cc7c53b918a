package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Storage  *storageConfig
	Queue    *queueConfig
	Engine   *engineConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"docpipe"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"DOCPIPE_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"DOCPIPE_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"DOCPIPE_LOG_LEVEL" default:"info"`
	LogFormat       string   `envconfig:"DOCPIPE_LOG_FORMAT" default:"console"`
	MigrationFolder string   `envconfig:"DOCPIPE_MIGRATIONS_FOLDER" default:""`
	MaxUploadSize   int64    `envconfig:"DOCPIPE_MAX_UPLOAD_SIZE" default:"52428800"`
	AllowedOrigins  []string `envconfig:"DOCPIPE_ALLOWED_ORIGINS" default:"*"`
	EventsTopic     string   `envconfig:"DOCPIPE_EVENTS_TOPIC" default:"docpipe.events"`
}

type storageConfig struct {
	Type      string `envconfig:"DOCPIPE_STORAGE_TYPE" default:"s3"`
	Endpoint  string `envconfig:"DOCPIPE_S3_ENDPOINT" default:"localhost:9000"`
	Bucket    string `envconfig:"DOCPIPE_S3_BUCKET" default:"docpipe"`
	AccessKey string `envconfig:"DOCPIPE_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"DOCPIPE_S3_SECRET_KEY" default:""`
	Region    string `envconfig:"DOCPIPE_S3_REGION" default:"us-east-1"`
	UseSSL    bool   `envconfig:"DOCPIPE_S3_USE_SSL" default:"false"`
}

type queueConfig struct {
	ConversionWorkers int           `envconfig:"DOCPIPE_CONVERSION_WORKERS" default:"4"`
	MetadataWorkers   int           `envconfig:"DOCPIPE_METADATA_WORKERS" default:"4"`
	MaxAttempts       int           `envconfig:"DOCPIPE_JOB_MAX_ATTEMPTS" default:"5"`
	StalePendingAfter time.Duration `envconfig:"DOCPIPE_STALE_PENDING_AFTER" default:"10m"`
	ReconcileInterval time.Duration `envconfig:"DOCPIPE_RECONCILE_INTERVAL" default:"5m"`
}

type engineConfig struct {
	SofficePath       string        `envconfig:"DOCPIPE_SOFFICE_PATH" default:"soffice"`
	ConversionTimeout time.Duration `envconfig:"DOCPIPE_CONVERSION_TIMEOUT" default:"2m"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a fresh, uncached configuration. Tests use it to tweak
// values without touching the process-wide instance.
func NewDefault() *Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}
	return cfg
}
