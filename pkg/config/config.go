package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FIXNADO_DB_DSN"
	EnvDBHost = "FIXNADO_DB_HOST"
	EnvDBUser = "FIXNADO_DB_USER"
	EnvDBName = "FIXNADO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FIXNADO_APP_ENV" required:"true"`
	Port         string `envconfig:"FIXNADO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FIXNADO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIXNADO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FIXNADO_DB_DSN"`
	Driver string `envconfig:"FIXNADO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FIXNADO_DB_HOST"`
	LegacyPort     int    `envconfig:"FIXNADO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FIXNADO_DB_USER"`
	LegacyPassword string `envconfig:"FIXNADO_DB_PASSWORD"`
	LegacyName     string `envconfig:"FIXNADO_DB_NAME"`
	LegacySSLMode  string `envconfig:"FIXNADO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIXNADO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIXNADO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIXNADO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIXNADO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIXNADO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIXNADO_REDIS_ADDR"`
	Password     string        `envconfig:"FIXNADO_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIXNADO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIXNADO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIXNADO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIXNADO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIXNADO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIXNADO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FIXNADO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FIXNADO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FIXNADO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FIXNADO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FIXNADO_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FIXNADO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FIXNADO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FIXNADO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	RentalTopic        string `envconfig:"FIXNADO_PUBSUB_RENTAL_TOPIC" default:"fx-rental-events"`
	RentalSubscription string `envconfig:"FIXNADO_PUBSUB_RENTAL_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FIXNADO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FIXNADO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FIXNADO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
