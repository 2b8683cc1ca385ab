package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	APIRateLimit  APIRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Mail          MailConfig
	Tokens        TokenConfig
	Catalog       CatalogConfig
	Cron          CronConfig
	Worker        WorkerConfig
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
	Env          string `envconfig:"ORDERHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ORDERHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERHUB_DB_DSN"`
	Driver string `envconfig:"ORDERHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERHUB_DB_USER"`
	LegacyPassword string `envconfig:"ORDERHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"ORDERHUB_DB_SLOW_QUERY" default:"250ms"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERHUB_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ORDERHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ORDERHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ORDERHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ORDERHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ORDERHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ORDERHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ORDERHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ORDERHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ORDERHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"ORDERHUB_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"10"`
}

// APIRateLimitConfig bounds authenticated traffic per user in a fixed window.
type APIRateLimitConfig struct {
	Window time.Duration `envconfig:"ORDERHUB_API_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"ORDERHUB_API_RATE_LIMIT_LIMIT" default:"120"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ORDERHUB_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ORDERHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ORDERHUB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ORDERHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ORDERHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"ORDERHUB_PUBSUB_NOTIFICATION_TOPIC" default:"oh-notification-events"`
	NotificationSubscription string `envconfig:"ORDERHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	CatalogTopic             string `envconfig:"ORDERHUB_PUBSUB_CATALOG_TOPIC" default:"oh-catalog-events"`
	CatalogSubscription      string `envconfig:"ORDERHUB_PUBSUB_CATALOG_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"ORDERHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"ORDERHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"ORDERHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsAddr    string        `envconfig:"ORDERHUB_OUTBOX_METRICS_ADDR" default:":9092"`
	// PublishTimeout bounds how long one batch waits for broker acks.
	PublishTimeout time.Duration `envconfig:"ORDERHUB_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
}

// MailConfig configures SMTP delivery. An empty Host keeps the mailer in log-only mode.
type MailConfig struct {
	Host          string  `envconfig:"ORDERHUB_SMTP_HOST"`
	Port          int     `envconfig:"ORDERHUB_SMTP_PORT" default:"587"`
	Username      string  `envconfig:"ORDERHUB_SMTP_USERNAME"`
	Password      string  `envconfig:"ORDERHUB_SMTP_PASSWORD"`
	From          string  `envconfig:"ORDERHUB_SMTP_FROM" default:"no-reply@orderhub.local"`
	SendPerSecond float64 `envconfig:"ORDERHUB_MAIL_SEND_PER_SECOND" default:"5"`
	SendBurst     int     `envconfig:"ORDERHUB_MAIL_SEND_BURST" default:"10"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

type TokenConfig struct {
	EmailConfirmTTL  time.Duration `envconfig:"ORDERHUB_EMAIL_CONFIRM_TOKEN_TTL" default:"72h"`
	PasswordResetTTL time.Duration `envconfig:"ORDERHUB_PASSWORD_RESET_TOKEN_TTL" default:"1h"`
}

type CatalogConfig struct {
	MaxUploadKB int `envconfig:"ORDERHUB_CATALOG_MAX_UPLOAD_KB" default:"5120"`
}

// MaxUploadBytes returns the upload cap for price-list documents.
func (c CatalogConfig) MaxUploadBytes() int64 {
	if c.MaxUploadKB <= 0 {
		return 5 << 20
	}
	return int64(c.MaxUploadKB) << 10
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"ORDERHUB_CRON_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"ORDERHUB_CRON_LOCK_TTL" default:"10m"`
	JobTimeout      time.Duration `envconfig:"ORDERHUB_CRON_JOB_TIMEOUT" default:"5m"`
	OutboxRetention time.Duration `envconfig:"ORDERHUB_CRON_OUTBOX_RETENTION" default:"720h"`
	BasketReminder  time.Duration `envconfig:"ORDERHUB_CRON_BASKET_REMINDER_AFTER" default:"72h"`
	MetricsAddr     string        `envconfig:"ORDERHUB_CRON_METRICS_ADDR" default:":9093"`
	// Jobs limits the worker to the named jobs; empty runs all of them.
	Jobs []string `envconfig:"ORDERHUB_CRON_JOBS"`
}

type WorkerConfig struct {
	MetricsAddr string `envconfig:"ORDERHUB_WORKER_METRICS_ADDR" default:":9091"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
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
