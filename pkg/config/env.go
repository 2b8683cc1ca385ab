package config

// EnvPrefix is the envconfig prefix; fields carry fully qualified names.
const EnvPrefix = "ORDERHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "ORDERHUB_APP_ENV"
	EnvPort     = "ORDERHUB_APP_PORT"
	EnvLogLevel = "ORDERHUB_LOG_LEVEL"

	EnvDBDSN    = "ORDERHUB_DB_DSN"
	EnvDBDriver = "ORDERHUB_DB_DRIVER"
	EnvDBHost   = "ORDERHUB_DB_HOST"
	EnvDBUser   = "ORDERHUB_DB_USER"
	EnvDBName   = "ORDERHUB_DB_NAME"

	EnvRedisURL = "ORDERHUB_REDIS_URL"

	EnvJWTSecret               = "ORDERHUB_JWT_SECRET"
	EnvJWTIssuer               = "ORDERHUB_JWT_ISSUER"
	EnvJWTExpMins              = "ORDERHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "ORDERHUB_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID            = "ORDERHUB_GCP_PROJECT_ID"
	EnvPubSubNotificationTopic = "ORDERHUB_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "ORDERHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubCatalogTopic      = "ORDERHUB_PUBSUB_CATALOG_TOPIC"
	EnvPubSubCatalogSub        = "ORDERHUB_PUBSUB_CATALOG_SUBSCRIPTION"

	EnvSMTPHost = "ORDERHUB_SMTP_HOST"
	EnvSMTPFrom = "ORDERHUB_SMTP_FROM"

	EnvCORSAllowedOrigins = "ORDERHUB_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
