package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "SAASTOOLS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "SAASTOOLS_APP_ENV"
	EnvPort                   = "SAASTOOLS_APP_PORT"
	EnvAppURL                 = "SAASTOOLS_APP_URL"
	EnvAdminEmail             = "SAASTOOLS_ADMIN_EMAIL"
	EnvDBDSN                  = "SAASTOOLS_DB_DSN"
	EnvDBHost                 = "SAASTOOLS_DB_HOST"
	EnvDBUser                 = "SAASTOOLS_DB_USER"
	EnvDBPassword             = "SAASTOOLS_DB_PASSWORD"
	EnvDBName                 = "SAASTOOLS_DB_NAME"
	EnvRedisURL               = "SAASTOOLS_REDIS_URL"
	EnvJWTSecret              = "SAASTOOLS_JWT_SECRET"
	EnvJWTRefreshSecret       = "SAASTOOLS_JWT_REFRESH_SECRET"
	EnvJWTIssuer              = "SAASTOOLS_JWT_ISSUER"
	EnvJWTExpMins             = "SAASTOOLS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SAASTOOLS_REFRESH_TOKEN_TTL_MINUTES"
	EnvRazorpayKeyID          = "SAASTOOLS_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret      = "SAASTOOLS_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret  = "SAASTOOLS_RAZORPAY_WEBHOOK_SECRET"
	EnvSMTPHost               = "SAASTOOLS_SMTP_HOST"
	EnvStorageDriver          = "SAASTOOLS_STORAGE_DRIVER"
	EnvCronInterval           = "SAASTOOLS_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
