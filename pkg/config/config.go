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
	FeatureFlags  FeatureFlagsConfig
	Razorpay      RazorpayConfig
	SMTP          SMTPConfig
	Storage       StorageConfig
	Cron          CronConfig
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
	Env          string `envconfig:"SAASTOOLS_APP_ENV" required:"true"`
	Port         string `envconfig:"SAASTOOLS_APP_PORT" required:"true"`
	URL          string `envconfig:"SAASTOOLS_APP_URL" default:"http://localhost:3000"`
	AdminEmail   string `envconfig:"SAASTOOLS_ADMIN_EMAIL"`
	LogLevel     string `envconfig:"SAASTOOLS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SAASTOOLS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SAASTOOLS_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// IsAdminEmail reports whether email matches the configured bootstrap admin address.
func (a AppConfig) IsAdminEmail(email string) bool {
	admin := strings.TrimSpace(a.AdminEmail)
	if admin == "" {
		return false
	}
	return strings.EqualFold(admin, strings.TrimSpace(email))
}

type ServiceConfig struct {
	Kind string `envconfig:"SAASTOOLS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SAASTOOLS_DB_DSN"`
	Driver string `envconfig:"SAASTOOLS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SAASTOOLS_DB_HOST"`
	LegacyPort     int    `envconfig:"SAASTOOLS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SAASTOOLS_DB_USER"`
	LegacyPassword string `envconfig:"SAASTOOLS_DB_PASSWORD"`
	LegacyName     string `envconfig:"SAASTOOLS_DB_NAME"`
	LegacySSLMode  string `envconfig:"SAASTOOLS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SAASTOOLS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SAASTOOLS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SAASTOOLS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SAASTOOLS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQuery      time.Duration `envconfig:"SAASTOOLS_DB_SLOW_QUERY" default:"500ms"`
	ConnectRetries int           `envconfig:"SAASTOOLS_DB_CONNECT_RETRIES" default:"5"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SAASTOOLS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SAASTOOLS_REDIS_ADDR"`
	Password     string        `envconfig:"SAASTOOLS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SAASTOOLS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SAASTOOLS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SAASTOOLS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SAASTOOLS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SAASTOOLS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SAASTOOLS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SAASTOOLS_JWT_SECRET" required:"true"`
	RefreshSecret          string `envconfig:"SAASTOOLS_JWT_REFRESH_SECRET" required:"true"`
	Issuer                 string `envconfig:"SAASTOOLS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SAASTOOLS_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"SAASTOOLS_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SAASTOOLS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SAASTOOLS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SAASTOOLS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SAASTOOLS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SAASTOOLS_ARGON_KEY_LEN" default:"32"`

	ResetTokenTTL time.Duration `envconfig:"SAASTOOLS_PASSWORD_RESET_TTL" default:"1h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SAASTOOLS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SAASTOOLS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SAASTOOLS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SAASTOOLS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SAASTOOLS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SAASTOOLS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SAASTOOLS_AUTO_MIGRATE" default:"false"`
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"SAASTOOLS_RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"SAASTOOLS_RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"SAASTOOLS_RAZORPAY_WEBHOOK_SECRET"`
	Currency      string        `envconfig:"SAASTOOLS_RAZORPAY_CURRENCY" default:"INR"`
	WebhookTTL    time.Duration `envconfig:"SAASTOOLS_RAZORPAY_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

// Enabled reports whether API credentials are present.
func (r RazorpayConfig) Enabled() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type SMTPConfig struct {
	Host     string `envconfig:"SAASTOOLS_SMTP_HOST"`
	Port     int    `envconfig:"SAASTOOLS_SMTP_PORT" default:"587"`
	User     string `envconfig:"SAASTOOLS_SMTP_USER"`
	Password string `envconfig:"SAASTOOLS_SMTP_PASS"`
	From     string `envconfig:"SAASTOOLS_SMTP_FROM"`
}

// Sender returns the From address, falling back to the SMTP user.
func (s SMTPConfig) Sender() string {
	if from := strings.TrimSpace(s.From); from != "" {
		return from
	}
	return strings.TrimSpace(s.User)
}

type StorageConfig struct {
	Driver    string `envconfig:"SAASTOOLS_STORAGE_DRIVER" default:"local"`
	LocalDir  string `envconfig:"SAASTOOLS_STORAGE_LOCAL_DIR" default:"public/invoices"`
	PublicURL string `envconfig:"SAASTOOLS_STORAGE_PUBLIC_URL" default:"/invoices"`

	S3Endpoint        string `envconfig:"SAASTOOLS_S3_ENDPOINT"`
	S3Region          string `envconfig:"SAASTOOLS_S3_REGION" default:"us-east-1"`
	S3Bucket          string `envconfig:"SAASTOOLS_S3_BUCKET"`
	S3AccessKeyID     string `envconfig:"SAASTOOLS_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"SAASTOOLS_S3_SECRET_ACCESS_KEY"`
	S3Prefix          string `envconfig:"SAASTOOLS_S3_PREFIX" default:"invoices"`
}

type CronConfig struct {
	Interval               time.Duration `envconfig:"SAASTOOLS_CRON_INTERVAL" default:"1h"`
	PendingSubscriptionTTL time.Duration `envconfig:"SAASTOOLS_CRON_PENDING_SUBSCRIPTION_TTL" default:"24h"`
	JobTimeout             time.Duration `envconfig:"SAASTOOLS_CRON_JOB_TIMEOUT" default:"5m"`
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
