package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Session      SessionConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Paystack     PaystackConfig
	Billing      BillingConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Billing.RegistrationFeeAmount(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GYMHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"GYMHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GYMHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GYMHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"GYMHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GYMHUB_DB_DSN"`
	Driver string `envconfig:"GYMHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GYMHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"GYMHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GYMHUB_DB_USER"`
	LegacyPassword string `envconfig:"GYMHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"GYMHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"GYMHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GYMHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GYMHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GYMHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GYMHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GYMHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GYMHUB_REDIS_ADDR"`
	Password     string        `envconfig:"GYMHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"GYMHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GYMHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GYMHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GYMHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GYMHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GYMHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GYMHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GYMHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GYMHUB_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// AccessTTL is how long an access token and its server-side session live.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GYMHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GYMHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GYMHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GYMHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GYMHUB_ARGON_KEY_LEN" default:"32"`
}

// SessionConfig controls the cookie minted after a first successful payment.
type SessionConfig struct {
	CookieName   string        `envconfig:"GYMHUB_SESSION_COOKIE_NAME" default:"gymhub_session"`
	CookieDomain string        `envconfig:"GYMHUB_SESSION_COOKIE_DOMAIN"`
	MaxAge       time.Duration `envconfig:"GYMHUB_SESSION_MAX_AGE" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GYMHUB_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GYMHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GYMHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"GYMHUB_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type PaystackConfig struct {
	SecretKey     string        `envconfig:"GYMHUB_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL       string        `envconfig:"GYMHUB_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout       time.Duration `envconfig:"GYMHUB_PAYSTACK_TIMEOUT" default:"15s"`
	RetryAttempts uint64        `envconfig:"GYMHUB_PAYSTACK_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"GYMHUB_PAYSTACK_RETRY_BACKOFF" default:"200ms"`
}

// Environment reports whether the configured key targets the test or live gateway.
func (p PaystackConfig) Environment() string {
	if strings.HasPrefix(strings.TrimSpace(p.SecretKey), "sk_live") {
		return "live"
	}
	return "test"
}

type BillingConfig struct {
	RegistrationFee string `envconfig:"GYMHUB_BILLING_REGISTRATION_FEE" default:"0"`
	Currency        string `envconfig:"GYMHUB_BILLING_CURRENCY" default:"NGN"`
}

// RegistrationFeeAmount parses the one-time registration fee in major units.
func (b BillingConfig) RegistrationFeeAmount() (decimal.Decimal, error) {
	raw := strings.TrimSpace(b.RegistrationFee)
	if raw == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvRegistrationFee, raw, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvRegistrationFee)
	}
	return fee, nil
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"GYMHUB_CRON_INTERVAL" default:"15m"`
	LockTTL           time.Duration `envconfig:"GYMHUB_CRON_LOCK_TTL" default:"14m"`
	ReconcileLimit    int           `envconfig:"GYMHUB_CRON_RECONCILE_LIMIT" default:"250"`
	ReconcileLookback time.Duration `envconfig:"GYMHUB_CRON_RECONCILE_LOOKBACK" default:"168h"`
	JobTimeout        time.Duration `envconfig:"GYMHUB_CRON_JOB_TIMEOUT" default:"12m"`
	MetricsAddr       string        `envconfig:"GYMHUB_CRON_METRICS_ADDR"`
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
