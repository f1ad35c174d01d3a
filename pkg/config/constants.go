package config

// EnvPrefix is passed to envconfig; every field declares its full variable name.
const EnvPrefix = "GYMHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "GYMHUB_APP_ENV"
	EnvPort                   = "GYMHUB_APP_PORT"
	EnvDBDSN                  = "GYMHUB_DB_DSN"
	EnvDBHost                 = "GYMHUB_DB_HOST"
	EnvDBUser                 = "GYMHUB_DB_USER"
	EnvDBName                 = "GYMHUB_DB_NAME"
	EnvRedisURL               = "GYMHUB_REDIS_URL"
	EnvJWTSecret              = "GYMHUB_JWT_SECRET"
	EnvJWTIssuer              = "GYMHUB_JWT_ISSUER"
	EnvJWTExpMins             = "GYMHUB_JWT_EXPIRATION_MINUTES"
	EnvPaystackSecretKey      = "GYMHUB_PAYSTACK_SECRET_KEY"
	EnvRegistrationFee        = "GYMHUB_BILLING_REGISTRATION_FEE"
	EnvSessionCookieDomain    = "GYMHUB_SESSION_COOKIE_DOMAIN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
