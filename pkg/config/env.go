package config

// EnvPrefix is empty because every field tag already carries the MARAIS_ prefix.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MARAIS_APP_ENV"
	EnvPort     = "MARAIS_APP_PORT"
	EnvLogLevel = "MARAIS_LOG_LEVEL"

	EnvDBDSN  = "MARAIS_DB_DSN"
	EnvDBHost = "MARAIS_DB_HOST"
	EnvDBUser = "MARAIS_DB_USER"
	EnvDBName = "MARAIS_DB_NAME"

	EnvRedisURL = "MARAIS_REDIS_URL"

	EnvJWTSecret = "MARAIS_JWT_SECRET"
	EnvJWTIssuer = "MARAIS_JWT_ISSUER"

	EnvWhatsAppNumber = "MARAIS_WHATSAPP_NUMBER"
	EnvCatalogPerPage = "MARAIS_CATALOG_PAGE_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
