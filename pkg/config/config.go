package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Storefront   StorefrontConfig
	Pricing      PricingConfig
	Cron         CronConfig
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
	Env          string   `envconfig:"MARAIS_APP_ENV" required:"true"`
	Port         string   `envconfig:"MARAIS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"MARAIS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MARAIS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MARAIS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MARAIS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MARAIS_DB_DSN"`
	Driver string `envconfig:"MARAIS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARAIS_DB_HOST"`
	LegacyPort     int    `envconfig:"MARAIS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARAIS_DB_USER"`
	LegacyPassword string `envconfig:"MARAIS_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARAIS_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARAIS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARAIS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARAIS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARAIS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARAIS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL            string        `envconfig:"MARAIS_REDIS_URL" required:"true"`
	Address        string        `envconfig:"MARAIS_REDIS_ADDR"`
	Password       string        `envconfig:"MARAIS_REDIS_PASSWORD"`
	DB             int           `envconfig:"MARAIS_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"MARAIS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"MARAIS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"MARAIS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"MARAIS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"MARAIS_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"MARAIS_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARAIS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARAIS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARAIS_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARAIS_AUTO_MIGRATE" default:"false"`
}

type StorefrontConfig struct {
	WhatsAppNumber string `envconfig:"MARAIS_WHATSAPP_NUMBER" default:"77772555348"`
	CatalogPerPage int    `envconfig:"MARAIS_CATALOG_PAGE_SIZE" default:"12"`
	RelatedLimit   int    `envconfig:"MARAIS_CATALOG_RELATED_LIMIT" default:"15"`
	SessionCookie  string `envconfig:"MARAIS_SESSION_COOKIE" default:"session_key"`
}

type PricingConfig struct {
	PreviewTTL time.Duration `envconfig:"MARAIS_PRICING_PREVIEW_TTL" default:"336h"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"MARAIS_CRON_INTERVAL" default:"1h"`
	StaleCartAge   time.Duration `envconfig:"MARAIS_CRON_STALE_CART_AGE" default:"720h"`
	StaleCartBatch int           `envconfig:"MARAIS_CRON_STALE_CART_BATCH" default:"500"`
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
