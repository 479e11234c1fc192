package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MOVILPOS"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "MOVILPOS_APP_ENV"
	EnvDBDSN  = "MOVILPOS_DB_DSN"
	EnvDBHost = "MOVILPOS_DB_HOST"
	EnvDBUser = "MOVILPOS_DB_USER"
	EnvDBName = "MOVILPOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Cache CacheConfig
	Sales SalesConfig
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
	Env          string `envconfig:"MOVILPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"MOVILPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOVILPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOVILPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MOVILPOS_DB_DSN"`
	Driver string `envconfig:"MOVILPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MOVILPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"MOVILPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MOVILPOS_DB_USER"`
	LegacyPassword string `envconfig:"MOVILPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"MOVILPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"MOVILPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOVILPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOVILPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOVILPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOVILPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"MOVILPOS_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MOVILPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MOVILPOS_REDIS_ADDR"`
	Password     string        `envconfig:"MOVILPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOVILPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOVILPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOVILPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOVILPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOVILPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOVILPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CacheConfig bounds the read cache fronting catalog and customer reads.
type CacheConfig struct {
	TTL time.Duration `envconfig:"MOVILPOS_CACHE_TTL" default:"24h"`
}

// SalesConfig carries pricing knobs for the transaction engine.
type SalesConfig struct {
	// TaxRatePercent is applied to the discounted subtotal when a sale is
	// marked taxable. The current deployment runs tax-free.
	TaxRatePercent float64       `envconfig:"MOVILPOS_SALES_TAX_RATE_PERCENT" default:"0"`
	CreditLockTTL  time.Duration `envconfig:"MOVILPOS_SALES_CREDIT_LOCK_TTL" default:"30s"`
	CreditCASRetry int           `envconfig:"MOVILPOS_SALES_CREDIT_CAS_RETRY" default:"3"`
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
