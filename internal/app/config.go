package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	dbpkg "github.com/yungbote/groupbuy-settlement/internal/data/db"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/observability"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/envutil"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
	"github.com/yungbote/groupbuy-settlement/internal/temporalx"
)

const (
	OracleModeSimulator = "simulator"
	OracleModeHTTP      = "http"
)

type OracleConfig struct {
	Mode        string
	URL         string
	APIKey      string
	CallbackURL string
	ProofSecret string
	// AllowLocalVault acknowledges that http mode still keeps ciphertexts in the in-process
	// vault. An external oracle cannot resolve those handles and they do not survive a restart.
	AllowLocalVault bool

	SimulatorDelay     time.Duration
	SimulatorRedeliver int
	SimulatorSilent    bool
}

type Config struct {
	HTTPAddr    string
	CORSOrigins []string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	AdminIdentities []string

	DB            dbpkg.Config
	OrderLifetime time.Duration

	Oracle OracleConfig

	RedisAddr         string
	RedisAuditChannel string

	Temporal        temporalx.Config
	SweeperInterval time.Duration
	SweeperBatch    int

	MetricsEnabled bool
	MetricsAddr    string
	Otel           observability.OtelConfig
}

// LoadConfig reads the environment. When CONFIG_FILE names a YAML file of ENV_NAME: value pairs,
// those values are used for variables the environment leaves unset.
func LoadConfig(log *logger.Logger) (Config, error) {
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFileDefaults(path, log); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		HTTPAddr:    envutil.GetEnv("HTTP_ADDR", ":8080", log),
		CORSOrigins: envutil.GetEnvAsList("CORS_ALLOWED_ORIGINS", log),

		JWTSecretKey:    envutil.GetEnv("JWT_SECRET_KEY", "", log),
		AccessTokenTTL:  envutil.GetEnvAsSeconds("ACCESS_TOKEN_TTL", time.Hour, log),
		AdminIdentities: envutil.GetEnvAsList("ADMIN_IDENTITIES", log),

		DB: dbpkg.Config{
			Driver:           envutil.GetEnv("DB_DRIVER", dbpkg.DriverPostgres, log),
			PostgresHost:     envutil.GetEnv("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.GetEnv("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.GetEnv("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.GetEnv("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.GetEnv("POSTGRES_NAME", "groupbuy", log),
			PostgresSSLMode:  envutil.GetEnv("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.GetEnv("SQLITE_PATH", "groupbuy.db", log),
			MaxOpenConns:     envutil.GetEnvAsInt("DB_MAX_OPEN_CONNS", 20, log),
		},
		OrderLifetime: envutil.GetEnvAsSeconds("ORDER_LIFETIME_SECONDS", types.DefaultOrderLifetime, log),

		Oracle: OracleConfig{
			Mode:               strings.ToLower(envutil.GetEnv("ORACLE_MODE", OracleModeSimulator, log)),
			URL:                envutil.GetEnv("ORACLE_URL", "", log),
			APIKey:             envutil.GetEnv("ORACLE_API_KEY", "", log),
			CallbackURL:        envutil.GetEnv("ORACLE_CALLBACK_URL", "http://localhost:8080/api/oracle/callback", log),
			ProofSecret:        envutil.GetEnv("ORACLE_PROOF_SECRET", "", log),
			AllowLocalVault:    envutil.GetEnvAsBool("ORACLE_ALLOW_LOCAL_VAULT", false, log),
			SimulatorDelay:     time.Duration(envutil.GetEnvAsInt("ORACLE_SIMULATOR_DELAY_MS", 500, log)) * time.Millisecond,
			SimulatorRedeliver: envutil.GetEnvAsInt("ORACLE_SIMULATOR_REDELIVER", 3, log),
			SimulatorSilent:    envutil.GetEnvAsBool("ORACLE_SIMULATOR_SILENT", false, log),
		},

		RedisAddr:         envutil.GetEnv("REDIS_ADDR", "", log),
		RedisAuditChannel: envutil.GetEnv("REDIS_AUDIT_CHANNEL", "groupbuy.audit", log),

		Temporal:        temporalx.LoadConfig(log),
		SweeperInterval: envutil.GetEnvAsSeconds("SWEEPER_INTERVAL_SECONDS", 30*time.Second, log),
		SweeperBatch:    envutil.GetEnvAsInt("SWEEPER_BATCH", 100, log),

		MetricsEnabled: envutil.GetEnvAsBool("METRICS_ENABLED", false, log),
		MetricsAddr:    envutil.GetEnv("METRICS_ADDR", ":9090", log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: envutil.GetEnv("OTEL_SERVICE_NAME", "groupbuy-settlement", log),
			Environment: envutil.GetEnv("APP_ENV", "development", log),
			Version:     envutil.GetEnv("APP_VERSION", "dev", log),
			Endpoint:    envutil.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.GetEnv("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: parseRatio(envutil.GetEnv("OTEL_SAMPLER_RATIO", "1", log)),
		},
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if strings.TrimSpace(c.Oracle.ProofSecret) == "" {
		return fmt.Errorf("ORACLE_PROOF_SECRET is required")
	}
	switch c.Oracle.Mode {
	case OracleModeSimulator:
	case OracleModeHTTP:
		if strings.TrimSpace(c.Oracle.URL) == "" {
			return fmt.Errorf("ORACLE_URL is required when ORACLE_MODE=http")
		}
		if !c.Oracle.AllowLocalVault {
			return fmt.Errorf("ORACLE_MODE=http uses the in-process vault; set ORACLE_ALLOW_LOCAL_VAULT=true to run it for development")
		}
	default:
		return fmt.Errorf("unsupported ORACLE_MODE %q", c.Oracle.Mode)
	}
	if c.OrderLifetime <= 0 {
		return fmt.Errorf("ORDER_LIFETIME_SECONDS must be positive")
	}
	return nil
}

func applyFileDefaults(path string, log *logger.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("parse CONFIG_FILE: %w", err)
	}
	applied := 0
	for key, val := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("apply %s from CONFIG_FILE: %w", key, err)
		}
		applied++
	}
	log.Info("Config file loaded", "path", path, "applied", applied)
	return nil
}

func parseRatio(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 1
	}
	return f
}
