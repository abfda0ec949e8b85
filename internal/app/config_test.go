package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("ORACLE_PROOF_SECRET", "proof")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("missing JWT secret: want error")
	}

	t.Setenv("JWT_SECRET_KEY", "jwt")
	t.Setenv("ORACLE_MODE", "http")
	t.Setenv("ORACLE_URL", "")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("http oracle without url: want error")
	}
}

func TestLoadConfigHTTPOracleNeedsLocalVaultOptIn(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET_KEY", "jwt")
	t.Setenv("ORACLE_PROOF_SECRET", "proof")
	t.Setenv("ORACLE_MODE", "http")
	t.Setenv("ORACLE_URL", "http://oracle.local")
	t.Setenv("ORACLE_ALLOW_LOCAL_VAULT", "false")
	if _, err := LoadConfig(logger.Nop()); err == nil || !strings.Contains(err.Error(), "ORACLE_ALLOW_LOCAL_VAULT") {
		t.Fatalf("http oracle without opt-in: want ORACLE_ALLOW_LOCAL_VAULT error got=%v", err)
	}

	t.Setenv("ORACLE_ALLOW_LOCAL_VAULT", "true")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig with opt-in: %v", err)
	}
	if cfg.Oracle.Mode != OracleModeHTTP || !cfg.Oracle.AllowLocalVault {
		t.Fatalf("oracle config: %+v", cfg.Oracle)
	}
}

func TestLoadConfigFileDefaultsYieldToEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groupbuy.yaml")
	body := []byte("JWT_SECRET_KEY: from-file\nORACLE_PROOF_SECRET: proof\nORDER_LIFETIME_SECONDS: 120\nHTTP_ADDR: \":9999\"\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("ORACLE_MODE", "simulator")
	// t.Setenv restores these after the test; unset them so the file applies.
	for _, key := range []string{"JWT_SECRET_KEY", "ORACLE_PROOF_SECRET", "ORDER_LIFETIME_SECONDS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWTSecretKey != "from-file" {
		t.Fatalf("jwt secret: want=from-file got=%q", cfg.JWTSecretKey)
	}
	if cfg.OrderLifetime != 2*time.Minute {
		t.Fatalf("order lifetime: want=2m got=%s", cfg.OrderLifetime)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Fatalf("env must win over file: want=:7000 got=%q", cfg.HTTPAddr)
	}
	if cfg.Oracle.Mode != OracleModeSimulator {
		t.Fatalf("oracle mode: want=%s got=%s", OracleModeSimulator, cfg.Oracle.Mode)
	}
}
