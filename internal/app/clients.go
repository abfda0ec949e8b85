package app

import (
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	"github.com/yungbote/groupbuy-settlement/internal/confidential"
	"github.com/yungbote/groupbuy-settlement/internal/oracle"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
	"github.com/yungbote/groupbuy-settlement/internal/temporalx"
)

type Clients struct {
	Vault  *confidential.Vault
	Prover *oracle.Prover
	Oracle oracle.Oracle
	// Simulator is set when ORACLE_MODE=simulator; its sink is installed once aggregates exist.
	Simulator *oracle.Simulator

	AuditPublisher audit.Publisher
	closeRedis     func() error

	Temporal temporalsdkclient.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	out := Clients{
		Vault:  confidential.NewVault(),
		Prover: oracle.NewProver(cfg.Oracle.ProofSecret),
	}

	// Oracle
	switch cfg.Oracle.Mode {
	case OracleModeHTTP:
		log.Warn("http oracle wired to the in-process vault; handles are lost on restart", "oracle_url", cfg.Oracle.URL)
		o, err := oracle.NewHTTPOracle(oracle.HTTPConfig{BaseURL: cfg.Oracle.URL, APIKey: cfg.Oracle.APIKey}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init oracle client: %w", err)
		}
		out.Oracle = o
	default:
		sim := oracle.NewSimulator(oracle.SimulatorConfig{
			Delay:     cfg.Oracle.SimulatorDelay,
			Redeliver: cfg.Oracle.SimulatorRedeliver,
			Silent:    cfg.Oracle.SimulatorSilent,
		}, out.Vault, out.Prover, log)
		out.Simulator = sim
		out.Oracle = sim
	}

	// Redis
	if cfg.RedisAddr != "" {
		pub, closeFn, err := audit.NewRedisPublisher(audit.RedisConfig{Addr: cfg.RedisAddr, Channel: cfg.RedisAuditChannel}, log)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis audit publisher: %w", err)
		}
		out.AuditPublisher = pub
		out.closeRedis = closeFn
	} else {
		out.AuditPublisher = audit.LogPublisher{Log: log}
	}

	// Temporal
	if cfg.Temporal.Enabled() {
		tc, err := temporalx.NewClient(cfg.Temporal, log)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init temporal client: %w", err)
		}
		out.Temporal = tc
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Simulator != nil {
		c.Simulator.Close()
	}
	if c.closeRedis != nil {
		_ = c.closeRedis()
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
}
