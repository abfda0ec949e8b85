package temporalx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

// NewClient dials the Temporal frontend that hosts the disclosure deadline workflows.
// It returns (nil, nil) when Temporal is not configured.
func NewClient(cfg Config, log *logger.Logger) (temporalsdkclient.Client, error) {
	if !cfg.Enabled() {
		log.Warn("TEMPORAL_ADDRESS not set; disclosure deadlines fall back to the sweeper")
		return nil, nil
	}
	opts, err := clientOptions(cfg, log, true)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialMaxWait+cfg.DialTimeout)
	defer cancel()
	var c temporalsdkclient.Client
	err = retry(ctx, cfg, log, "temporal dial", func() (bool, error) {
		dialCtx, dialCancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer dialCancel()
		c, err = temporalsdkclient.DialContext(dialCtx, opts)
		return cfg.DialMaxWait > 0, err
	})
	if err != nil {
		return nil, fmt.Errorf("temporal dial failed (address=%s namespace=%s): %w", cfg.Address, cfg.Namespace, err)
	}
	if cfg.AutoRegisterNamespace {
		if err := EnsureNamespace(context.Background(), cfg, log); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// EnsureNamespace registers cfg.Namespace on a self-hosted frontend when it is missing.
func EnsureNamespace(ctx context.Context, cfg Config, log *logger.Logger) error {
	namespace := strings.TrimSpace(cfg.Namespace)
	if namespace == "" || !cfg.Enabled() {
		return nil
	}
	// No namespace header, so the client can talk about a namespace that does not exist yet.
	opts, err := clientOptions(cfg, log, false)
	if err != nil {
		return err
	}
	nsClient, err := temporalsdkclient.NewNamespaceClient(opts)
	if err != nil {
		return fmt.Errorf("temporal namespace client: %w", err)
	}
	defer nsClient.Close()

	retention := cfg.NamespaceRetention
	if retention < 24*time.Hour || retention > 365*24*time.Hour {
		retention = 7 * 24 * time.Hour
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return retry(ctx, cfg, log, "temporal namespace ensure", func() (bool, error) {
		_, err := nsClient.Describe(ctx, namespace)
		var missing *serviceerror.NamespaceNotFound
		if errors.As(err, &missing) {
			err = nsClient.Register(ctx, &workflowservice.RegisterNamespaceRequest{
				Namespace:                        namespace,
				Description:                      "group-buy settlement disclosure deadlines",
				WorkflowExecutionRetentionPeriod: durationpb.New(retention),
			})
			var exists *serviceerror.NamespaceAlreadyExists
			if errors.As(err, &exists) {
				err = nil
			}
			if err == nil {
				log.Info("Registered Temporal namespace", "namespace", namespace, "retention", retention)
			}
		}
		return isRetryableRPC(err), err
	})
}

// retry runs fn until it succeeds, reports a permanent failure, or ctx ends.
func retry(ctx context.Context, cfg Config, log *logger.Logger, what string, fn func() (retryable bool, err error)) error {
	for attempt := 1; ; attempt++ {
		retryable, err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info(what+" succeeded", "address", cfg.Address, "attempts", attempt)
			}
			return nil
		}
		if !retryable {
			return err
		}
		log.Warn(what+" retrying", "address", cfg.Address, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(clampBackoff(cfg.Backoff, cfg.BackoffMax, attempt)):
		}
	}
}

func clientOptions(cfg Config, log *logger.Logger, withNamespace bool) (temporalsdkclient.Options, error) {
	opts := temporalsdkclient.Options{HostPort: cfg.Address, Logger: log}
	if withNamespace {
		opts.Namespace = cfg.Namespace
	}
	if cfg.ClientCertPath == "" && cfg.ClientKeyPath == "" && cfg.ClientCAPath == "" {
		return opts, nil
	}
	tlsCfg, err := loadTLSConfig(cfg)
	if err != nil {
		return opts, err
	}
	opts.ConnectionOptions.TLS = tlsCfg
	return opts, nil
}

func loadTLSConfig(cfg Config) (*tls.Config, error) {
	if cfg.ClientCertPath == "" || cfg.ClientKeyPath == "" {
		return nil, fmt.Errorf("temporal tls: TEMPORAL_CLIENT_CERT_PATH and TEMPORAL_CLIENT_KEY_PATH must be set together")
	}
	cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("temporal tls: %w", err)
	}
	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	if cfg.ClientCAPath == "" {
		return tlsCfg, nil
	}
	pem, err := os.ReadFile(cfg.ClientCAPath)
	if err != nil {
		return nil, fmt.Errorf("temporal tls: read CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("temporal tls: no certificates in %s", cfg.ClientCAPath)
	}
	tlsCfg.RootCAs = pool
	return tlsCfg, nil
}

func isRetryableRPC(err error) bool {
	if err == nil {
		return false
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return true
		}
		return false
	}
	return errors.Is(err, context.DeadlineExceeded)
}
