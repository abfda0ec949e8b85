package temporalx

import (
	"strings"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/envutil"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	NamespaceRetention    time.Duration

	DialTimeout time.Duration
	DialMaxWait time.Duration
	Backoff     time.Duration
	BackoffMax  time.Duration

	WorkerConcurrency int
}

// Enabled reports whether a Temporal frontend is configured. Without one the sweeper applies
// disclosure timeouts.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Address) != "" }

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Address:   strings.TrimSpace(envutil.GetEnv("TEMPORAL_ADDRESS", "", log)),
		Namespace: stringsOr(envutil.GetEnv("TEMPORAL_NAMESPACE", "groupbuy", log), "groupbuy"),
		TaskQueue: stringsOr(envutil.GetEnv("TEMPORAL_TASK_QUEUE", "groupbuy-settlement", log), "groupbuy-settlement"),

		ClientCertPath: strings.TrimSpace(envutil.GetEnv("TEMPORAL_CLIENT_CERT_PATH", "", log)),
		ClientKeyPath:  strings.TrimSpace(envutil.GetEnv("TEMPORAL_CLIENT_KEY_PATH", "", log)),
		ClientCAPath:   strings.TrimSpace(envutil.GetEnv("TEMPORAL_CLIENT_CA_PATH", "", log)),

		AutoRegisterNamespace: envutil.GetEnvAsBool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false, log),
		NamespaceRetention:    time.Duration(envutil.GetEnvAsInt("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7, log)) * 24 * time.Hour,

		DialTimeout: envutil.GetEnvAsSeconds("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5*time.Second, log),
		DialMaxWait: envutil.GetEnvAsSeconds("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60*time.Second, log),
		Backoff:     250 * time.Millisecond,
		BackoffMax:  5 * time.Second,

		WorkerConcurrency: envutil.GetEnvAsInt("TEMPORAL_WORKER_CONCURRENCY", 4, log),
	}
}

func stringsOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func clampBackoff(base time.Duration, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}
