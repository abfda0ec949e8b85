package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type RedisConfig struct {
	Addr    string
	Channel string
}

type redisPublisher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisPublisher publishes each event as JSON on a pub/sub channel.
func NewRedisPublisher(cfg RedisConfig, log *logger.Logger) (Publisher, func() error, error) {
	if log == nil {
		return nil, nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "groupbuy.audit"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	p := &redisPublisher{
		log:     log.With("service", "RedisAuditPublisher"),
		rdb:     rdb,
		channel: ch,
	}
	return p, rdb.Close, nil
}

func (p *redisPublisher) Publish(ctx context.Context, events []*types.AuditEvent) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis audit publisher not initialized")
	}
	pipe := p.rdb.Pipeline()
	for _, ev := range events {
		raw, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, p.channel, raw)
	}
	_, err := pipe.Exec(ctx)
	return err
}
