package bus

import (
	"context"
	"strings"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime"
)

// DefaultChannel is the Redis pub/sub channel used when none is configured.
// Every notification goes over the one channel; Notification.Channel carries
// the recipient.
const DefaultChannel = "video-progress"

// Bus carries per-user notifications from the progress pipeline to whatever
// delivers them. Publish must not block on slow consumers.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Notification) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Notification)) error
	Close() error
}

// New returns the Redis bus when an address is configured, otherwise an
// in-process bus.
func New(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		log.Info("REDIS_ADDR not set; using in-memory notification bus")
		return NewMemoryBus(log, 0), nil
	}
	return NewRedisBus(log, cfg)
}
