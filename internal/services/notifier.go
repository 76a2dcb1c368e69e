package services

import (
	"context"
	"fmt"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime/bus"
)

// Notifier hands user notifications to the bus. Delivery is someone else's
// job.
type Notifier interface {
	Notify(ctx context.Context, n realtime.Notification) error
}

type busNotifier struct {
	log *logger.Logger
	bus bus.Bus
}

func NewNotifier(baseLog *logger.Logger, b bus.Bus) Notifier {
	return &busNotifier{log: baseLog.With("service", "Notifier"), bus: b}
}

func (n *busNotifier) Notify(ctx context.Context, msg realtime.Notification) error {
	if n == nil || n.bus == nil {
		return nil
	}
	if msg.Channel == "" {
		return fmt.Errorf("notification channel required")
	}
	if err := n.bus.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Event, err)
	}
	return nil
}
