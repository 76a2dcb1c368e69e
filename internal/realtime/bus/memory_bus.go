package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime"
)

type memoryBus struct {
	log *logger.Logger

	mu     sync.RWMutex
	subs   []chan realtime.Notification
	buffer int
	closed bool
}

// NewMemoryBus fans messages out to in-process forwarders. A slow forwarder
// loses messages rather than blocking publishers.
func NewMemoryBus(log *logger.Logger, buffer int) Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &memoryBus{log: log.With("service", "MemoryNotificationBus"), buffer: buffer}
}

func (b *memoryBus) Publish(ctx context.Context, msg realtime.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("notification bus closed")
	}
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			b.log.Warn("notification forwarder full; dropping", "event", msg.Event)
		}
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Notification)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	ch := make(chan realtime.Notification, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("notification bus closed")
	}
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	go func() {
		defer b.remove(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				onMsg(m)
			}
		}
	}()
	return nil
}

func (b *memoryBus) remove(ch chan realtime.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.subs {
		if c == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	return nil
}
