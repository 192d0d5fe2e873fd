package cache

import (
	"context"
	"sync"

	"storefront/internal/cart"
)

// Redisが無いとき用。同じプロセス内だけで配信する。
type MemoryCartChannel struct {
	mu   sync.Mutex
	subs map[string]map[chan cart.Snapshot]struct{}
}

func NewMemoryCartChannel() *MemoryCartChannel {
	return &MemoryCartChannel{subs: map[string]map[chan cart.Snapshot]struct{}{}}
}

// 受信側が詰まっていれば捨てる
func (c *MemoryCartChannel) Publish(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subs[sessionID] {
		select {
		case ch <- snap:
		default:
		}
	}
	return nil
}

func (c *MemoryCartChannel) Subscribe(ctx context.Context, sessionID string) (<-chan cart.Snapshot, func()) {
	ch := make(chan cart.Snapshot, 8)

	c.mu.Lock()
	if c.subs[sessionID] == nil {
		c.subs[sessionID] = map[chan cart.Snapshot]struct{}{}
	}
	c.subs[sessionID][ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[sessionID], ch)
			if len(c.subs[sessionID]) == 0 {
				delete(c.subs, sessionID)
			}
			c.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}
