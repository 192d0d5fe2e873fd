package cache

import (
	"context"
	"encoding/json"

	"storefront/internal/cart"

	"github.com/redis/go-redis/v9"
)

// カートの変更を同じセッションの他タブへ流す
type CartChannel struct {
	client redis.UniversalClient
}

func NewCartChannel(client redis.UniversalClient) *CartChannel {
	return &CartChannel{client: client}
}

func (c *CartChannel) Publish(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, cartKey(sessionID), raw).Err()
}

// Subscribe はctxが終わるかcancelが呼ばれるまで受信を続ける
func (c *CartChannel) Subscribe(ctx context.Context, sessionID string) (<-chan cart.Snapshot, func()) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := c.client.Subscribe(ctx, cartKey(sessionID))
	out := make(chan cart.Snapshot, 8)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var snap cart.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel
}
