package cache

import (
	"context"
	"errors"
	"time"

	"storefront/internal/cart"

	"github.com/redis/go-redis/v9"
)

// セッション1つ分のカートをRedisに保存する
type RedisCartPersister struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func (p *RedisCartPersister) Load(ctx context.Context) ([]cart.Line, error) {
	raw, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return cart.Decode(raw)
}

// 保存のたびにTTLを延ばす
func (p *RedisCartPersister) Save(ctx context.Context, lines []cart.Line) error {
	raw, err := cart.Encode(lines)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.key, raw, p.ttl).Err()
}

// セッションIDから保存先を作る
type RedisCartPersisters struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCartPersisters(client redis.UniversalClient, ttl time.Duration) *RedisCartPersisters {
	return &RedisCartPersisters{client: client, ttl: ttl}
}

func (f *RedisCartPersisters) For(sessionID string) cart.Persister {
	return &RedisCartPersister{client: f.client, key: cartKey(sessionID), ttl: f.ttl}
}
