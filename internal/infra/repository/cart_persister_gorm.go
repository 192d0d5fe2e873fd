package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// DBに保存するカート（Redisを使わない構成）
type DBCartPersisters struct {
	snapshots repo.CartSnapshotRepository
	ttl       time.Duration
	now       func() time.Time
}

func NewDBCartPersisters(snapshots repo.CartSnapshotRepository, ttl time.Duration) *DBCartPersisters {
	return &DBCartPersisters{snapshots: snapshots, ttl: ttl, now: time.Now}
}

func (f *DBCartPersisters) For(sessionID string) cart.Persister {
	return &dbCartPersister{parent: f, sessionID: sessionID}
}

type dbCartPersister struct {
	parent    *DBCartPersisters
	sessionID string
}

func (p *dbCartPersister) Load(ctx context.Context) ([]cart.Line, error) {
	s, err := p.parent.snapshots.Find(ctx, p.sessionID, p.parent.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, cart.ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return cart.Decode([]byte(s.Payload))
}

func (p *dbCartPersister) Save(ctx context.Context, lines []cart.Line) error {
	raw, err := cart.Encode(lines)
	if err != nil {
		return err
	}
	now := p.parent.now()
	return p.parent.snapshots.Upsert(ctx, model.CartSnapshot{
		SessionID: p.sessionID,
		Payload:   string(raw),
		ExpiresAt: now.Add(p.parent.ttl),
		UpdatedAt: now,
	})
}
