package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// セッション単位のカート保存（DB版）
type CartSnapshotRepository interface {
	// 期限切れはErrNotFound
	Find(ctx context.Context, sessionID string, now time.Time) (model.CartSnapshot, error)
	Upsert(ctx context.Context, snap model.CartSnapshot) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
