package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

const (
	DefaultAuditLogLimit = 50
	MaxAuditLogLimit     = 200
)

// AuditLogFilter は監査ログの絞り込み。nil の条件は使わない。
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	Since        *time.Time
	Until        *time.Time
	Limit        int
	Offset       int
}

// Window は範囲外の limit/offset を既定値に丸める
func (f AuditLogFilter) Window() (limit int, offset int) {
	limit, offset = f.Limit, f.Offset
	if limit <= 0 || limit > MaxAuditLogLimit {
		limit = DefaultAuditLogLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// 監査ログは追記のみ（更新・削除はしない）
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
