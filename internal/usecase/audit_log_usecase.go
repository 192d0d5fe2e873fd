package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

// GET /admin/audit-logs のクエリ（期間はRFC3339）
type AuditLogListInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         string
	To           string
	Limit        int
	Offset       int
}

// 新しい順
func (u *AuditLogUsecase) List(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	if in.Limit == 0 {
		in.Limit = repo.DefaultAuditLogLimit
	}
	if in.Limit < 1 || in.Limit > repo.MaxAuditLogLimit {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(a)
		f.Action = &action
	}
	if rt := strings.TrimSpace(in.ResourceType); rt != "" {
		resource := model.AuditResourceType(rt)
		f.ResourceType = &resource
	}

	var ok bool
	if strings.TrimSpace(in.From) != "" {
		if f.Since, ok = parseDateTimeRFC3339(in.From); !ok {
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid from")
		}
	}
	if strings.TrimSpace(in.To) != "" {
		if f.Until, ok = parseDateTimeRFC3339(in.To); !ok {
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid to")
		}
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, dbError(err)
	}
	return logs, nil
}

// 期間パラメータ
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return &t, true
}
