package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"
	"storefront/internal/events"
	"storefront/internal/messaging"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	publisher events.Publisher
	logger    cart.Logger
	handoff   HandoffConfig
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	publisher events.Publisher,
	logger cart.Logger,
	handoff HandoffConfig,
) *AdminOrderUsecase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = discardLogger{}
	}
	return &AdminOrderUsecase{tx: tx, publisher: publisher, logger: logger, handoff: handoff}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧（新しい順）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > repo.MaxAdminOrderLimit {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	f.Status = strings.TrimSpace(f.Status)
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	f.Q = strings.TrimSpace(f.Q)
	if len(f.Q) > maxQueryLength {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	out := AdminOrderListOutput{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return dbError(err)
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return dbError(err)
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError(err)
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return dbError(err)
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ステータス更新（pending からだけ変えられる）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out     OrderOutput
		before  model.OrderStatus
		changed bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError(err)
		}
		before = o.Status

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return dbError(err)
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}
		// 終端ガード
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "cannot change "+string(o.Status)+" order")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			switch err {
			case repo.ErrNotFound:
				return NewHTTPError(http.StatusNotFound, "not found")
			case repo.ErrConflict:
				// 同時に別の管理者が確定させた
				return NewHTTPError(http.StatusConflict, "order status changed")
			}
			return dbError(err)
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   toJSON(map[string]string{"status": string(before)}),
			AfterJSON:    toJSON(map[string]string{"status": string(newStatus)}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return dbError(err)
		}

		o.Status = newStatus
		out = toOrderOutput(o, items)
		changed = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed {
		ev := events.OrderStatusChanged{
			OrderID:     orderID,
			From:        string(before),
			To:          string(newStatus),
			ActorUserID: actorAdminUserID,
		}
		if err := u.publisher.PublishOrderStatusChanged(ctx, ev); err != nil {
			u.logger.Warnf("order %d: publish order.status_changed failed: %v", orderID, err)
		}
	}
	return out, nil
}

type OrderWhatsAppOutput struct {
	URL string `json:"whatsapp_url"`
	PNG []byte `json:"-"`
}

// 既存の注文をもう一度WhatsAppで送るためのリンクとQR
func (u *AdminOrderUsecase) WhatsApp(ctx context.Context, orderID int64) (OrderWhatsAppOutput, error) {
	o, err := u.Detail(ctx, orderID)
	if err != nil {
		return OrderWhatsAppOutput{}, err
	}

	link := u.handoff.link(o)
	png, err := messaging.QRCodePNG(link)
	if err != nil {
		return OrderWhatsAppOutput{}, NewHTTPError(http.StatusInternalServerError, "qr error")
	}
	return OrderWhatsAppOutput{URL: link, PNG: png}, nil
}
