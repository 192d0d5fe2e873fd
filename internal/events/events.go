package events

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

const (
	OrderPlacedQueue        = "order.placed"
	OrderStatusChangedQueue = "order.status_changed"
)

type OrderPlacedItem struct {
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type OrderPlaced struct {
	OrderID       int64             `json:"orderId"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	Status        string            `json:"status"`
	Items         []OrderPlacedItem `json:"items"`
}

type OrderStatusChanged struct {
	OrderID     int64  `json:"orderId"`
	From        string `json:"from"`
	To          string `json:"to"`
	ActorUserID int64  `json:"actorUserId"`
}

// 注文イベントの送り先
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
	PublishOrderStatusChanged(ctx context.Context, ev OrderStatusChanged) error
}

// 送らない
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (NopPublisher) PublishOrderStatusChanged(context.Context, OrderStatusChanged) error {
	return nil
}

// 複数の送り先に順番に送る。失敗はまとめて返す。
type multiPublisher []Publisher

func Multi(pubs ...Publisher) Publisher {
	return multiPublisher(pubs)
}

func (m multiPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishOrderPlaced(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiPublisher) PublishOrderStatusChanged(ctx context.Context, ev OrderStatusChanged) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishOrderStatusChanged(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
