package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// 受付できるステータスか
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerName    string          `gorm:"type:varchar(255);not null;index" json:"customer_name"`
	CustomerPhone   string          `gorm:"type:varchar(50);not null;index" json:"customer_phone"`
	CustomerAddress *string         `gorm:"type:text" json:"customer_address"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	// 冪等キーは注文したセッションの中で一意
	SessionID       string          `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_orders_session_idempotency,priority:1" json:"-"`
	IdempotencyKey  *string         `gorm:"type:varchar(255);uniqueIndex:idx_orders_session_idempotency,priority:2" json:"-"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
