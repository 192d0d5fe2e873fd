package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の名前と単価を残す
type OrderItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64           `gorm:"not null;index" json:"order_id"`
	MenuItemID   int64           `gorm:"not null;index" json:"menu_item_id"`
	NameSnapshot string          `gorm:"type:varchar(255);not null;default:''" json:"name_snapshot"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
