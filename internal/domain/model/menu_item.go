package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL    *string         `gorm:"type:text" json:"image_url"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	IsAvailable bool            `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
}
