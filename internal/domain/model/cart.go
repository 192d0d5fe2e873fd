package model

import "time"

// セッションごとのカート保存（Redisが無いときの保存先）
type CartSnapshot struct {
	SessionID string    `gorm:"primaryKey;type:varchar(64)" json:"session_id"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
