package model

import "time"

// 管理者の操作の種類
type AuditAction string

const (
	AuditActionCreateCategory    AuditAction = "CREATE_CATEGORY"
	AuditActionUpdateCategory    AuditAction = "UPDATE_CATEGORY"
	AuditActionDeleteCategory    AuditAction = "DELETE_CATEGORY"
	AuditActionCreateMenuItem    AuditAction = "CREATE_MENU_ITEM"
	AuditActionUpdateMenuItem    AuditAction = "UPDATE_MENU_ITEM"
	AuditActionDeleteMenuItem    AuditAction = "DELETE_MENU_ITEM"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceCategory AuditResourceType = "category"
	AuditResourceMenuItem AuditResourceType = "menu_item"
	AuditResourceOrder    AuditResourceType = "order"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//変更前後はJSON文字列で保存する
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
