package model

import "time"

type Role string

// 今は管理者ロールだけ
const RoleAdmin Role = "ADMIN"

// User は管理画面にログインする店舗スタッフ。
// TokenVersion を上げるとそれまでに発行したアクセストークンが失効する。
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	Email        string     `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'ADMIN'"`
	TokenVersion int        `gorm:"not null;default:0"`
	IsActive     bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanSignIn は管理画面に入れる状態か
func (u *User) CanSignIn() bool {
	return u.IsActive && u.Role == RoleAdmin
}

// Accepts はトークンのtvがまだ有効か
func (u *User) Accepts(tokenVersion int) bool {
	return u.IsActive && u.TokenVersion == tokenVersion
}
