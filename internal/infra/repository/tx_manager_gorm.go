package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// txScope は呼ばれた分だけ tx 付きのリポジトリを作る
type txScope struct {
	tx *gorm.DB
}

func (s txScope) Orders() repo.OrderRepository         { return NewOrderGormRepository(s.tx) }
func (s txScope) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(s.tx) }
func (s txScope) MenuItems() repo.MenuItemRepository   { return NewMenuItemGormRepository(s.tx) }
func (s txScope) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(s.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txScope{tx: tx})
	})
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)
