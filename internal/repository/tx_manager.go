package repository

import "context"

// TxRepos は同じトランザクションに乗ったリポジトリ。
// fn の外に持ち出さないこと（commit後は使えない）。
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	MenuItems() MenuItemRepository
	AuditLogs() AuditLogRepository
}

// TransactionManager は fn がエラーを返せばrollback、nilならcommitする。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
