package repository

import (
	"context"
	"strconv"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if err != nil {
		return model.Order{}, mapError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, mapError(err)
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	// 読んでから書くまでの間に他の管理者が変えていたら0件になる
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrConflict
}

// 見つからなければ found=false
func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, sessionID, key string) (model.Order, bool, error) {
	var o model.Order
	res := r.db.WithContext(ctx).
		Where("session_id = ? AND idempotency_key = ?", sessionID, key).
		Limit(1).
		Find(&o)
	if res.Error != nil {
		return model.Order{}, false, res.Error
	}
	return o, res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	q = matchingCustomer(withStatus(q, f.Status), f.Q)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	limit, offset := f.Window()
	orders := []model.Order{}
	if err := newestFirst(q).Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}

func withStatus(q *gorm.DB, status string) *gorm.DB {
	if status == "" {
		return q
	}
	return q.Where("status = ?", status)
}

// 名前は大文字小文字を無視、電話は部分一致、数字だけなら注文IDも見る
func matchingCustomer(q *gorm.DB, raw string) *gorm.DB {
	term := strings.TrimSpace(raw)
	if term == "" {
		return q
	}
	name := "%" + strings.ToLower(term) + "%"
	phone := "%" + term + "%"
	if id, err := strconv.ParseInt(term, 10, 64); err == nil {
		return q.Where("(LOWER(customer_name) LIKE ? OR customer_phone LIKE ? OR id = ?)", name, phone, id)
	}
	return q.Where("(LOWER(customer_name) LIKE ? OR customer_phone LIKE ?)", name, phone)
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("created_at desc").Order("id desc")
}

// 新しい順
func (r *OrderGormRepository) Recent(ctx context.Context, limit int) ([]model.Order, error) {
	orders := []model.Order{}
	if err := newestFirst(r.db.WithContext(ctx)).Limit(limit).Find(&orders).Error; err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

// status が nil なら全件
func (r *OrderGormRepository) Count(ctx context.Context, status *model.OrderStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

var _ repo.OrderRepository = (*OrderGormRepository)(nil)
