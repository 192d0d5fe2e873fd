package db

import (
	"fmt"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(DSN(cfg)), Options(cfg))
}

// DATABASE_URL があれば最優先で使う
func DSN(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresSSLMode,
	)
}

// 一意制約違反を gorm.ErrDuplicatedKey に変換させる
func Options(cfg config.Config) *gorm.Config {
	level := logger.Warn
	if !cfg.IsProd() {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

// 冪等キーだけの古い一意制約（セッション単位に変えた）
const legacyIdempotencyIndex = "idx_orders_idempotency_key"

// テーブル作成
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.MenuItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.CartSnapshot{},
		&model.AuditLog{},
	); err != nil {
		return err
	}

	m := db.Migrator()
	if m.HasIndex(&model.Order{}, legacyIdempotencyIndex) {
		return m.DropIndex(&model.Order{}, legacyIdempotencyIndex)
	}
	return nil
}
