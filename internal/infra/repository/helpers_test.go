package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// テストごとに別のインメモリDB
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedCategory(t *testing.T, gdb *gorm.DB, name string) model.Category {
	t.Helper()
	c, err := NewCategoryGormRepository(gdb).Create(context.Background(), model.Category{Name: name})
	require.NoError(t, err)
	return c
}

func seedMenuItem(t *testing.T, gdb *gorm.DB, categoryID int64, name string, price string, available bool) model.MenuItem {
	t.Helper()
	m, err := NewMenuItemGormRepository(gdb).Create(context.Background(), model.MenuItem{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		CategoryID:  categoryID,
		IsAvailable: available,
	})
	require.NoError(t, err)
	return m
}

func seedOrder(t *testing.T, gdb *gorm.DB, name string, phone string, status model.OrderStatus, createdAt time.Time) model.Order {
	t.Helper()
	o := model.Order{
		CustomerName:  name,
		CustomerPhone: phone,
		TotalAmount:   decimal.RequireFromString("10.00"),
		Status:        status,
		CreatedAt:     createdAt,
	}
	id, err := NewOrderGormRepository(gdb).Create(context.Background(), o)
	require.NoError(t, err)
	o.ID = id
	return o
}
