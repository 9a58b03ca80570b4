package queries_test

import (
	"context"
	"testing"
	"time"

	"pharmacy/internal/adapters/out/postgres"
	"pharmacy/internal/adapters/out/postgres/orderrepo"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, postgres.Migrate(db))
	return db
}

func buildOrder(t *testing.T, category order.Category, sequence int64, createdAt time.Time) *order.Order {
	t.Helper()

	item, err := order.NewItem("SKU-CETI-10", "Cetirizine 10mg", 3, decimal.RequireFromString("22.50"))
	require.NoError(t, err)
	items := []order.Item{item}

	address, err := order.NewAddress("4th Cross, Indiranagar", "Bengaluru", "560038", nil)
	require.NoError(t, err)

	totals, err := order.ComputeTotals(items, decimal.NewFromInt(50), decimal.RequireFromString("0.05"))
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), category, kernel.NewUUID(), items, address, totals,
		order.NewDeliverySnapshot(nil, false), createdAt)
	require.NoError(t, err)

	number, err := order.NewNumber(category, createdAt, sequence)
	require.NoError(t, err)
	require.NoError(t, o.AssignNumber(number))
	return o
}

func saveOrders(ctx context.Context, t *testing.T, db *gorm.DB, orders ...*order.Order) {
	t.Helper()
	repo := orderrepo.NewGormOrderRepository(db)
	for _, o := range orders {
		require.NoError(t, repo.Add(ctx, o))
	}
}
