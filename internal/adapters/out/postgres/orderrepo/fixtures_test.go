package orderrepo_test

import (
	"testing"
	"time"

	"pharmacy/internal/adapters/out/postgres/orderrepo"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

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

	require.NoError(t, db.AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.OrderSequenceDTO{}))
	return db
}

func newOrder(t *testing.T, sequence int64, at time.Time) *order.Order {
	t.Helper()

	item, err := order.NewItem("SKU-AMOX-250", "Amoxicillin 250mg", 2, decimal.RequireFromString("64.25"))
	require.NoError(t, err)
	items := []order.Item{item}

	point, err := kernel.NewGeoPoint(12.9352, 77.6245)
	require.NoError(t, err)
	address, err := order.NewAddress("80 Feet Road, Koramangala", "Bengaluru", "560034", &point)
	require.NoError(t, err)

	totals, err := order.ComputeTotals(items, decimal.NewFromInt(56), decimal.RequireFromString("0.05"))
	require.NoError(t, err)

	distance := 5.12
	o, err := order.NewOrder(kernel.NewUUID(), order.CategoryPrescription, kernel.NewUUID(),
		items, address, totals, order.NewDeliverySnapshot(&distance, true), at)
	require.NoError(t, err)

	number, err := order.NewNumber(order.CategoryPrescription, at, sequence)
	require.NoError(t, err)
	require.NoError(t, o.AssignNumber(number))

	return o
}
