package commands_test

import (
	"context"
	"testing"
	"time"

	"pharmacy/internal/core/application/usecases/commands"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// Get accepts either an *order.Order or a func() *order.Order as the first return value.
// The func form hands out a fresh aggregate per call, which retry tests rely on.
func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func() *order.Order); ok {
		return fn(), args.Error(1)
	}
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetAllUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, since, limit)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockOrderNumberSequence struct{ mock.Mock }

func (m *MockOrderNumberSequence) Next(ctx context.Context, category order.Category) (int64, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(int64), args.Error(1)
}

type MockUnitOfWork struct{ mock.Mock }

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUnitOfWork) OrderNumberSequence() ports.OrderNumberSequence {
	args := m.Called()
	return args.Get(0).(ports.OrderNumberSequence)
}

type MockUnitOfWorkFactory struct{ mock.Mock }

func (m *MockUnitOfWorkFactory) Create() ports.UnitOfWork {
	args := m.Called()
	return args.Get(0).(ports.UnitOfWork)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, event ports.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockOrderLocker struct{ mock.Mock }

func (m *MockOrderLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	args := m.Called(ctx, key)
	unlock, _ := args.Get(0).(func(context.Context) error)
	return unlock, args.Error(1)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) Initiate(ctx context.Context, req ports.PaymentRequest) (ports.PaymentSession, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.PaymentSession), args.Error(1)
}

// fixture wires a runtime whose every unit of work shares the same repository mock.
type fixture struct {
	repo     *MockOrderRepository
	sequence *MockOrderNumberSequence
	uow      *MockUnitOfWork
	factory  *MockUnitOfWorkFactory
	notifier *MockNotifier
	rt       commands.Runtime
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockOrderRepository),
		sequence: new(MockOrderNumberSequence),
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		notifier: new(MockNotifier),
	}

	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Rollback", mock.Anything).Return(nil).Maybe()
	f.uow.On("OrderRepository").Return(f.repo)
	f.uow.On("OrderNumberSequence").Return(f.sequence).Maybe()

	f.rt = commands.Runtime{
		UoWFactory: f.factory,
		Notifier:   f.notifier,
		Clock:      func() time.Time { return testNow },
	}
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.repo.AssertExpectations(t)
	f.sequence.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func testItems(t *testing.T) []order.Item {
	t.Helper()
	item, err := order.NewItem("PARA-500", "Paracetamol 500mg", 2, decimal.NewFromInt(45))
	require.NoError(t, err)
	return []order.Item{item}
}

func testAddress(t *testing.T, point *kernel.GeoPoint) order.Address {
	t.Helper()
	address, err := order.NewAddress("12 MG Road", "Bengaluru", "560001", point)
	require.NoError(t, err)
	return address
}

// pendingOrder returns a factory of identical, freshly built pending orders.
func pendingOrder(t *testing.T, id kernel.UUID) func() *order.Order {
	t.Helper()
	items := testItems(t)
	address := testAddress(t, nil)

	return func() *order.Order {
		totals, err := order.ComputeTotals(items, decimal.NewFromInt(50), decimal.RequireFromString("0.05"))
		require.NoError(t, err)

		o, err := order.NewOrder(id, order.CategoryMedicine, kernel.NewUUID(), items, address, totals,
			order.NewDeliverySnapshot(nil, false), testNow.Add(-time.Hour))
		require.NoError(t, err)

		number, err := order.NewNumber(order.CategoryMedicine, testNow, 7)
		require.NoError(t, err)
		require.NoError(t, o.AssignNumber(number))
		return o
	}
}
