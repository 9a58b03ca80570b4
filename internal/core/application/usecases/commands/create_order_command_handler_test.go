package commands_test

import (
	"errors"
	"math"
	"testing"

	"pharmacy/internal/core/application/usecases/commands"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/core/domain/services"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCalculator(t *testing.T) *services.DeliveryFeeCalculator {
	t.Helper()
	central, err := kernel.NewGeoPoint(12.9716, 77.5946)
	require.NoError(t, err)

	pricing, err := services.NewPricing(central,
		decimal.NewFromInt(50), decimal.NewFromInt(8), decimal.NewFromInt(500), 50)
	require.NoError(t, err)
	return services.NewDeliveryFeeCalculator(pricing, nil)
}

func newCreateCommand(t *testing.T, id kernel.UUID, point *kernel.GeoPoint) commands.CreateOrderCommand {
	t.Helper()
	cmd, err := commands.NewCreateOrderCommand(id, order.CategoryMedicine, kernel.NewUUID(), testItems(t), testAddress(t, point))
	require.NoError(t, err)
	return cmd
}

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()

	f.repo.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("order", id)).Once()
	f.sequence.On("Next", mock.Anything, order.CategoryMedicine).Return(int64(42), nil).Once()
	f.repo.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()
	f.uow.On("Commit", mock.Anything).Return(nil).Once()
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e ports.OrderEvent) bool {
		return e.Type == ports.OrderCreated && e.OrderID == id.String() && e.PaymentStatus == "pending"
	})).Return(nil).Once()

	h := commands.NewCreateOrderCommandHandler(f.rt, newCalculator(t), decimal.RequireFromString("0.05"))
	o, err := h.Handle(ctx, newCreateCommand(t, id, nil))
	require.NoError(t, err)

	assert.Equal(t, "MED-20250314-000042", o.Number().String())
	assert.Equal(t, order.Pending, o.Status())
	assert.Equal(t, payment.Pending, o.Payment().Status())
	assert.Equal(t, "90", o.Totals().Subtotal().String())
	assert.Equal(t, "50", o.Totals().DeliveryCharges().String())
	assert.Equal(t, "4.5", o.Totals().Tax().String())
	assert.Equal(t, "144.5", o.Totals().Total().String())
	assert.Nil(t, o.Delivery().DistanceKm())
	f.assertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_ExistingOrderIsReturned(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()
	existing := pendingOrder(t, id)()

	f.repo.On("Get", mock.Anything, id).Return(existing, nil).Once()

	h := commands.NewCreateOrderCommandHandler(f.rt, newCalculator(t), decimal.RequireFromString("0.05"))
	o, err := h.Handle(ctx, newCreateCommand(t, id, nil))
	require.NoError(t, err)

	assert.Same(t, existing, o)
	f.repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	f.sequence.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_NotServiceable(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()

	// roughly 70 km north of the dispatch point
	far, err := kernel.NewGeoPoint(12.9716+70/(kernel.EarthRadiusKm*math.Pi/180), 77.5946)
	require.NoError(t, err)

	f.repo.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("order", id)).Once()

	h := commands.NewCreateOrderCommandHandler(f.rt, newCalculator(t), decimal.RequireFromString("0.05"))
	_, err = h.Handle(ctx, newCreateCommand(t, id, &far))
	require.Error(t, err)

	var notServiceable *errs.NotServiceableError
	require.ErrorAs(t, err, &notServiceable)
	require.NotNil(t, notServiceable.DistanceKm)
	assert.InDelta(t, 70, *notServiceable.DistanceKm, 0.01)
	f.repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	f.sequence.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_DuplicateNumberIsRetried(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()

	f.repo.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("order", id)).Twice()
	f.sequence.On("Next", mock.Anything, order.CategoryMedicine).Return(int64(1), nil).Once()
	f.sequence.On("Next", mock.Anything, order.CategoryMedicine).Return(int64(2), nil).Once()
	f.repo.On("Add", mock.Anything, mock.Anything).
		Return(errs.NewConflictError("order", "MED-20250314-000001", 0)).Once()
	f.repo.On("Add", mock.Anything, mock.Anything).Return(nil).Once()
	f.uow.On("Commit", mock.Anything).Return(nil).Once()
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()

	h := commands.NewCreateOrderCommandHandler(f.rt, newCalculator(t), decimal.RequireFromString("0.05"))
	o, err := h.Handle(ctx, newCreateCommand(t, id, nil))
	require.NoError(t, err)

	assert.Equal(t, "MED-20250314-000002", o.Number().String())
	f.assertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_NotifierFailureIsNotFatal(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()

	f.repo.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("order", id)).Once()
	f.sequence.On("Next", mock.Anything, order.CategoryMedicine).Return(int64(3), nil).Once()
	f.repo.On("Add", mock.Anything, mock.Anything).Return(nil).Once()
	f.uow.On("Commit", mock.Anything).Return(nil).Once()
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	h := commands.NewCreateOrderCommandHandler(f.rt, newCalculator(t), decimal.RequireFromString("0.05"))
	o, err := h.Handle(ctx, newCreateCommand(t, id, nil))
	require.NoError(t, err)
	assert.NotNil(t, o)
	f.assertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	f := newFixture()

	h := commands.NewCreateOrderCommandHandler(f.rt, newCalculator(t), decimal.Zero)
	_, err := h.Handle(ctx, commands.CreateOrderCommand{})
	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
	f.factory.AssertNotCalled(t, "Create")
}

func TestCreateOrderCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	uow := new(MockUnitOfWork)
	uow.On("Begin", mock.Anything).Return(errors.New("begin error")).Once()
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(commands.Runtime{UoWFactory: factory}, newCalculator(t), decimal.Zero)
	_, err := h.Handle(ctx, newCreateCommand(t, kernel.NewUUID(), nil))
	require.EqualError(t, err, "begin error")
	uow.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_CommitError(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()

	f.repo.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("order", id)).Once()
	f.sequence.On("Next", mock.Anything, order.CategoryMedicine).Return(int64(1), nil).Once()
	f.repo.On("Add", mock.Anything, mock.Anything).Return(nil).Once()
	f.uow.On("Commit", mock.Anything).Return(errors.New("commit error")).Once()

	h := commands.NewCreateOrderCommandHandler(f.rt, newCalculator(t), decimal.Zero)
	_, err := h.Handle(ctx, newCreateCommand(t, id, nil))
	require.EqualError(t, err, "commit error")
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}
