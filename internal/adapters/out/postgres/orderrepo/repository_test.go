package orderrepo_test

import (
	"testing"
	"time"

	"pharmacy/internal/adapters/out/postgres/orderrepo"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrderRepository_AddAndGet(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))
	o := newOrder(t, 1, baseTime)

	update, err := payment.NewStatusUpdate(payment.Processing, payment.SourceWebhook, map[string]any{"gateway": "razorpay"}, "1001")
	require.NoError(t, err)
	_, err = o.ApplyPaymentUpdate(update, baseTime.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, o.RecordPaymentAttempt(
		payment.NewAttempt(map[string]any{"method": "upi"}, payment.Processing, "", baseTime), baseTime))

	require.NoError(t, repo.Add(ctx, o))

	got, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)

	assert.True(t, got.IsEqual(o))
	assert.Equal(t, o.Number(), got.Number())
	assert.Equal(t, order.CategoryPrescription, got.Category())
	assert.True(t, o.CustomerID().IsEqual(got.CustomerID()))
	assert.Equal(t, order.Pending, got.Status())
	assert.Equal(t, int64(0), got.Version())
	assert.True(t, o.CreatedAt().Equal(got.CreatedAt()))

	require.Len(t, got.Items(), 1)
	assert.Equal(t, "SKU-AMOX-250", got.Items()[0].SKU())
	assert.True(t, got.Items()[0].UnitPrice().Equal(o.Items()[0].UnitPrice()))

	assert.True(t, got.Totals().Total().Equal(o.Totals().Total()))
	assert.True(t, got.Totals().Tax().Equal(o.Totals().Tax()))
	require.NoError(t, got.VerifyTotals())

	require.NotNil(t, got.Address().Point())
	assert.InDelta(t, 12.9352, got.Address().Point().Lat(), 1e-9)
	require.NotNil(t, got.Delivery().DistanceKm())
	assert.InDelta(t, 5.12, *got.Delivery().DistanceKm(), 1e-9)
	assert.True(t, got.Delivery().Estimated())

	record := got.Payment()
	assert.Equal(t, payment.Processing, record.Status())
	assert.Equal(t, "1001", record.LastWebhookID())
	require.NotNil(t, record.LastWebhookAt())
	history := record.History()
	require.Len(t, history, 2)
	assert.Equal(t, payment.SourceWebhook, history[1].Source())
	assert.Equal(t, "razorpay", history[1].Metadata()["gateway"])
	require.Len(t, record.Attempts(), 1)
	assert.Equal(t, "upi", record.Attempts()[0].Request()["method"])
}

func TestGormOrderRepository_Add_DuplicateNumber(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))

	require.NoError(t, repo.Add(ctx, newOrder(t, 7, baseTime)))

	err := repo.Add(ctx, newOrder(t, 7, baseTime))

	var conflict *errs.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "order", conflict.Aggregate)
}

func TestGormOrderRepository_Add_RequiresNumber(t *testing.T) {
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))
	o := newOrder(t, 1, baseTime)
	restored, err := order.RestoreOrder(order.RestoreParams{
		ID:         o.ID(),
		Category:   o.Category(),
		CustomerID: o.CustomerID(),
		Items:      o.Items(),
		Address:    o.Address(),
		Status:     o.Status(),
		Payment:    o.Payment(),
		Totals:     o.Totals(),
	})
	require.NoError(t, err)

	require.ErrorIs(t, repo.Add(t.Context(), restored), errs.ErrValueIsRequired)
}

func TestGormOrderRepository_Update_OptimisticVersion(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))
	o := newOrder(t, 1, baseTime)
	require.NoError(t, repo.Add(ctx, o))

	first, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)

	require.NoError(t, first.Advance(order.Confirmed, baseTime.Add(time.Hour)))
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(1), first.Version())

	require.NoError(t, second.Cancel("duplicate", "customer", baseTime.Add(time.Hour)))
	err = repo.Update(ctx, second)

	var conflict *errs.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(0), conflict.ExpectedVersion)
	assert.Equal(t, int64(0), second.Version())

	stored, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, stored.Status())
	assert.Equal(t, payment.Pending, stored.Payment().Status())
	assert.Nil(t, stored.Cancellation())
	assert.Equal(t, int64(1), stored.Version())
	assert.True(t, stored.UpdatedAt().Equal(baseTime.Add(time.Hour)))
}

func TestGormOrderRepository_Update_PersistsCancellation(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))
	o := newOrder(t, 1, baseTime)
	require.NoError(t, repo.Add(ctx, o))

	require.NoError(t, o.Cancel("found cheaper", "customer", baseTime.Add(time.Minute)))
	require.NoError(t, repo.Update(ctx, o))

	stored, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, stored.Status())
	require.NotNil(t, stored.Cancellation())
	assert.Equal(t, "found cheaper", stored.Cancellation().Reason())
	assert.Equal(t, "customer", stored.Cancellation().Actor())
	assert.Equal(t, payment.Failed, stored.Payment().Status())
	assert.Equal(t, "order_cancelled", stored.Payment().History()[1].Metadata()["cause"])
}

func TestGormOrderRepository_Update_KeepsOrderNumber(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))
	o := newOrder(t, 1, baseTime)
	require.NoError(t, repo.Add(ctx, o))

	other := newOrder(t, 99, baseTime)
	impostor, err := order.RestoreOrder(order.RestoreParams{
		ID:         o.ID(),
		Number:     other.Number(),
		Category:   o.Category(),
		CustomerID: o.CustomerID(),
		Items:      o.Items(),
		Address:    o.Address(),
		Status:     order.Confirmed,
		Payment:    o.Payment(),
		Totals:     o.Totals(),
		CreatedAt:  baseTime.Add(time.Hour),
		UpdatedAt:  baseTime.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, impostor))

	stored, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, o.Number(), stored.Number())
	assert.True(t, stored.CreatedAt().Equal(baseTime))
	assert.Equal(t, order.Confirmed, stored.Status())
}

func TestGormOrderRepository_Update_NotFound(t *testing.T) {
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))

	err := repo.Update(t.Context(), newOrder(t, 1, baseTime))

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestGormOrderRepository_Get_NotFound(t *testing.T) {
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))

	_, err := repo.Get(t.Context(), newOrder(t, 1, baseTime).ID())

	var notFound *errs.ObjectNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "order", notFound.ParamName)
}

func TestGormOrderRepository_GetAllUpdatedSince(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(openSQLite(t))

	old := newOrder(t, 1, baseTime.Add(-48*time.Hour))
	recent := newOrder(t, 2, baseTime.Add(time.Hour))
	newest := newOrder(t, 3, baseTime.Add(2*time.Hour))
	for _, o := range []*order.Order{newest, old, recent} {
		require.NoError(t, repo.Add(ctx, o))
	}

	got, err := repo.GetAllUpdatedSince(ctx, baseTime, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsEqual(recent))
	assert.True(t, got[1].IsEqual(newest))

	limited, err := repo.GetAllUpdatedSince(ctx, time.Time{}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.True(t, limited[0].IsEqual(old))

	_, err = repo.GetAllUpdatedSince(ctx, baseTime, 0)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestGormOrderNumberSequence_Next(t *testing.T) {
	ctx := t.Context()
	seq := orderrepo.NewGormOrderNumberSequence(openSQLite(t))

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, order.CategoryMedicine)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	lab, err := seq.Next(ctx, order.CategoryLabTest)
	require.NoError(t, err)
	assert.Equal(t, int64(1), lab)

	_, err = seq.Next(ctx, order.Category("toys"))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
