package commands_test

import (
	"errors"
	"testing"

	"pharmacy/internal/core/application/usecases/commands"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInitiatePaymentCommandHandler_Handle(t *testing.T) {
	tests := []struct {
		name          string
		session       ports.PaymentSession
		gatewayErr    error
		wantErr       error
		wantStatus    payment.Status
		wantOutcome   payment.Outcome
		wantAttempt   payment.Status
		wantPublished bool
	}{
		{
			name:          "accepted session moves payment to processing",
			session:       ports.PaymentSession{Reference: "pay_123", RedirectURL: "https://pay.example/123", Accepted: true},
			wantStatus:    payment.Processing,
			wantOutcome:   payment.OutcomeApplied,
			wantAttempt:   payment.Processing,
			wantPublished: true,
		},
		{
			name:          "declined session fails the payment",
			session:       ports.PaymentSession{Reference: "pay_124", Reason: "card declined"},
			wantStatus:    payment.Failed,
			wantOutcome:   payment.OutcomeApplied,
			wantAttempt:   payment.Failed,
			wantPublished: true,
		},
		{
			name:        "transport error only records the attempt",
			gatewayErr:  errors.New("connection reset"),
			wantErr:     errs.ErrExternalService,
			wantStatus:  payment.Pending,
			wantAttempt: payment.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			f := newFixture()
			id := kernel.NewUUID()
			gateway := new(MockPaymentGateway)

			var stored *order.Order
			f.repo.On("Get", mock.Anything, id).Return(pendingOrder(t, id), nil).Twice()
			f.repo.On("Update", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { stored = args.Get(1).(*order.Order) }).
				Return(nil).Once()
			f.uow.On("Commit", mock.Anything).Return(nil).Once()
			gateway.On("Initiate", mock.Anything, mock.MatchedBy(func(req ports.PaymentRequest) bool {
				return req.OrderID == id && req.Amount.String() == "144.5" && req.Currency == "INR" && req.Method == "upi" &&
					req.IdempotencyKey == id.String()+":1"
			})).Return(tt.session, tt.gatewayErr).Once()
			if tt.wantPublished {
				f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e ports.OrderEvent) bool {
					return e.Type == ports.PaymentStatusChanged
				})).Return(nil).Once()
			}

			cmd, err := commands.NewInitiatePaymentCommand(id, " UPI ")
			require.NoError(t, err)

			result, err := commands.NewInitiatePaymentCommandHandler(f.rt, gateway, "").Handle(ctx, cmd)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.session, result.Session)
				assert.Equal(t, tt.wantOutcome, result.Outcome)
			}

			require.NotNil(t, stored)
			assert.Equal(t, tt.wantStatus, stored.Payment().Status())
			attempts := stored.Payment().Attempts()
			require.Len(t, attempts, 1)
			assert.Equal(t, tt.wantAttempt, attempts[0].ResultStatus())
			assert.Equal(t, "upi", attempts[0].Request()["method"])
			f.assertExpectations(t)
			gateway.AssertExpectations(t)
		})
	}
}

func TestInitiatePaymentCommandHandler_Handle_RefusesCancelledOrder(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()
	gateway := new(MockPaymentGateway)

	cancelled := pendingOrder(t, id)()
	require.NoError(t, cancelled.Cancel("", "customer", testNow))
	f.repo.On("Get", mock.Anything, id).Return(cancelled, nil).Once()

	cmd, err := commands.NewInitiatePaymentCommand(id, "card")
	require.NoError(t, err)

	_, err = commands.NewInitiatePaymentCommandHandler(f.rt, gateway, "INR").Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrStateViolation)
	gateway.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestInitiatePaymentCommandHandler_Handle_RefusesPaidOrder(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()
	gateway := new(MockPaymentGateway)

	paid := pendingOrder(t, id)()
	update, err := payment.NewStatusUpdate(payment.Paid, payment.SourceAdmin, nil, "")
	require.NoError(t, err)
	_, err = paid.ApplyPaymentUpdate(update, testNow)
	require.NoError(t, err)
	f.repo.On("Get", mock.Anything, id).Return(paid, nil).Once()

	cmd, err := commands.NewInitiatePaymentCommand(id, "card")
	require.NoError(t, err)

	_, err = commands.NewInitiatePaymentCommandHandler(f.rt, gateway, "INR").Handle(ctx, cmd)
	var refused *errs.StateViolationError
	require.ErrorAs(t, err, &refused)
	assert.Equal(t, "paid", refused.State)
	gateway.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
}

func TestInitiatePaymentCommandHandler_Handle_RetryUsesFreshIdempotencyKey(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()
	gateway := new(MockPaymentGateway)

	declinedOnce := func() *order.Order {
		o := pendingOrder(t, id)()
		require.NoError(t, o.RecordPaymentAttempt(payment.NewAttempt(map[string]any{"method": "card"}, payment.Failed, "card declined", testNow), testNow))
		update, err := payment.NewStatusUpdate(payment.Failed, payment.SourceUser, nil, "")
		require.NoError(t, err)
		_, err = o.ApplyPaymentUpdate(update, testNow)
		require.NoError(t, err)
		return o
	}

	f.repo.On("Get", mock.Anything, id).Return(declinedOnce, nil).Twice()
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	f.uow.On("Commit", mock.Anything).Return(nil).Once()
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()
	gateway.On("Initiate", mock.Anything, mock.MatchedBy(func(req ports.PaymentRequest) bool {
		return req.IdempotencyKey == id.String()+":2"
	})).Return(ports.PaymentSession{Reference: "pay_200", Accepted: true}, nil).Once()

	cmd, err := commands.NewInitiatePaymentCommand(id, "upi")
	require.NoError(t, err)

	result, err := commands.NewInitiatePaymentCommandHandler(f.rt, gateway, "").Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, payment.Processing, result.Order.Payment().Status())
	require.Len(t, result.Order.Payment().Attempts(), 2)
	assert.Equal(t, id.String()+":2", result.Order.Payment().Attempts()[1].Request()["idempotency_key"])
	f.assertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestInitiatePaymentCommandHandler_Handle_OrderCancelledDuringGatewayCall(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	id := kernel.NewUUID()
	gateway := new(MockPaymentGateway)

	cancelled := pendingOrder(t, id)()
	require.NoError(t, cancelled.Cancel("", "customer", testNow))
	paymentBefore := cancelled.Payment().Status()

	var stored *order.Order
	f.repo.On("Get", mock.Anything, id).Return(pendingOrder(t, id), nil).Once()
	f.repo.On("Get", mock.Anything, id).Return(cancelled, nil).Once()
	f.repo.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*order.Order) }).
		Return(nil).Once()
	f.uow.On("Commit", mock.Anything).Return(nil).Once()
	gateway.On("Initiate", mock.Anything, mock.Anything).
		Return(ports.PaymentSession{Reference: "pay_300", Accepted: true}, nil).Once()

	cmd, err := commands.NewInitiatePaymentCommand(id, "card")
	require.NoError(t, err)

	result, err := commands.NewInitiatePaymentCommandHandler(f.rt, gateway, "").Handle(ctx, cmd)
	var refused *errs.StateViolationError
	require.ErrorAs(t, err, &refused)
	assert.Equal(t, "cancelled", refused.State)
	assert.Equal(t, "pay_300", result.Session.Reference)

	require.NotNil(t, stored)
	assert.Equal(t, order.Cancelled, stored.Status())
	assert.Equal(t, paymentBefore, stored.Payment().Status())
	attempts := stored.Payment().Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, payment.Processing, attempts[0].ResultStatus())

	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.assertExpectations(t)
	gateway.AssertExpectations(t)
}
