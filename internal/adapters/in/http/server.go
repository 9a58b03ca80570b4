package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"pharmacy/internal/core/application/usecases/commands"
	"pharmacy/internal/core/application/usecases/queries"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Handlers is every use case the HTTP API exposes.
type Handlers struct {
	CreateOrder           commands.CreateOrderCommandHandler
	CancelOrder           commands.CancelOrderCommandHandler
	AdvanceOrder          commands.AdvanceOrderCommandHandler
	ChangeDeliveryAddress commands.ChangeDeliveryAddressCommandHandler
	InitiatePayment       commands.InitiatePaymentCommandHandler
	UpdatePaymentStatus   commands.UpdatePaymentStatusCommandHandler
	ApplyPaymentWebhook   commands.ApplyPaymentWebhookCommandHandler

	GetOrder         queries.GetOrderQueryHandler
	ListActiveOrders queries.ListActiveOrdersQueryHandler
	QuoteDelivery    queries.QuoteDeliveryQueryHandler
	ValidateAddress  queries.ValidateAddressQueryHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

func NewServer(h Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{h: h, logger: logger.With("component", "http")}
}

// Register mounts the API and the request logger on e.
func (s *Server) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			s.logger.Log(c.Request().Context(), logLevelFor(v.Status), "request", attrs...)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	api := e.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/active", s.ListActiveOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/advance", s.AdvanceOrder)
	api.PUT("/orders/:id/address", s.ChangeDeliveryAddress)
	api.POST("/orders/:id/payments", s.InitiatePayment)
	api.POST("/orders/:id/payment-status", s.UpdatePaymentStatus)
	api.POST("/webhooks/payments", s.PaymentWebhook)
	api.POST("/delivery/quote", s.QuoteDelivery)
	api.POST("/addresses/validate", s.ValidateAddress)
}

// CreateOrder handles POST /api/v1/orders. A missing order_id is generated; clients that
// retry checkouts should send their own.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req NewOrder
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	orderID := kernel.NewUUID()
	if req.OrderID != "" {
		id, err := kernel.UUIDFromString(req.OrderID)
		if err != nil {
			return s.fail(ctx, err)
		}
		orderID = id
	}

	category, err := order.ParseCategory(req.Category)
	if err != nil {
		return s.fail(ctx, err)
	}
	customerID, err := kernel.UUIDFromString(req.CustomerID)
	if err != nil {
		return s.fail(ctx, errs.NewValueIsInvalidErrorWithCause("customer_id", err))
	}
	items, err := itemsToDomain(req.Items)
	if err != nil {
		return s.fail(ctx, err)
	}
	address, err := req.Address.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, category, customerID, items, address)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, orderFromDomain(o))
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	id, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	m, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderFromReadModel(m))
}

// ListActiveOrders handles GET /api/v1/orders/active?limit=N.
func (s *Server) ListActiveOrders(ctx echo.Context) error {
	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(ctx, "limit must be an integer")
		}
		limit = n
	}

	query, err := queries.NewListActiveOrdersQuery(limit)
	if err != nil {
		return s.fail(ctx, err)
	}

	orders, err := s.h.ListActiveOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]ActiveOrder, len(orders))
	for i, o := range orders {
		response[i] = ActiveOrder{
			ID:            o.ID.String(),
			Number:        o.Number,
			Category:      o.Category.String(),
			Status:        o.Status.String(),
			PaymentStatus: o.PaymentStatus.String(),
			Total:         money(o.Total),
			UpdatedAt:     o.UpdatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	id, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var req CancelOrder
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(id, req.Reason, req.Actor)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.CancelOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderFromDomain(o))
}

// AdvanceOrder handles POST /api/v1/orders/:id/advance.
func (s *Server) AdvanceOrder(ctx echo.Context) error {
	id, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var req AdvanceOrder
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewAdvanceOrderCommand(id, target)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.AdvanceOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderFromDomain(o))
}

// ChangeDeliveryAddress handles PUT /api/v1/orders/:id/address.
func (s *Server) ChangeDeliveryAddress(ctx echo.Context) error {
	id, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var req ChangeAddress
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	address, err := req.Address.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewChangeDeliveryAddressCommand(id, address)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.ChangeDeliveryAddress.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderFromDomain(o))
}

// InitiatePayment handles POST /api/v1/orders/:id/payments.
func (s *Server) InitiatePayment(ctx echo.Context) error {
	id, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var req InitiatePayment
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewInitiatePaymentCommand(id, req.Method)
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.h.InitiatePayment.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, InitiatePaymentResult{
		Session: PaymentSession{
			Reference:   result.Session.Reference,
			RedirectURL: result.Session.RedirectURL,
			Accepted:    result.Session.Accepted,
			Reason:      result.Session.Reason,
		},
		Result: result.Outcome.String(),
		Order:  orderFromDomain(result.Order),
	})
}

// UpdatePaymentStatus handles POST /api/v1/orders/:id/payment-status for user and admin
// changes. Gateway notifications are refused here.
func (s *Server) UpdatePaymentStatus(ctx echo.Context) error {
	id, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var req UpdatePaymentStatus
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	status, err := payment.ParseStatus(req.Status)
	if err != nil {
		return s.fail(ctx, err)
	}
	source, err := payment.ParseSource(req.Source)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewUpdatePaymentStatusCommand(id, status, source, req.Metadata)
	if err != nil {
		return s.fail(ctx, err)
	}

	outcome, err := s.h.UpdatePaymentStatus.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, ReconcileResult{Result: outcome.String(), Accepted: outcome.Accepted()})
}

// PaymentWebhook handles POST /api/v1/webhooks/payments. The body must carry order_id,
// webhook_id (or id) and status; the whole body is kept as history metadata.
// Stale and duplicate notifications answer 200 with result "ignored".
func (s *Server) PaymentWebhook(ctx echo.Context) error {
	dec := json.NewDecoder(ctx.Request().Body)
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return badRequest(ctx, "Invalid webhook body")
	}

	webhookID := payloadString(payload, "webhook_id")
	if webhookID == "" {
		webhookID = payloadString(payload, "id")
	}

	id, err := kernel.UUIDFromString(payloadString(payload, "order_id"))
	if err != nil {
		return s.fail(ctx, errs.NewValueIsInvalidErrorWithCause("order_id", err))
	}
	status, err := payment.ParseStatus(payloadString(payload, "status"))
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewApplyPaymentWebhookCommand(id, webhookID, status, payload)
	if err != nil {
		return s.fail(ctx, err)
	}

	outcome, err := s.h.ApplyPaymentWebhook.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, ReconcileResult{Result: outcome.String(), Accepted: outcome.Accepted()})
}

// QuoteDelivery handles POST /api/v1/delivery/quote. Undeliverable destinations answer 422
// with the quote, reason included.
func (s *Server) QuoteDelivery(ctx echo.Context) error {
	var req QuoteRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	point, err := pointFromWire(req.Lat, req.Lng)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewQuoteDeliveryQuery(point, req.Subtotal)
	if err != nil {
		return s.fail(ctx, err)
	}

	quote, err := s.h.QuoteDelivery.Handle(ctx.Request().Context(), query)
	if err != nil && !quote.Deliverable && statusFor(err) == http.StatusUnprocessableEntity {
		return ctx.JSON(http.StatusUnprocessableEntity, quoteFromDomain(quote))
	}
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, quoteFromDomain(quote))
}

// ValidateAddress handles POST /api/v1/addresses/validate.
func (s *Server) ValidateAddress(ctx echo.Context) error {
	var req ValidateAddress
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	address, err := req.Address.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewValidateAddressQuery(address)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.ValidateAddress.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, ValidatedAddress{Address: addressFromDomain(res.Address), Geocoded: res.Geocoded})
}

func orderIDParam(ctx echo.Context) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("order id", err)
	}
	return id, nil
}

// payloadString reads a scalar field of a webhook body. Numeric ids keep their digits.
func payloadString(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
