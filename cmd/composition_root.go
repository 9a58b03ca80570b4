package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apihttp "pharmacy/internal/adapters/in/http"
	"pharmacy/internal/adapters/out/gateway"
	"pharmacy/internal/adapters/out/kafka"
	"pharmacy/internal/adapters/out/postgres"
	"pharmacy/internal/adapters/out/redislock"
	"pharmacy/internal/adapters/out/routing"
	"pharmacy/internal/core/application/usecases/commands"
	"pharmacy/internal/core/application/usecases/queries"
	"pharmacy/internal/core/domain/services"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/jobs"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errGatewayNotConfigured = errors.New("payment gateway is not configured")

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	logger     *slog.Logger
	uowFactory *postgres.GormUnitOfWorkFactory

	rt         commands.Runtime
	calculator *services.DeliveryFeeCalculator
	taxRate    decimal.Decimal
	policy     services.ServiceAreaPolicy
	geocoder   ports.Geocoder
	gateway    ports.PaymentGateway

	closers []func() error
}

// NewCompositionRoot wires the adapters. Redis, Kafka and the routing service are optional:
// without them orders are guarded by the version check only, events are dropped and
// distances are haversine estimates.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		logger:     logger,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
	}

	c.rt = commands.Runtime{
		UoWFactory: c.uowFactory,
		Logger:     logger,
		Clock:      func() time.Time { return time.Now().UTC() },
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		c.rt.Locker = redislock.NewLocker(rdb, cfg.LockTTL(), 0, 0)
		c.closers = append(c.closers, rdb.Close)
	} else {
		logger.Warn("REDIS_ADDR not set, order writes rely on optimistic versioning only")
	}

	if len(cfg.KafkaBrokers) > 0 {
		notifier, err := kafka.NewNotifier(cfg.KafkaBrokers, cfg.KafkaOrderEventsTopic)
		if err != nil {
			return nil, err
		}
		c.rt.Notifier = notifier
		c.closers = append(c.closers, notifier.Close)
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are not published")
	}

	var routingProvider ports.RoutingProvider
	if cfg.RoutingBaseURL != "" {
		client, err := routing.NewClient(cfg.RoutingBaseURL, cfg.RoutingAPIKey, cfg.RoutingTimeout)
		if err != nil {
			return nil, err
		}
		routingProvider = client
		c.geocoder = client
	}

	if cfg.GatewayBaseURL != "" {
		client, err := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayTimeout)
		if err != nil {
			return nil, err
		}
		c.gateway = client
	} else {
		c.gateway = unconfiguredGateway{}
	}

	pricing, taxRate, err := cfg.Pricing.Tariff()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Pricing.Policy()
	if err != nil {
		return nil, err
	}

	resolver := services.NewDistanceResolver(routingProvider, cfg.RoutingTimeout, cfg.Pricing.AverageSpeedKmh, logger)
	c.calculator = services.NewDeliveryFeeCalculator(pricing, resolver)
	c.taxRate = taxRate
	c.policy = policy

	return c, nil
}

func (c *CompositionRoot) Handlers() apihttp.Handlers {
	return apihttp.Handlers{
		CreateOrder:           commands.NewCreateOrderCommandHandler(c.rt, c.calculator, c.taxRate),
		CancelOrder:           commands.NewCancelOrderCommandHandler(c.rt),
		AdvanceOrder:          commands.NewAdvanceOrderCommandHandler(c.rt),
		ChangeDeliveryAddress: commands.NewChangeDeliveryAddressCommandHandler(c.rt, c.calculator, c.taxRate),
		InitiatePayment:       commands.NewInitiatePaymentCommandHandler(c.rt, c.gateway, c.cfg.PaymentCurrency),
		UpdatePaymentStatus:   commands.NewUpdatePaymentStatusCommandHandler(c.rt),
		ApplyPaymentWebhook:   commands.NewApplyPaymentWebhookCommandHandler(c.rt),

		GetOrder:         queries.NewGetOrderQueryHandler(c.uowFactory),
		ListActiveOrders: queries.NewListActiveOrdersQueryHandler(c.gormDB),
		QuoteDelivery:    queries.NewQuoteDeliveryQueryHandler(c.calculator),
		ValidateAddress:  queries.NewValidateAddressQueryHandler(c.geocoder, c.policy, c.cfg.RoutingTimeout, c.logger),
	}
}

func (c *CompositionRoot) JobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.uowFactory, c.cfg.AuditSchedule, c.logger)
}

// Close releases the Kafka writer and the Redis client.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i]())
	}
	return errors.Join(errList...)
}

type unconfiguredGateway struct{}

func (unconfiguredGateway) Initiate(context.Context, ports.PaymentRequest) (ports.PaymentSession, error) {
	return ports.PaymentSession{}, errGatewayNotConfigured
}
