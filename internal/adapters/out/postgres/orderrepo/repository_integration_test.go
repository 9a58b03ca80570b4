package orderrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"pharmacy/internal/adapters/out/postgres/orderrepo"
	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/core/domain/model/payment"
	"pharmacy/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OrderRepositoryIntegrationTestSuite runs the repository against a real PostgreSQL, where
// unique violations arrive as pgconn errors and row locks serialize the sequence.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	// TranslateError stays off so isUniqueViolation is exercised on raw pgconn errors.
	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.OrderSequenceDTO{}))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders, order_sequences").Error)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAddAndGet_RoundTrip() {
	ctx := context.Background()
	o := newOrder(suite.T(), 1, baseTime)

	suite.Require().NoError(suite.repository.Add(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(o.Number(), got.Number())
	suite.True(got.Totals().Total().Equal(o.Totals().Total()))
	suite.Equal("128.50", got.Totals().Subtotal().StringFixed(2))
	suite.Require().NoError(got.VerifyTotals())
	suite.Len(got.Payment().History(), 1)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateNumber_IsConflict() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, newOrder(suite.T(), 5, baseTime)))

	err := suite.repository.Add(ctx, newOrder(suite.T(), 5, baseTime))

	suite.Require().ErrorIs(err, errs.ErrConflict)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_StaleVersion_IsConflict() {
	ctx := context.Background()
	o := newOrder(suite.T(), 1, baseTime)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	a, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	b, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	paid, err := payment.NewStatusUpdate(payment.Paid, payment.SourceWebhook, nil, "9")
	suite.Require().NoError(err)
	_, err = a.ApplyPaymentUpdate(paid, baseTime)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, a))

	processing, err := payment.NewStatusUpdate(payment.Processing, payment.SourceWebhook, nil, "8")
	suite.Require().NoError(err)
	_, err = b.ApplyPaymentUpdate(processing, baseTime)
	suite.Require().NoError(err)

	suite.Require().ErrorIs(suite.repository.Update(ctx, b), errs.ErrConflict)

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(payment.Paid, stored.Payment().Status())
	suite.Equal("9", stored.Payment().LastWebhookID())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestSequence_ConcurrentTransactionsNeverShareValues() {
	ctx := context.Background()
	const workers = 8

	var (
		mu     sync.Mutex
		values = make(map[int64]struct{})
		wg     sync.WaitGroup
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := suite.db.Transaction(func(tx *gorm.DB) error {
				v, err := orderrepo.NewGormOrderNumberSequence(tx).Next(ctx, order.CategoryMedicine)
				if err != nil {
					return err
				}
				mu.Lock()
				values[v] = struct{}{}
				mu.Unlock()
				return nil
			})
			suite.NoError(err)
		}()
	}
	wg.Wait()

	suite.Len(values, workers)
	for v := int64(1); v <= workers; v++ {
		suite.Contains(values, v)
	}
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
