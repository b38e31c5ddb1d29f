package di

import (
	"github.com/khiva-labs/hotelier/internal/config"
	"github.com/khiva-labs/hotelier/internal/gateway/click"
	"github.com/khiva-labs/hotelier/internal/gateway/payme"
	"github.com/khiva-labs/hotelier/internal/handler"
	"github.com/khiva-labs/hotelier/internal/ledger"
	"github.com/khiva-labs/hotelier/internal/metrics"
	"github.com/khiva-labs/hotelier/internal/repository"
	"github.com/khiva-labs/hotelier/internal/service"
	"github.com/khiva-labs/hotelier/pkg/database"
	"github.com/khiva-labs/hotelier/pkg/kafka"
	"github.com/khiva-labs/hotelier/pkg/logger"
	"github.com/khiva-labs/hotelier/pkg/redis"
)

// Container holds all dependencies for the service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	BookingRepo repository.BookingRepository
	PaymentRepo repository.PaymentRepository
	PaymeRepo   repository.PaymeTransactionRepository
	ClickRepo   repository.ClickInvoiceRepository

	// Core
	Ledger  *ledger.Ledger
	Locker  ledger.Locker
	Metrics *metrics.Metrics

	// Services
	PaymentService *service.PaymentService
	PaymeService   *payme.Service
	ClickService   *click.Service

	// Handlers
	HealthHandler  *handler.HealthHandler
	PaymentHandler *handler.PaymentHandler
	PaymeHandler   *payme.Handler
	ClickHandler   *click.Handler
}

// ContainerConfig contains the inputs for building the container
type ContainerConfig struct {
	Config        *config.Config
	DB            *database.PostgresDB
	Redis         *redis.Client
	KafkaProducer *kafka.Producer
	Metrics       *metrics.Metrics
}

// NewContainer wires the full dependency graph. Missing infrastructure
// degrades gracefully: no DB means in-memory repositories, no Redis means a
// process-local lock, no Kafka means events are dropped.
func NewContainer(cfg *ContainerConfig) *Container {
	log := logger.Get().Logger

	c := &Container{
		DB:      cfg.DB,
		Redis:   cfg.Redis,
		Metrics: cfg.Metrics,
	}

	if c.DB != nil {
		c.BookingRepo = repository.NewPostgresBookingRepository(c.DB)
		c.PaymentRepo = repository.NewPostgresPaymentRepository(c.DB)
		c.PaymeRepo = repository.NewPostgresPaymeTransactionRepository(c.DB)
		c.ClickRepo = repository.NewPostgresClickInvoiceRepository(c.DB)
	} else {
		log.Warn("using in-memory repositories (data will not persist)")
		c.BookingRepo = repository.NewMemoryBookingRepository()
		c.PaymentRepo = repository.NewMemoryPaymentRepository()
		c.PaymeRepo = repository.NewMemoryPaymeTransactionRepository()
		c.ClickRepo = repository.NewMemoryClickInvoiceRepository()
	}

	if c.Redis != nil {
		c.Locker = redis.NewLocker(c.Redis)
	} else {
		log.Warn("using process-local locks (single instance only)")
		c.Locker = ledger.NewLocalLocker()
	}

	var publisher ledger.EventPublisher
	if cfg.KafkaProducer != nil {
		publisher = service.NewKafkaEventPublisher(cfg.KafkaProducer, cfg.Config.Kafka.Topic, log)
	} else {
		log.Warn("kafka disabled, payment events will not be published")
		publisher = ledger.NoOpPublisher{}
	}

	c.Ledger = ledger.New(c.BookingRepo, c.PaymentRepo, publisher, log)
	c.Ledger.SetMetrics(cfg.Metrics)

	c.PaymentService = service.NewPaymentService(c.Ledger, c.PaymentRepo, c.BookingRepo, log)
	c.PaymeService = payme.NewService(c.PaymeRepo, c.BookingRepo, c.PaymentRepo, c.Ledger,
		c.Locker, cfg.Config.Payme.AccountField, log)
	c.ClickService = click.NewService(c.ClickRepo, c.BookingRepo, c.Ledger, c.Locker,
		cfg.Config.Click.ServiceID, cfg.Config.Click.SecretKey, log)

	c.PaymentHandler = handler.NewPaymentHandler(c.PaymentService)
	c.PaymeHandler = payme.NewHandler(c.PaymeService, cfg.Config.Payme.MerchantID,
		cfg.Config.Payme.SecretKey, log)
	c.ClickHandler = click.NewHandler(c.ClickService, log)
	c.HealthHandler = handler.NewHealthHandler(cfg.Config.App.Version, c.healthChecks())

	return c
}

func (c *Container) healthChecks() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{}
	if c.DB != nil {
		checks["database"] = c.DB.HealthCheck
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis.HealthCheck
	}
	return checks
}
