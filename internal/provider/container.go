package provider

import (
	"github.com/truckmart-next/internal/cache"
	"github.com/truckmart-next/internal/config"
	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/payment/stripe"
	"github.com/truckmart-next/internal/queue"
	"github.com/truckmart-next/internal/repository"
	"github.com/truckmart-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo    repository.UserRepository
	AddressRepo repository.AddressRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository
	PaymentRepo repository.PaymentRepository

	// Services
	AddressService      *service.AddressService
	CartService         *service.CartService
	CatalogService      *service.CatalogService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	ProductAdminService *service.ProductAdminService
	UserService         *service.UserService

	// Payment
	StripeConfig *stripe.Config
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
}

func (c *Container) initServices() {
	db := models.DB
	c.AddressService = service.NewAddressService(db, c.AddressRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.Config.Catalog.CacheTTLSeconds)
	c.OrderService = service.NewOrderService(db, c.OrderRepo, c.ProductRepo, c.CartService, c.QueueClient, c.Config.Payment.Stripe.Currency, c.Config.Order.PaymentExpireMinutes)
	c.ProductAdminService = service.NewProductAdminService(c.ProductRepo, c.CatalogService)
	c.UserService = service.NewUserService(db, c.UserRepo, c.CartRepo, c.AddressRepo, c.OrderRepo, c.PaymentRepo)

	var paymentProvider service.PaymentProvider
	if c.Config.Payment.Stripe.Enabled {
		c.StripeConfig = stripe.NewConfig(
			c.Config.Payment.Stripe.SecretKey,
			c.Config.Payment.Stripe.WebhookSecret,
			c.Config.Payment.Stripe.APIBase,
			c.Config.Payment.Stripe.TimeoutMS,
		)
		if err := stripe.ValidateConfig(c.StripeConfig); err != nil {
			logger.Errorw("provider_stripe_config_invalid", "error", err)
			c.StripeConfig = nil
		} else {
			paymentProvider = service.NewStripePaymentProvider(c.StripeConfig)
		}
	}
	c.PaymentService = service.NewPaymentService(db, c.OrderRepo, c.PaymentRepo, c.OrderService, paymentProvider)
}
