package provider

import (
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/events"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/payment"
	"github.com/storefront-next/internal/payment/stripe"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"
)

// Container dependency injection container
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Publisher   events.Publisher
	Gateway     payment.Gateway

	// Repositories
	AdminRepo     repository.AdminRepository
	UserRepo      repository.UserRepository
	OrderRepo     repository.OrderRepository
	ProductRepo   repository.ProductRepository
	CategoryRepo  repository.CategoryRepository
	DashboardRepo repository.DashboardRepository

	// Services
	AuthService      *service.AuthService
	UserAuthService  *service.UserAuthService
	ProductService   *service.ProductService
	CategoryService  *service.CategoryService
	CartService      *service.CartService
	OrderService     *service.OrderService
	DashboardService *service.DashboardService
}

// NewContainer wires the whole dependency graph
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
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	c.Publisher = events.NopPublisher{}
	if cache.Enabled() {
		c.Publisher = events.NewRedisPublisher(cache.Client(), "")
	}

	if c.Config.Payment.Stripe.SecretKey != "" {
		gateway, err := stripe.NewClient(stripe.Config{
			SecretKey:               c.Config.Payment.Stripe.SecretKey,
			WebhookSecret:           c.Config.Payment.Stripe.WebhookSecret,
			APIBaseURL:              c.Config.Payment.Stripe.APIBaseURL,
			WebhookToleranceSeconds: c.Config.Payment.Stripe.WebhookToleranceSeconds,
		})
		if err != nil {
			logger.Errorw("provider_init_stripe_failed", "error", err)
		} else {
			c.Gateway = gateway
		}
	} else {
		logger.Warnw("provider_stripe_not_configured")
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)

	if cache.Enabled() {
		store := cache.NewCartStore(cache.Client())
		locker := cache.NewCartLocker(cache.Client(), time.Duration(c.Config.Cart.LockTimeoutSeconds)*time.Second)
		c.CartService = service.NewCartService(
			store,
			locker,
			c.ProductRepo,
			c.Publisher,
			time.Duration(c.Config.Cart.UserTTLHours)*time.Hour,
			time.Duration(c.Config.Cart.GuestTTLHours)*time.Hour,
		)
	} else {
		logger.Errorw("provider_cart_requires_redis")
	}

	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.CartService)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.CartService,
		c.Gateway,
		c.QueueClient,
		c.Publisher,
		c.Config.Payment.Currency,
		time.Duration(c.Config.Order.CanceledDeleteDelayDays)*24*time.Hour,
	)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
}
