package provider

import (
	"github.com/mercato-next/internal/authz"
	"github.com/mercato-next/internal/cache"
	"github.com/mercato-next/internal/config"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/queue"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"
)

// Container 依赖注入容器，HTTP 层与 worker 共享同一份实例
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	VendorRepo         repository.VendorRepository
	CategoryRepo       repository.CategoryRepository
	ProductRepo        repository.ProductRepository
	CartRepo           repository.CartRepository
	OrderRepo          repository.OrderRepository
	FulfillmentRepo    repository.FulfillmentRepository
	InvoiceRepo        repository.InvoiceRepository
	PaymentRepo        repository.PaymentRepository
	PaymentChannelRepo repository.PaymentChannelRepository
	WishlistRepo       repository.WishlistRepository
	PostRepo           repository.PostRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserAuthService    *service.UserAuthService
	EmailService       *service.EmailService
	VendorService      *service.VendorService
	CategoryService    *service.CategoryService
	ProductService     *service.ProductService
	CartService        *service.CartService
	OrderService       *service.OrderService
	FulfillmentService *service.FulfillmentService
	InvoiceService     *service.InvoiceService
	PaymentService     *service.PaymentService
	WishlistService    *service.WishlistService
	PostService        *service.PostService
}

func newQueueClient(cfg *config.Config) *queue.Client {
	if !cfg.Queue.Enabled {
		return nil
	}
	client, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		return nil
	}
	return client
}

// NewContainer 初始化容器。Redis 与队列初始化失败仅记日志降级，
// RBAC 初始化失败直接 panic，权限层缺席不允许继续启动。
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: newQueueClient(cfg),
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.VendorRepo = repository.NewVendorRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.FulfillmentRepo = repository.NewFulfillmentRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.PaymentChannelRepo = repository.NewPaymentChannelRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
	c.PostRepo = repository.NewPostRepository(db)
}

func (c *Container) initAuthz() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
}

func (c *Container) initServices() {
	c.initAuthz()

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.VendorService = service.NewVendorService(c.VendorRepo, c.ProductRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VendorRepo, c.CategoryRepo, c.QueueClient)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CartRepo, c.ProductRepo, c.UserRepo, c.QueueClient, c.Config.Order.PaymentExpireMinutes)
	c.FulfillmentService = service.NewFulfillmentService(c.OrderRepo, c.FulfillmentRepo, c.UserRepo, c.AdminRepo, c.QueueClient)
	c.InvoiceService = service.NewInvoiceService(c.InvoiceRepo, c.OrderRepo)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.PaymentChannelRepo, c.OrderRepo, c.OrderService, c.InvoiceService)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
	c.PostService = service.NewPostService(c.PostRepo)
}
