package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mercato-next/internal/authz"
	"github.com/mercato-next/internal/cache"
	"github.com/mercato-next/internal/config"
	adminhandlers "github.com/mercato-next/internal/http/handlers/admin"
	publichandlers "github.com/mercato-next/internal/http/handlers/public"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/provider"

	"github.com/gin-gonic/gin"
)

func loginRateRule(cfg *config.Config, scope string) RateLimitRule {
	prefix := strings.TrimSpace(cfg.Redis.Prefix)
	if prefix == "" {
		prefix = "mkt"
	}
	return RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:%s", prefix, scope),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
	}
}

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	registerStorefrontRoutes(apiV1, cfg, c)
	registerAdminRoutes(r, apiV1, cfg, c)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}

// registerStorefrontRoutes 店面公开接口、买家认证与买家登录态接口
func registerStorefrontRoutes(apiV1 *gin.RouterGroup, cfg *config.Config, c *provider.Container) {
	h := publichandlers.New(c)

	public := apiV1.Group("/public")
	{
		public.GET("/products", h.ListProducts)
		public.GET("/products/:slug", h.GetProduct)
		public.GET("/categories", h.ListCategories)
		public.GET("/vendors", h.ListVendors)
		public.GET("/vendors/:slug", h.GetVendor)
		public.GET("/posts", h.ListPosts)
		public.GET("/posts/:slug", h.GetPost)
		public.GET("/payment-channels", h.ListPaymentChannels)
	}

	auth := apiV1.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login",
			RateLimitMiddleware(cache.Client(), loginRateRule(cfg, "login"), KeyByIPAndJSONField("email")),
			h.Login)
	}

	// 支付网关回调（签名校验在服务层完成）
	apiV1.POST("/payments/webhook/stripe/:channel", h.StripeWebhook)

	user := apiV1.Group("")
	user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
	{
		user.GET("/me", h.GetProfile)
		user.PUT("/me/profile", h.UpdateProfile)
		user.PUT("/me/password", h.ChangePassword)

		user.GET("/cart", h.GetCart)
		user.POST("/cart/items", h.UpsertCartItem)
		user.DELETE("/cart/items/:product_id", h.DeleteCartItem)
		user.DELETE("/cart", h.ClearCart)

		user.POST("/orders", h.CreateOrder)
		user.GET("/orders", h.ListOrders)
		user.GET("/orders/:id", h.GetOrder)
		user.POST("/orders/:id/cancel", h.CancelOrder)
		user.GET("/orders/:id/invoice", h.GetOrderInvoice)

		user.POST("/payments", h.CreatePayment)
		user.GET("/payments/:payment_no", h.GetPayment)

		user.GET("/wishlist", h.GetWishlist)
		user.POST("/wishlist/items", h.AddWishlistItem)
		user.DELETE("/wishlist/items/:product_id", h.RemoveWishlistItem)
	}
}

// registerAdminRoutes 后台接口，除登录外全部经过 JWT 鉴权与 RBAC 校验
func registerAdminRoutes(engine *gin.Engine, apiV1 *gin.RouterGroup, cfg *config.Config, c *provider.Container) {
	h := adminhandlers.New(c)

	admin := apiV1.Group("/admin")
	admin.POST("/login",
		RateLimitMiddleware(cache.Client(), loginRateRule(cfg, "admin_login"), KeyByIP),
		h.AdminLogin)

	authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
	{
		authorized.GET("/me", h.GetAdminMe)
		authorized.PUT("/password", h.AdminChangePassword)

		// 商品管理
		authorized.GET("/products", h.ListAdminProducts)
		authorized.GET("/products/:id", h.GetAdminProduct)
		authorized.POST("/products", h.CreateProduct)
		authorized.PUT("/products/:id", h.UpdateProduct)
		authorized.PATCH("/products/:id/stock", h.SetProductStock)
		authorized.DELETE("/products/:id", h.DeleteProduct)

		// 品类管理
		authorized.GET("/categories", h.ListAdminCategories)
		authorized.POST("/categories", h.CreateCategory)
		authorized.PUT("/categories/:id", h.UpdateCategory)
		authorized.DELETE("/categories/:id", h.DeleteCategory)

		// 商户管理
		authorized.GET("/vendors", h.ListAdminVendors)
		authorized.GET("/vendors/:id", h.GetAdminVendor)
		authorized.POST("/vendors", h.CreateVendor)
		authorized.PUT("/vendors/:id", h.UpdateVendor)
		authorized.DELETE("/vendors/:id", h.DeleteVendor)

		// 文章管理
		authorized.GET("/posts", h.ListAdminPosts)
		authorized.GET("/posts/:id", h.GetAdminPost)
		authorized.POST("/posts", h.CreatePost)
		authorized.PUT("/posts/:id", h.UpdatePost)
		authorized.DELETE("/posts/:id", h.DeletePost)

		// 订单管理
		authorized.GET("/orders", h.ListAdminOrders)
		authorized.GET("/orders/:id", h.GetAdminOrder)
		authorized.PATCH("/orders/:id/status", h.UpdateOrderStatus)

		// 拣货单管理
		authorized.GET("/fulfillments", h.ListFulfillments)
		authorized.GET("/fulfillments/:id", h.GetFulfillment)
		authorized.POST("/fulfillments/:id/start", h.StartFulfillment)
		authorized.POST("/fulfillments/:id/complete", h.CompleteFulfillment)
		authorized.POST("/fulfillments/:id/cancel", h.CancelFulfillment)
		authorized.PATCH("/fulfillments/:id/items/:itemId", h.UpdateFulfillmentItem)

		// 发票管理
		authorized.GET("/invoices", h.ListAdminInvoices)
		authorized.GET("/invoices/:id", h.GetAdminInvoice)
		authorized.POST("/invoices/:id/void", h.VoidAdminInvoice)

		// 支付渠道与支付记录
		authorized.GET("/payment-channels", h.ListPaymentChannels)
		authorized.GET("/payment-channels/:id", h.GetPaymentChannel)
		authorized.POST("/payment-channels", h.CreatePaymentChannel)
		authorized.PUT("/payment-channels/:id", h.UpdatePaymentChannel)
		authorized.DELETE("/payment-channels/:id", h.DeletePaymentChannel)
		authorized.GET("/payments", h.ListAdminPayments)
		authorized.GET("/payments/:id", h.GetAdminPayment)
		authorized.POST("/payments/:id/sync", h.SyncAdminPayment)

		// 买家管理
		authorized.GET("/users", h.ListAdminUsers)
		authorized.GET("/users/:id", h.GetAdminUser)
		authorized.PATCH("/users/:id/status", h.UpdateUserStatus)

		// 权限管理
		authorized.GET("/authz/me", h.GetAuthzMe)
		authorized.GET("/authz/roles", h.ListAuthzRoles)
		authorized.POST("/authz/roles", h.CreateAuthzRole)
		authorized.DELETE("/authz/roles/:role", h.DeleteAuthzRole)
		authorized.GET("/authz/roles/:role/policies", h.GetAuthzRolePolicies)
		authorized.POST("/authz/policies", h.GrantAuthzPolicy)
		authorized.DELETE("/authz/policies", h.RevokeAuthzPolicy)
		authorized.GET("/authz/admins", h.ListAuthzAdmins)
		authorized.POST("/authz/admins", h.CreateAuthzAdmin)
		authorized.PUT("/authz/admins/:id", h.UpdateAuthzAdmin)
		authorized.DELETE("/authz/admins/:id", h.DeleteAuthzAdmin)
		authorized.GET("/authz/admins/:id/roles", h.GetAuthzAdminRoles)
		authorized.PUT("/authz/admins/:id/roles", h.SetAuthzAdminRoles)
		authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
			response.Success(ctx, buildAdminPermissionCatalog(engine))
		})
	}
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func catalogSkipsRoute(method, path string) bool {
	if method == "" || method == "OPTIONS" || method == "HEAD" {
		return true
	}
	if !strings.HasPrefix(path, "/api/v1/admin/") {
		return true
	}
	return path == "/api/v1/admin/login"
}

// buildAdminPermissionCatalog 枚举可授权的后台路由，供权限配置界面选择
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, route := range routes {
		method := strings.ToUpper(strings.TrimSpace(route.Method))
		if catalogSkipsRoute(method, route.Path) {
			continue
		}
		object := authz.NormalizeObject(route.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Object != b.Object {
			return a.Object < b.Object
		}
		return a.Method < b.Method
	})
	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	switch {
	case len(segments) <= 1:
		return segments[0]
	case segments[0] != "admin":
		return segments[0]
	case segments[1] == "authz":
		return "authz"
	}
	return segments[1]
}
