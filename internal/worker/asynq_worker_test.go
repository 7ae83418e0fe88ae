package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/mercato-next/internal/config"
	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/provider"
	"github.com/mercato-next/internal/queue"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"
)

func testMoney(s string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(s))
}

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	models.DB = db
	// 订单查询会预加载拣货单与发票，全量建表
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)

	container := &provider.Container{
		Config:             &config.Config{},
		OrderRepo:          orderRepo,
		UserRepo:           userRepo,
		ProductRepo:        productRepo,
		EmailService:       service.NewEmailService(&config.EmailConfig{Enabled: false}),
		OrderService:       service.NewOrderService(orderRepo, cartRepo, productRepo, userRepo, nil, 15),
		FulfillmentService: service.NewFulfillmentService(orderRepo, fulfillmentRepo, userRepo, adminRepo, nil),
		WishlistService:    service.NewWishlistService(wishlistRepo, productRepo),
	}
	return NewConsumer(container), db
}

func TestHandleFulfillmentCreateSkipsMissingOrder(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task, err := queue.NewFulfillmentCreateTask(queue.FulfillmentCreatePayload{OrderID: 9999})
	if err != nil {
		t.Fatalf("构造任务失败: %v", err)
	}
	if err := consumer.HandleFulfillmentCreate(context.Background(), task); err != nil {
		t.Fatalf("订单不存在时应跳过而非重试: %v", err)
	}
}

func TestHandleFulfillmentCreateIsIdempotent(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	user := &models.User{Email: "shopper@example.com", PasswordHash: "x", DisplayName: "Shopper", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	order := &models.Order{
		OrderNo:     "ORD-TEST-0001",
		UserID:      user.ID,
		Status:      constants.OrderStatusPaid,
		Currency:    "USD",
		TotalAmount: testMoney("7.00"),
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Sourdough Loaf", VendorName: "Corner Bakery", Quantity: 2, UnitPrice: testMoney("3.50"), TotalPrice: testMoney("7.00")},
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}

	task, err := queue.NewFulfillmentCreateTask(queue.FulfillmentCreatePayload{OrderID: order.ID})
	if err != nil {
		t.Fatalf("构造任务失败: %v", err)
	}
	if err := consumer.HandleFulfillmentCreate(context.Background(), task); err != nil {
		t.Fatalf("首次处理失败: %v", err)
	}
	// 队列重复投递时不应报错或重复建单
	if err := consumer.HandleFulfillmentCreate(context.Background(), task); err != nil {
		t.Fatalf("重复投递应幂等: %v", err)
	}

	var count int64
	if err := db.Model(&models.OrderFulfillment{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("统计拣货单失败: %v", err)
	}
	if count != 1 {
		t.Fatalf("期望 1 张拣货单, 实际 %d", count)
	}
}

func TestHandleOrderStatusEmailSkipsWhenDisabled(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	user := &models.User{Email: "shopper@example.com", PasswordHash: "x", Status: constants.UserStatusActive, Locale: "en-US"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	order := &models.Order{OrderNo: "ORD-TEST-0002", UserID: user.ID, Status: constants.OrderStatusPaid, Currency: "USD", TotalAmount: testMoney("9.99")}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}

	task, err := queue.NewOrderStatusEmailTask(queue.OrderStatusEmailPayload{OrderID: order.ID, Status: constants.OrderStatusPaid})
	if err != nil {
		t.Fatalf("构造任务失败: %v", err)
	}
	// 邮件服务未启用时任务应吞掉而不是无限重试
	if err := consumer.HandleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("邮件未启用时应跳过: %v", err)
	}
}

func TestHandleRestockNotifySkipsInactiveProduct(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	product := &models.Product{Slug: "oat-milk", Name: "Oat Milk", VendorID: 1, Currency: "USD", PriceAmount: testMoney("4.50"), StockQuantity: 10, IsActive: false}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	task, err := queue.NewRestockNotifyTask(queue.RestockNotifyPayload{ProductID: product.ID})
	if err != nil {
		t.Fatalf("构造任务失败: %v", err)
	}
	if err := consumer.HandleRestockNotify(context.Background(), task); err != nil {
		t.Fatalf("下架商品应跳过: %v", err)
	}
}

func TestHandleRestockNotifyCleansOrphanSubscribers(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	product := &models.Product{Slug: "rye-loaf", Name: "Rye Loaf", VendorID: 1, Currency: "USD", PriceAmount: testMoney("5.00"), StockQuantity: 8, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	// 订阅行指向不存在的用户
	orphan := &models.WishlistItem{UserID: 4242, ProductID: product.ID, NotifyRestock: true}
	if err := db.Create(orphan).Error; err != nil {
		t.Fatalf("创建订阅失败: %v", err)
	}

	task, err := queue.NewRestockNotifyTask(queue.RestockNotifyPayload{ProductID: product.ID})
	if err != nil {
		t.Fatalf("构造任务失败: %v", err)
	}
	if err := consumer.HandleRestockNotify(context.Background(), task); err != nil {
		t.Fatalf("处理到货提醒失败: %v", err)
	}

	var remaining int64
	if err := db.Model(&models.WishlistItem{}).Where("product_id = ?", product.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("统计订阅失败: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("孤儿订阅行应被清除, 实际剩余 %d", remaining)
	}
	var notified int64
	if err := db.Unscoped().Model(&models.WishlistItem{}).Where("product_id = ? AND notified_at IS NOT NULL", product.ID).Count(&notified).Error; err != nil {
		t.Fatalf("统计已通知失败: %v", err)
	}
	if notified != 0 {
		t.Fatalf("未发信不应标记已通知, 实际 %d", notified)
	}
}

func TestHandleMalformedPayloadSkipsRetry(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := asynq.NewTask(queue.TaskFulfillmentCreate, []byte("not-json"))
	err := consumer.HandleFulfillmentCreate(context.Background(), task)
	if err == nil {
		t.Fatal("坏载荷应返回错误")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("坏载荷应标记 SkipRetry, 实际: %v", err)
	}
}
