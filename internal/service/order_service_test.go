package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	// 订单查询会预加载拣货单与发票，全量建表
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		repository.NewUserRepository(db),
		nil,
		15,
	)
	return svc, db
}

func seedOrderCustomer(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("buyer_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		Locale:       "en-US",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return &user
}

func TestMergeOrderItems(t *testing.T) {
	merged := mergeOrderItems([]CreateOrderItemInput{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 3},
	})
	if len(merged) != 2 {
		t.Fatalf("merged lines want 2 got %d", len(merged))
	}
	if merged[0].ProductID != 1 || merged[0].Quantity != 5 {
		t.Fatalf("first line want product 1 qty 5 got product %d qty %d", merged[0].ProductID, merged[0].Quantity)
	}
	if merged[1].ProductID != 2 || merged[1].Quantity != 1 {
		t.Fatalf("second line want product 2 qty 1 got product %d qty %d", merged[1].ProductID, merged[1].Quantity)
	}
}

func TestCanTransitionOrderStatus(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPendingPayment, constants.OrderStatusPaid, true},
		{constants.OrderStatusPendingPayment, constants.OrderStatusCanceled, true},
		{constants.OrderStatusPendingPayment, constants.OrderStatusCompleted, false},
		{constants.OrderStatusPaid, constants.OrderStatusFulfilling, true},
		{constants.OrderStatusPaid, constants.OrderStatusRefunded, true},
		{constants.OrderStatusPaid, constants.OrderStatusCanceled, false},
		{constants.OrderStatusFulfilling, constants.OrderStatusCompleted, true},
		{constants.OrderStatusFulfilling, constants.OrderStatusRefunded, true},
		{constants.OrderStatusFulfilling, constants.OrderStatusPaid, false},
		{constants.OrderStatusCompleted, constants.OrderStatusRefunded, false},
		{constants.OrderStatusCanceled, constants.OrderStatusPaid, false},
		{constants.OrderStatusRefunded, constants.OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := CanTransitionOrderStatus(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestCreateOrderSnapshotsPricesAndReservesStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	full := seedCartProduct(t, db, "apples", "10.00", nil, 10, true)
	sale := "5.99"
	discounted := seedCartProduct(t, db, "bread", "7.50", &sale, 10, true)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items: []CreateOrderItemInput{
			{ProductID: full.ID, Quantity: 3},
			{ProductID: discounted.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("status want pending_payment got %s", order.Status)
	}
	if order.ItemCount != 5 {
		t.Fatalf("item count want 5 got %d", order.ItemCount)
	}
	// 10.00×3 + 5.99×2 = 41.98，促销价入快照
	if order.TotalAmount.String() != "41.98" {
		t.Fatalf("total want 41.98 got %s", order.TotalAmount.String())
	}
	for _, item := range order.Items {
		if item.ProductID == discounted.ID && item.UnitPrice.String() != "5.99" {
			t.Fatalf("snapshot unit price want 5.99 got %s", item.UnitPrice.String())
		}
	}

	var reserved models.Product
	if err := db.First(&reserved, full.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if reserved.StockQuantity != 7 {
		t.Fatalf("stock should be reserved at creation, want 7 got %d", reserved.StockQuantity)
	}
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	product := seedCartProduct(t, db, "eggs", "4.80", nil, 10, true)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items: []CreateOrderItemInput{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("duplicate lines should merge, got %d", len(order.Items))
	}
	if order.Items[0].Quantity != 5 {
		t.Fatalf("merged quantity want 5 got %d", order.Items[0].Quantity)
	}
}

func TestCreateOrderRejectsOverStockWithoutReserving(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	scarce := seedCartProduct(t, db, "cod", "21.00", nil, 2, true)
	plenty := seedCartProduct(t, db, "flour", "3.00", nil, 50, true)

	_, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items: []CreateOrderItemInput{
			{ProductID: plenty.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 3},
		},
	})
	if !errors.Is(err, ErrProductOutOfStock) {
		t.Fatalf("want ErrProductOutOfStock got %v", err)
	}

	// 下单失败时另一商品库存不应被扣减
	var untouched models.Product
	if err := db.First(&untouched, plenty.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if untouched.StockQuantity != 50 {
		t.Fatalf("stock should roll back, want 50 got %d", untouched.StockQuantity)
	}
}

func TestCreateOrderFromCartClearsCart(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	product := seedCartProduct(t, db, "tomatoes", "6.50", nil, 10, true)

	cartSvc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	if err := cartSvc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("upsert cart failed: %v", err)
	}

	order, err := svc.Create(CreateOrderInput{UserID: 1, FromCart: true})
	if err != nil {
		t.Fatalf("create order from cart failed: %v", err)
	}
	if order.ItemCount != 2 {
		t.Fatalf("item count want 2 got %d", order.ItemCount)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count cart rows failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("cart should be cleared after checkout, got %d rows", count)
	}

	// 空购物车下单报错
	if _, err := svc.Create(CreateOrderInput{UserID: 1, FromCart: true}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("empty cart want ErrCartEmpty got %v", err)
	}
}

func TestCancelByUserReleasesStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	product := seedCartProduct(t, db, "apples", "10.00", nil, 10, true)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items:  []CreateOrderItemInput{{ProductID: product.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.CancelByUser(order.ID, 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	canceled, err := svc.GetByIDAndUser(order.ID, 1)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("status want canceled got %s", canceled.Status)
	}
	if canceled.CanceledAt == nil {
		t.Fatalf("canceled_at should be set")
	}

	var restored models.Product
	if err := db.First(&restored, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if restored.StockQuantity != 10 {
		t.Fatalf("stock should be released, want 10 got %d", restored.StockQuantity)
	}

	// 已取消订单不能再次取消
	if err := svc.CancelByUser(order.ID, 1); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("double cancel want ErrOrderStatusInvalid got %v", err)
	}
	// 他人订单不可见
	seedOrderCustomer(t, db, 2)
	if err := svc.CancelByUser(order.ID, 2); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign order want ErrOrderNotFound got %v", err)
	}
}

func TestCancelExpiredIsIdempotent(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	product := seedCartProduct(t, db, "bread", "7.00", nil, 5, true)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items:  []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.CancelExpired(order.ID); err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	// 重复触发与已支付订单均为无操作
	if err := svc.CancelExpired(order.ID); err != nil {
		t.Fatalf("second cancel expired should be a no-op: %v", err)
	}
	if err := svc.CancelExpired(9999); err != nil {
		t.Fatalf("missing order should be a no-op: %v", err)
	}

	var restored models.Product
	if err := db.First(&restored, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if restored.StockQuantity != 5 {
		t.Fatalf("stock want 5 got %d", restored.StockQuantity)
	}
}

func TestTransitionStatusFollowsStateMachine(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	product := seedCartProduct(t, db, "cheese", "12.00", nil, 8, true)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items:  []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.TransitionStatus(order.ID, constants.OrderStatusCompleted); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("pending -> completed want ErrOrderStatusInvalid got %v", err)
	}
	if err := svc.TransitionStatus(order.ID, constants.OrderStatusPaid); err != nil {
		t.Fatalf("pending -> paid failed: %v", err)
	}
	if err := svc.TransitionStatus(order.ID, constants.OrderStatusFulfilling); err != nil {
		t.Fatalf("paid -> fulfilling failed: %v", err)
	}
	if err := svc.TransitionStatus(order.ID, constants.OrderStatusCompleted); err != nil {
		t.Fatalf("fulfilling -> completed failed: %v", err)
	}

	final, err := svc.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if final.Status != constants.OrderStatusCompleted {
		t.Fatalf("status want completed got %s", final.Status)
	}
	if final.PaidAt == nil || final.CompletedAt == nil {
		t.Fatalf("paid_at and completed_at should be stamped")
	}

	if err := svc.TransitionStatus(9999, constants.OrderStatusPaid); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound got %v", err)
	}
}

func TestTransitionStatusRefundReleasesStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedOrderCustomer(t, db, 1)
	product := seedCartProduct(t, db, "butter", "6.00", nil, 9, true)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items:  []CreateOrderItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := svc.TransitionStatus(order.ID, constants.OrderStatusPaid); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := svc.TransitionStatus(order.ID, constants.OrderStatusRefunded); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	var restored models.Product
	if err := db.First(&restored, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if restored.StockQuantity != 9 {
		t.Fatalf("refund should release stock, want 9 got %d", restored.StockQuantity)
	}
}
