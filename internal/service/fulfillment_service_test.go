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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupFulfillmentServiceTest(t *testing.T) (*FulfillmentService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:fulfillment_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	// 订单查询会预加载拣货单与发票，全量建表
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewFulfillmentService(
		repository.NewOrderRepository(db),
		repository.NewFulfillmentRepository(db),
		repository.NewUserRepository(db),
		repository.NewAdminRepository(db),
		nil,
	)
	return svc, db
}

func seedFulfillmentOrder(t *testing.T, db *gorm.DB, userID uint, quantities []int) *models.Order {
	t.Helper()
	now := time.Now()
	user := models.User{
		ID:           userID,
		Email:        fmt.Sprintf("customer_%d@example.com", userID),
		PasswordHash: "hash",
		DisplayName:  fmt.Sprintf("Customer %d", userID),
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	order := models.Order{
		OrderNo:      fmt.Sprintf("MKT-TEST-%d", time.Now().UnixNano()),
		UserID:       userID,
		Status:       constants.OrderStatusPaid,
		Currency:     "USD",
		ContactEmail: user.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	for i, qty := range quantities {
		item := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   uint(100 + i),
			VendorID:    uint(10 + i),
			ProductName: fmt.Sprintf("Product %d", i+1),
			VendorName:  fmt.Sprintf("Vendor %d", i+1),
			Unit:        constants.ProductUnitEach,
			Quantity:    qty,
			UnitPrice:   models.NewMoneyFromDecimal(decimal.RequireFromString("3.50")),
			TotalPrice:  models.NewMoneyFromDecimal(decimal.RequireFromString("3.50").Mul(decimal.NewFromInt(int64(qty)))),
			CreatedAt:   now,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create order item failed: %v", err)
		}
	}
	return &order
}

func TestFulfillmentProgressRounding(t *testing.T) {
	items := []models.FulfillmentItem{
		{QuantityOrdered: 7, QuantityFulfilled: 3},
	}
	if got := FulfillmentProgress(items); got != 43 {
		t.Fatalf("expected progress 43, got: %d", got)
	}
	if got := FulfillmentProgress(nil); got != 0 {
		t.Fatalf("expected progress 0 for empty items, got: %d", got)
	}
	full := []models.FulfillmentItem{
		{QuantityOrdered: 2, QuantityFulfilled: 2},
		{QuantityOrdered: 5, QuantityFulfilled: 5},
	}
	if got := FulfillmentProgress(full); got != 100 {
		t.Fatalf("expected progress 100, got: %d", got)
	}
	half := []models.FulfillmentItem{
		{QuantityOrdered: 4, QuantityFulfilled: 1},
		{QuantityOrdered: 4, QuantityFulfilled: 3},
	}
	if got := FulfillmentProgress(half); got != 50 {
		t.Fatalf("expected progress 50, got: %d", got)
	}
}

func TestFulfillmentCreateForOrderSnapshotsItems(t *testing.T) {
	svc, db := setupFulfillmentServiceTest(t)
	order := seedFulfillmentOrder(t, db, 3001, []int{3, 2})

	fulfillment, err := svc.CreateForOrder(order.ID)
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}
	if fulfillment.Status != constants.FulfillmentStatusPending {
		t.Fatalf("expected pending status, got: %s", fulfillment.Status)
	}
	if fulfillment.OrderNo != order.OrderNo {
		t.Fatalf("expected order no snapshot %s, got: %s", order.OrderNo, fulfillment.OrderNo)
	}
	if fulfillment.CustomerName != "Customer 3001" {
		t.Fatalf("expected customer name snapshot, got: %s", fulfillment.CustomerName)
	}
	if fulfillment.TotalItemsOrdered != 5 {
		t.Fatalf("expected 5 items ordered, got: %d", fulfillment.TotalItemsOrdered)
	}
	if len(fulfillment.Items) != 2 {
		t.Fatalf("expected 2 fulfillment items, got: %d", len(fulfillment.Items))
	}
	for _, item := range fulfillment.Items {
		if item.Status != constants.FulfillmentItemStatusPending {
			t.Fatalf("expected pending item status, got: %s", item.Status)
		}
		if item.QuantityFulfilled != 0 {
			t.Fatalf("expected 0 fulfilled, got: %d", item.QuantityFulfilled)
		}
		if item.ProductName == "" || item.VendorName == "" {
			t.Fatalf("expected product/vendor snapshots, got: %+v", item)
		}
	}

	_, err = svc.CreateForOrder(order.ID)
	if !errors.Is(err, ErrFulfillmentExists) {
		t.Fatalf("expected ErrFulfillmentExists on duplicate create, got: %v", err)
	}
}

func TestFulfillmentCreateForOrderBeforePayment(t *testing.T) {
	svc, db := setupFulfillmentServiceTest(t)
	order := seedFulfillmentOrder(t, db, 3010, []int{2})
	// 下单即建拣货单，此时订单尚未支付
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", constants.OrderStatusPendingPayment).Error; err != nil {
		t.Fatalf("reset order status failed: %v", err)
	}

	fulfillment, err := svc.CreateForOrder(order.ID)
	if err != nil {
		t.Fatalf("create fulfillment for unpaid order failed: %v", err)
	}
	if fulfillment.Status != constants.FulfillmentStatusPending {
		t.Fatalf("expected pending status, got: %s", fulfillment.Status)
	}
	if fulfillment.TotalItemsOrdered != 2 {
		t.Fatalf("expected 2 items ordered, got: %d", fulfillment.TotalItemsOrdered)
	}
}

func TestFulfillmentStartStampsOperator(t *testing.T) {
	svc, db := setupFulfillmentServiceTest(t)
	order := seedFulfillmentOrder(t, db, 3002, []int{1})
	fulfillment, err := svc.CreateForOrder(order.ID)
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}

	if err := svc.Start(fulfillment.ID, 7); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}
	detail, err := svc.Get(fulfillment.ID)
	if err != nil {
		t.Fatalf("get fulfillment failed: %v", err)
	}
	if detail.Status != constants.FulfillmentStatusInProgress {
		t.Fatalf("expected in_progress, got: %s", detail.Status)
	}
	if detail.StartedBy == nil || *detail.StartedBy != 7 || detail.StartedAt == nil {
		t.Fatalf("expected started stamps, got: %+v", detail.OrderFulfillment)
	}

	// 订单随拣货开始进入配货中
	var freshOrder models.Order
	if err := db.First(&freshOrder, order.ID).Error; err != nil {
		t.Fatalf("query order failed: %v", err)
	}
	if freshOrder.Status != constants.OrderStatusFulfilling {
		t.Fatalf("expected order fulfilling, got: %s", freshOrder.Status)
	}

	if err := svc.Start(fulfillment.ID, 7); !errors.Is(err, ErrFulfillmentStatusInvalid) {
		t.Fatalf("expected ErrFulfillmentStatusInvalid on double start, got: %v", err)
	}
}

func TestFulfillmentUpdateItemStatusRecomputesTotals(t *testing.T) {
	svc, db := setupFulfillmentServiceTest(t)
	order := seedFulfillmentOrder(t, db, 3003, []int{4, 3})
	fulfillment, err := svc.CreateForOrder(order.ID)
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}

	detail, err := svc.UpdateItemStatus(UpdateItemStatusInput{
		FulfillmentID: fulfillment.ID,
		ItemID:        fulfillment.Items[0].ID,
		Status:        constants.FulfillmentItemStatusAdded,
		AdminID:       5,
		AdminName:     "staff-lee",
	})
	if err != nil {
		t.Fatalf("update item status failed: %v", err)
	}
	// 对 pending 拣货单的首次操作自动开始拣货
	if detail.Status != constants.FulfillmentStatusInProgress {
		t.Fatalf("expected auto start, got: %s", detail.Status)
	}
	if detail.TotalItemsFulfilled != 4 {
		t.Fatalf("expected 4 fulfilled, got: %d", detail.TotalItemsFulfilled)
	}

	var updated models.FulfillmentItem
	if err := db.First(&updated, fulfillment.Items[0].ID).Error; err != nil {
		t.Fatalf("query item failed: %v", err)
	}
	if updated.QuantityFulfilled != 4 {
		t.Fatalf("expected added item fulfilled=ordered, got: %d", updated.QuantityFulfilled)
	}
	if updated.ProcessedBy == nil || *updated.ProcessedBy != 5 || updated.ProcessedByName != "staff-lee" || updated.ProcessedAt == nil {
		t.Fatalf("expected processed stamps, got: %+v", updated)
	}

	detail, err = svc.UpdateItemStatus(UpdateItemStatusInput{
		FulfillmentID:     fulfillment.ID,
		ItemID:            fulfillment.Items[1].ID,
		Status:            constants.FulfillmentItemStatusPartial,
		QuantityFulfilled: 2,
		Note:              "last crate short",
		AdminID:           5,
		AdminName:         "staff-lee",
	})
	if err != nil {
		t.Fatalf("partial update failed: %v", err)
	}
	if detail.TotalItemsFulfilled != 6 {
		t.Fatalf("expected 6 fulfilled, got: %d", detail.TotalItemsFulfilled)
	}
	if detail.ProgressPercent != 86 {
		t.Fatalf("expected progress 86, got: %d", detail.ProgressPercent)
	}
}

func TestFulfillmentUpdateItemStatusRejectsOverQuantity(t *testing.T) {
	svc, db := setupFulfillmentServiceTest(t)
	order := seedFulfillmentOrder(t, db, 3004, []int{2})
	fulfillment, err := svc.CreateForOrder(order.ID)
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}

	_, err = svc.UpdateItemStatus(UpdateItemStatusInput{
		FulfillmentID:     fulfillment.ID,
		ItemID:            fulfillment.Items[0].ID,
		Status:            constants.FulfillmentItemStatusPartial,
		QuantityFulfilled: 3,
		AdminID:           5,
	})
	if !errors.Is(err, ErrFulfillmentQuantityExceeded) {
		t.Fatalf("expected ErrFulfillmentQuantityExceeded, got: %v", err)
	}

	_, err = svc.UpdateItemStatus(UpdateItemStatusInput{
		FulfillmentID: fulfillment.ID,
		ItemID:        fulfillment.Items[0].ID,
		Status:        "shipped",
		AdminID:       5,
	})
	if !errors.Is(err, ErrFulfillmentInvalid) {
		t.Fatalf("expected ErrFulfillmentInvalid for unknown status, got: %v", err)
	}
}

func TestFulfillmentCompleteRequiresAllItemsAdded(t *testing.T) {
	svc, db := setupFulfillmentServiceTest(t)
	order := seedFulfillmentOrder(t, db, 3005, []int{2, 1})
	fulfillment, err := svc.CreateForOrder(order.ID)
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}
	if err := svc.Start(fulfillment.ID, 9); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := svc.Complete(fulfillment.ID, 9); !errors.Is(err, ErrFulfillmentStatusInvalid) {
		t.Fatalf("expected complete rejected with pending items, got: %v", err)
	}

	for _, item := range fulfillment.Items {
		if _, err := svc.UpdateItemStatus(UpdateItemStatusInput{
			FulfillmentID: fulfillment.ID,
			ItemID:        item.ID,
			Status:        constants.FulfillmentItemStatusAdded,
			AdminID:       9,
			AdminName:     "staff-wu",
		}); err != nil {
			t.Fatalf("mark item added failed: %v", err)
		}
	}

	if err := svc.Complete(fulfillment.ID, 9); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	detail, err := svc.Get(fulfillment.ID)
	if err != nil {
		t.Fatalf("get fulfillment failed: %v", err)
	}
	if detail.Status != constants.FulfillmentStatusCompleted {
		t.Fatalf("expected completed, got: %s", detail.Status)
	}
	if detail.CompletedBy == nil || *detail.CompletedBy != 9 || detail.CompletedAt == nil {
		t.Fatalf("expected completed stamps, got: %+v", detail.OrderFulfillment)
	}
	if detail.ProgressPercent != 100 {
		t.Fatalf("expected progress 100, got: %d", detail.ProgressPercent)
	}

	var freshOrder models.Order
	if err := db.First(&freshOrder, order.ID).Error; err != nil {
		t.Fatalf("query order failed: %v", err)
	}
	if freshOrder.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected order completed, got: %s", freshOrder.Status)
	}

	// 终态后不可再改明细
	_, err = svc.UpdateItemStatus(UpdateItemStatusInput{
		FulfillmentID: fulfillment.ID,
		ItemID:        fulfillment.Items[0].ID,
		Status:        constants.FulfillmentItemStatusOutOfStock,
		AdminID:       9,
	})
	if !errors.Is(err, ErrFulfillmentStatusInvalid) {
		t.Fatalf("expected ErrFulfillmentStatusInvalid after completion, got: %v", err)
	}
}

func TestFulfillmentCancelByOrderIDIdempotent(t *testing.T) {
	svc, db := setupFulfillmentServiceTest(t)
	order := seedFulfillmentOrder(t, db, 3006, []int{1})
	fulfillment, err := svc.CreateForOrder(order.ID)
	if err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}

	if err := svc.CancelByOrderID(order.ID, "order canceled"); err != nil {
		t.Fatalf("cancel by order failed: %v", err)
	}
	detail, err := svc.Get(fulfillment.ID)
	if err != nil {
		t.Fatalf("get fulfillment failed: %v", err)
	}
	if detail.Status != constants.FulfillmentStatusCancelled {
		t.Fatalf("expected cancelled, got: %s", detail.Status)
	}
	if detail.CancelledAt == nil || detail.Notes != "order canceled" {
		t.Fatalf("expected cancel stamps, got: %+v", detail.OrderFulfillment)
	}

	// 重复取消与无拣货单取消均为空操作
	if err := svc.CancelByOrderID(order.ID, "again"); err != nil {
		t.Fatalf("expected idempotent cancel, got: %v", err)
	}
	if err := svc.CancelByOrderID(999999, "none"); err != nil {
		t.Fatalf("expected no-op for missing fulfillment, got: %v", err)
	}
}
