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

func cartMoney(t *testing.T, s string) models.Money {
	t.Helper()
	return models.NewMoneyFromDecimal(decimal.RequireFromString(s))
}

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewCartService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
	)
	return svc, db
}

func seedCartProduct(t *testing.T, db *gorm.DB, slug, price string, salePrice *string, stock int, active bool) *models.Product {
	t.Helper()
	vendor := models.Vendor{
		Slug:   slug + "-vendor",
		Name:   "Vendor " + slug,
		Status: constants.VendorStatusActive,
	}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	product := models.Product{
		Slug:          slug,
		Name:          "Product " + slug,
		VendorID:      vendor.ID,
		Unit:          "each",
		Currency:      "USD",
		PriceAmount:   cartMoney(t, price),
		StockQuantity: stock,
		IsActive:      active,
	}
	if salePrice != nil {
		sale := cartMoney(t, *salePrice)
		product.SalePriceAmount = &sale
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func TestCartTotalsUseSalePriceAndLineRounding(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	full := seedCartProduct(t, db, "apples", "10.00", nil, 50, true)
	sale := "5.99"
	discounted := seedCartProduct(t, db, "bread", "7.50", &sale, 50, true)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: full.ID, Quantity: 3}); err != nil {
		t.Fatalf("upsert full price item failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: discounted.ID, Quantity: 2}); err != nil {
		t.Fatalf("upsert discounted item failed: %v", err)
	}

	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(summary.Items) != 2 {
		t.Fatalf("item lines want 2 got %d", len(summary.Items))
	}
	if summary.ItemCount != 5 {
		t.Fatalf("item count want 5 got %d", summary.ItemCount)
	}
	// 10.00×3 + 5.99×2 = 41.98
	if summary.Subtotal.String() != "41.98" {
		t.Fatalf("subtotal want 41.98 got %s", summary.Subtotal.String())
	}
	for _, item := range summary.Items {
		if item.ProductID == discounted.ID {
			if item.UnitPrice.String() != "5.99" {
				t.Fatalf("unit price should use sale price, got %s", item.UnitPrice.String())
			}
			if item.OriginalPrice.String() != "7.50" {
				t.Fatalf("original price want 7.50 got %s", item.OriginalPrice.String())
			}
		}
	}
}

func TestCartUpsertIncrementMergesLine(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedCartProduct(t, db, "eggs", "4.80", nil, 10, true)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2, Increment: true}); err != nil {
		t.Fatalf("first increment failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 3, Increment: true}); err != nil {
		t.Fatalf("second increment failed: %v", err)
	}

	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("same product should merge into one line, got %d", len(summary.Items))
	}
	if summary.Items[0].Quantity != 5 {
		t.Fatalf("quantity want 5 got %d", summary.Items[0].Quantity)
	}

	// 覆盖模式直接改写数量
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	summary, err = svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if summary.Items[0].Quantity != 2 {
		t.Fatalf("quantity want 2 got %d", summary.Items[0].Quantity)
	}
}

func TestCartUpsertRejectsOverStockAndUnavailable(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	limited := seedCartProduct(t, db, "cod", "21.00", nil, 3, true)
	inactive := seedCartProduct(t, db, "retired", "1.00", nil, 3, false)
	soldOut := seedCartProduct(t, db, "soldout", "2.00", nil, 0, true)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: limited.ID, Quantity: 4}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("over stock want ErrInvalidQuantity got %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: inactive.ID, Quantity: 1}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("inactive want ErrProductNotAvailable got %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: soldOut.ID, Quantity: 1}); !errors.Is(err, ErrProductOutOfStock) {
		t.Fatalf("sold out want ErrProductOutOfStock got %v", err)
	}

	// 累加超过库存同样拒绝
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: limited.ID, Quantity: 2, Increment: true}); err != nil {
		t.Fatalf("first increment failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: limited.ID, Quantity: 2, Increment: true}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("merged over stock want ErrInvalidQuantity got %v", err)
	}
}

func TestCartZeroQuantityRemovesLine(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedCartProduct(t, db, "tomatoes", "6.50", nil, 10, true)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 0}); err != nil {
		t.Fatalf("zero quantity should remove line: %v", err)
	}

	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("cart should be empty, got %d lines", len(summary.Items))
	}

	// 重复移除幂等
	if err := svc.RemoveItem(1, product.ID); err != nil {
		t.Fatalf("remove missing line should succeed: %v", err)
	}
}

func TestCartListDropsDeactivatedProducts(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedCartProduct(t, db, "croissant", "4.50", nil, 10, true)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("deactivated product should be dropped from cart, got %d lines", len(summary.Items))
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count cart rows failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("stale cart row should be deleted, got %d", count)
	}
}

func TestCartClear(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	first := seedCartProduct(t, db, "first", "1.00", nil, 10, true)
	second := seedCartProduct(t, db, "second", "2.00", nil, 10, true)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: first.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: second.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := svc.Clear(1); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(summary.Items) != 0 || summary.ItemCount != 0 {
		t.Fatalf("cart should be empty after clear")
	}
}
