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

func setupProductServiceTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewProductService(
		repository.NewProductRepository(db),
		repository.NewVendorRepository(db),
		repository.NewCategoryRepository(db),
		nil,
	)
	return svc, db
}

func seedProductVendor(t *testing.T, db *gorm.DB, slug string) *models.Vendor {
	t.Helper()
	vendor := models.Vendor{
		Slug:   slug,
		Name:   "Vendor " + slug,
		Status: constants.VendorStatusActive,
	}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	return &vendor
}

func TestProductCreatePersistsInactiveFlag(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	vendor := seedProductVendor(t, db, "stall-a")

	created, err := svc.Create(SaveProductInput{
		Slug:          "winter-squash",
		Name:          "Winter Squash",
		VendorID:      vendor.ID,
		Unit:          "each",
		Currency:      "USD",
		Price:         cartMoney(t, "3.25"),
		StockQuantity: 10,
		IsActive:      false,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	// 未上架商品必须以未上架落库，不允许被列默认值改写
	var stored models.Product
	if err := db.First(&stored, created.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("product created inactive should stay inactive")
	}

	if _, err := svc.GetBySlug("winter-squash", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive product should be hidden from storefront, got %v", err)
	}
	if _, err := svc.GetBySlug("winter-squash", false); err != nil {
		t.Fatalf("admin lookup should still find it: %v", err)
	}
}

func TestProductSetStockRejectsNegative(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	vendor := seedProductVendor(t, db, "stall-b")

	created, err := svc.Create(SaveProductInput{
		Slug:          "kale-bunch",
		Name:          "Kale Bunch",
		VendorID:      vendor.ID,
		Unit:          "bunch",
		Currency:      "USD",
		Price:         cartMoney(t, "2.50"),
		StockQuantity: 0,
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if _, err := svc.SetStock(uintToID(created.ID), -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("negative stock want ErrInvalidQuantity got %v", err)
	}
	updated, err := svc.SetStock(uintToID(created.ID), 6)
	if err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	if updated.StockQuantity != 6 {
		t.Fatalf("stock want 6 got %d", updated.StockQuantity)
	}
}
