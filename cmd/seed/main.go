package main

import (
	"log"
	"time"

	"github.com/mercato-next/internal/config"
	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/models"

	"github.com/shopspring/decimal"
)

func money(s string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(s))
}

func moneyPtr(s string) *models.Money {
	m := money(s)
	return &m
}

// slugExists 判断记录是否已写入，幂等重跑的依据
func slugExists(model interface{}, column, value string) bool {
	var count int64
	models.DB.Model(model).Where(column+" = ?", value).Count(&count)
	return count > 0
}

func connectDatabase(stdLog *log.Logger, cfg *config.Config) {
	pool := models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, pool); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	connectDatabase(stdLog, cfg)

	// 商户
	vendors := []models.Vendor{
		{
			Slug:        "green-valley-farm",
			Name:        "Green Valley Farm",
			Description: "Family-run farm supplying seasonal vegetables and free-range eggs.",
			Address:     "12 Orchard Lane",
			Phone:       "+1-555-0101",
			Email:       "hello@greenvalley.example",
			Status:      constants.VendorStatusActive,
			SortOrder:   10,
		},
		{
			Slug:        "brick-lane-bakery",
			Name:        "Brick Lane Bakery",
			Description: "Sourdough loaves and pastries baked every morning.",
			Address:     "48 Brick Lane",
			Phone:       "+1-555-0102",
			Email:       "orders@bricklane.example",
			Status:      constants.VendorStatusActive,
			SortOrder:   20,
		},
		{
			Slug:        "harbor-fishmonger",
			Name:        "Harbor Fishmonger",
			Description: "Daily catch from the harbor, cleaned and filleted to order.",
			Address:     "3 Quay Street",
			Phone:       "+1-555-0103",
			Email:       "counter@harborfish.example",
			Status:      constants.VendorStatusActive,
			SortOrder:   30,
		},
	}
	for _, vendor := range vendors {
		if slugExists(&models.Vendor{}, "slug", vendor.Slug) {
			stdLog.Printf("Vendor already exists: %s", vendor.Slug)
			continue
		}
		if err := models.DB.Create(&vendor).Error; err != nil {
			stdLog.Printf("Failed to create vendor %s: %v", vendor.Slug, err)
			continue
		}
		stdLog.Printf("Created vendor: %s", vendor.Slug)
	}

	vendorIDs := map[string]uint{}
	var vendorList []models.Vendor
	if err := models.DB.Find(&vendorList).Error; err != nil {
		stdLog.Printf("Failed to load vendors: %v", err)
	}
	for _, vendor := range vendorList {
		vendorIDs[vendor.Slug] = vendor.ID
	}

	// 品类
	categories := []models.Category{
		{Slug: "produce", Name: "Fresh Produce", Description: "Seasonal fruit and vegetables", SortOrder: 10},
		{Slug: "bakery", Name: "Bakery", Description: "Bread, pastries and cakes", SortOrder: 20},
		{Slug: "seafood", Name: "Seafood", Description: "Fresh fish and shellfish", SortOrder: 30},
		{Slug: "dairy-eggs", Name: "Dairy & Eggs", Description: "Milk, cheese and free-range eggs", SortOrder: 40},
	}
	for _, category := range categories {
		if slugExists(&models.Category{}, "slug", category.Slug) {
			stdLog.Printf("Category already exists: %s", category.Slug)
			continue
		}
		if err := models.DB.Create(&category).Error; err != nil {
			stdLog.Printf("Failed to create category %s: %v", category.Slug, err)
			continue
		}
		stdLog.Printf("Created category: %s", category.Slug)
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, category := range categoryList {
		categoryIDs[category.Slug] = category.ID
	}

	// 商品
	products := []models.Product{
		{
			Slug:          "heirloom-tomatoes",
			Name:          "Heirloom Tomatoes",
			Description:   "Mixed heirloom varieties picked the same morning.",
			VendorID:      vendorIDs["green-valley-farm"],
			CategoryID:    categoryIDs["produce"],
			Unit:          "kg",
			Currency:      "USD",
			PriceAmount:   money("6.50"),
			StockQuantity: 40,
			Tags:          models.StringArray([]string{"vegetables", "seasonal"}),
			IsActive:      true,
		},
		{
			Slug:            "free-range-eggs-dozen",
			Name:            "Free-Range Eggs (Dozen)",
			Description:     "Large free-range eggs from pasture-raised hens.",
			VendorID:        vendorIDs["green-valley-farm"],
			CategoryID:      categoryIDs["dairy-eggs"],
			Unit:            "dozen",
			Currency:        "USD",
			PriceAmount:     money("5.20"),
			SalePriceAmount: moneyPtr("4.80"),
			StockQuantity:   60,
			Tags:            models.StringArray([]string{"eggs", "free-range"}),
			IsActive:        true,
		},
		{
			Slug:          "sourdough-loaf",
			Name:          "Sourdough Loaf",
			Description:   "Naturally leavened 800g loaf, 24-hour fermentation.",
			VendorID:      vendorIDs["brick-lane-bakery"],
			CategoryID:    categoryIDs["bakery"],
			Unit:          "each",
			Currency:      "USD",
			PriceAmount:   money("7.00"),
			StockQuantity: 25,
			Tags:          models.StringArray([]string{"bread", "sourdough"}),
			IsActive:      true,
		},
		{
			Slug:            "almond-croissant",
			Name:            "Almond Croissant",
			Description:     "Twice-baked croissant filled with almond frangipane.",
			VendorID:        vendorIDs["brick-lane-bakery"],
			CategoryID:      categoryIDs["bakery"],
			Unit:            "each",
			Currency:        "USD",
			PriceAmount:     money("4.50"),
			SalePriceAmount: moneyPtr("3.99"),
			StockQuantity:   30,
			Tags:            models.StringArray([]string{"pastry"}),
			IsActive:        true,
		},
		{
			Slug:          "day-boat-cod-fillet",
			Name:          "Day-Boat Cod Fillet",
			Description:   "Skin-on cod fillet, landed this morning.",
			VendorID:      vendorIDs["harbor-fishmonger"],
			CategoryID:    categoryIDs["seafood"],
			Unit:          "kg",
			Currency:      "USD",
			PriceAmount:   money("21.00"),
			StockQuantity: 12,
			Tags:          models.StringArray([]string{"fish", "daily-catch"}),
			IsActive:      true,
		},
	}
	for _, product := range products {
		if product.VendorID == 0 {
			stdLog.Printf("Skipping product %s: vendor missing", product.Slug)
			continue
		}
		if slugExists(&models.Product{}, "slug", product.Slug) {
			stdLog.Printf("Product already exists: %s", product.Slug)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			continue
		}
		stdLog.Printf("Created product: %s", product.Slug)
	}

	// 文章
	now := time.Now()
	posts := []models.Post{
		{
			Slug:        "welcome-to-the-market",
			Type:        constants.PostTypeNotice,
			Title:       "Welcome to the Market",
			Summary:     "Opening hours, pickup points and how ordering works.",
			Content:     "Order online before 8pm and collect from your chosen pickup point the next day. Each vendor packs your items into a single order for one checkout.",
			IsPublished: true,
			PublishedAt: &now,
		},
		{
			Slug:        "tomato-panzanella",
			Type:        constants.PostTypeRecipe,
			Title:       "Heirloom Tomato Panzanella",
			Summary:     "A five-ingredient salad built around day-old sourdough.",
			Content:     "Tear stale sourdough into chunks, toss with chopped heirloom tomatoes, olive oil, red onion and basil. Rest ten minutes before serving.",
			IsPublished: true,
			PublishedAt: &now,
		},
		{
			Slug:        "meet-green-valley-farm",
			Type:        constants.PostTypeBlog,
			Title:       "Meet the Grower: Green Valley Farm",
			Summary:     "Three generations of vegetable growing on twelve acres.",
			Content:     "We visited Green Valley Farm to see how their seasonal rotation keeps the soil healthy and the market stalls full year round.",
			IsPublished: true,
			PublishedAt: &now,
		},
	}
	for _, post := range posts {
		if slugExists(&models.Post{}, "slug", post.Slug) {
			stdLog.Printf("Post already exists: %s", post.Slug)
			continue
		}
		if err := models.DB.Create(&post).Error; err != nil {
			stdLog.Printf("Failed to create post %s: %v", post.Slug, err)
			continue
		}
		stdLog.Printf("Created post: %s", post.Slug)
	}

	// 支付渠道（密钥留空，上线前在后台补全）
	channels := []models.PaymentChannel{
		{
			Code:     "stripe-card",
			Name:     "Card (Stripe)",
			Provider: constants.PaymentProviderStripe,
			Type:     "redirect",
			Config: models.JSON(map[string]interface{}{
				"secret_key":     "",
				"webhook_secret": "",
			}),
			IsEnabled: false,
			SortOrder: 10,
		},
	}
	for _, channel := range channels {
		if slugExists(&models.PaymentChannel{}, "code", channel.Code) {
			stdLog.Printf("Payment channel already exists: %s", channel.Code)
			continue
		}
		if err := models.DB.Create(&channel).Error; err != nil {
			stdLog.Printf("Failed to create payment channel %s: %v", channel.Code, err)
			continue
		}
		stdLog.Printf("Created payment channel: %s", channel.Code)
	}

	stdLog.Println("Seed completed")
}
