package service

import (
	"strconv"
	"time"

	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID     uint            `json:"product_id"`
	Quantity      int             `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitPrice     models.Money    `json:"unit_price"`
	OriginalPrice models.Money    `json:"original_price"`
	Subtotal      models.Money    `json:"subtotal"`
	Currency      string          `json:"currency"`
	VendorID      uint            `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	Product       *models.Product `json:"product"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	Items     []CartItemDetail `json:"items"`
	Subtotal  models.Money     `json:"subtotal"`
	ItemCount int              `json:"item_count"`
	Currency  string           `json:"currency"`
}

// UpsertCartItemInput 购物车更新输入
type UpsertCartItemInput struct {
	UserID    uint
	ProductID uint
	Quantity  int
	// Increment 为 true 时在现有行上累加数量（加入购物车），否则直接覆盖（修改数量）
	Increment bool
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// lineSubtotal 行小计：round2(数量 × 实际售价)，逐行取整避免跨行漂移
func lineSubtotal(unitPrice models.Money, quantity int) models.Money {
	return unitPrice.MulInt(quantity)
}

// sumCartTotals 汇总购物车：小计为已取整行小计之和，件数为数量之和
func sumCartTotals(items []CartItemDetail) (models.Money, int) {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal.Decimal)
		count += item.Quantity
	}
	return models.NewMoneyFromDecimal(subtotal), count
}

// ListByUser 获取用户购物车（含汇总）
func (s *CartService) ListByUser(userID uint) (*CartSummary, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	details := make([]CartItemDetail, 0, len(items))
	currency := ""
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 {
			p, err := s.productRepo.GetByID(strconv.FormatUint(uint64(item.ProductID), 10))
			if err != nil {
				return nil, err
			}
			product = p
		}
		// 商品下架后自动清理购物车行
		if product == nil || !product.IsActive {
			_ = s.cartRepo.DeleteByUserAndProduct(userID, item.ProductID)
			continue
		}

		unitPrice := product.EffectivePrice()
		detail := CartItemDetail{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Unit:          product.Unit,
			UnitPrice:     unitPrice,
			OriginalPrice: product.PriceAmount,
			Subtotal:      lineSubtotal(unitPrice, item.Quantity),
			Currency:      product.Currency,
			VendorID:      product.VendorID,
			Product:       product,
		}
		if product.Vendor != nil {
			detail.VendorName = product.Vendor.Name
		}
		if currency == "" {
			currency = product.Currency
		}
		details = append(details, detail)
	}

	subtotal, itemCount := sumCartTotals(details)
	return &CartSummary{
		Items:     details,
		Subtotal:  subtotal,
		ItemCount: itemCount,
		Currency:  currency,
	}, nil
}

// UpsertItem 添加或更新购物车项。
// 数量 < 1 视为移除该行；同一商品合并为一行。
func (s *CartService) UpsertItem(input UpsertCartItemInput) error {
	if input.UserID == 0 || input.ProductID == 0 {
		return ErrInvalidInput
	}
	if input.Quantity < 1 {
		return s.cartRepo.DeleteByUserAndProduct(input.UserID, input.ProductID)
	}
	product, err := s.productRepo.GetByID(strconv.FormatUint(uint64(input.ProductID), 10))
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	if !product.InStock() {
		return ErrProductOutOfStock
	}

	quantity := input.Quantity
	if input.Increment {
		existing, err := s.cartRepo.GetByUserAndProduct(input.UserID, input.ProductID)
		if err != nil {
			return err
		}
		if existing != nil {
			quantity += existing.Quantity
		}
	}
	if quantity > product.StockQuantity {
		return ErrInvalidQuantity
	}

	now := time.Now()
	item := &models.CartItem{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.cartRepo.Upsert(item)
}

// RemoveItem 删除购物车项（幂等，不存在时视为成功）
func (s *CartService) RemoveItem(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrInvalidInput
	}
	return s.cartRepo.DeleteByUserAndProduct(userID, productID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	return s.cartRepo.ClearByUser(userID)
}
