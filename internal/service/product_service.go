package service

import (
	"strconv"
	"strings"

	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/queue"
	"github.com/mercato-next/internal/repository"
)

// ProductService 商品服务
type ProductService struct {
	productRepo  repository.ProductRepository
	vendorRepo   repository.VendorRepository
	categoryRepo repository.CategoryRepository
	queueClient  *queue.Client
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo repository.ProductRepository,
	vendorRepo repository.VendorRepository,
	categoryRepo repository.CategoryRepository,
	queueClient *queue.Client,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		vendorRepo:   vendorRepo,
		categoryRepo: categoryRepo,
		queueClient:  queueClient,
	}
}

// List 商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetBySlug 按 slug 获取商品
func (s *ProductService) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrInvalidInput
	}
	product, err := s.productRepo.GetBySlug(slug, onlyActive)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// GetByID 按 ID 获取商品
func (s *ProductService) GetByID(id string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// SaveProductInput 商品创建/更新输入
type SaveProductInput struct {
	Slug          string
	Name          string
	Description   string
	VendorID      uint
	CategoryID    uint
	Unit          string
	Currency      string
	Price         models.Money
	SalePrice     *models.Money
	StockQuantity int
	Images        []string
	Tags          []string
	SortOrder     int
	IsActive      bool
}

func (s *ProductService) validateSaveInput(input *SaveProductInput, excludeID *string) error {
	input.Slug = strings.TrimSpace(input.Slug)
	input.Name = strings.TrimSpace(input.Name)
	if input.Slug == "" || input.Name == "" || input.VendorID == 0 {
		return ErrInvalidInput
	}
	if input.Price.Decimal.IsNegative() || input.StockQuantity < 0 {
		return ErrInvalidInput
	}
	if input.SalePrice != nil && input.SalePrice.Decimal.GreaterThan(input.Price.Decimal) {
		return ErrInvalidInput
	}
	count, err := s.productRepo.CountBySlug(input.Slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugExists
	}
	vendor, err := s.vendorRepo.GetByID(uintToID(input.VendorID))
	if err != nil {
		return err
	}
	if vendor == nil {
		return ErrVendorNotFound
	}
	if input.CategoryID != 0 {
		category, err := s.categoryRepo.GetByID(uintToID(input.CategoryID))
		if err != nil {
			return err
		}
		if category == nil {
			return ErrNotFound
		}
	}
	return nil
}

// Create 创建商品
func (s *ProductService) Create(input SaveProductInput) (*models.Product, error) {
	if err := s.validateSaveInput(&input, nil); err != nil {
		return nil, err
	}
	product := &models.Product{
		Slug:            input.Slug,
		Name:            input.Name,
		Description:     input.Description,
		VendorID:        input.VendorID,
		CategoryID:      input.CategoryID,
		Unit:            input.Unit,
		Currency:        input.Currency,
		PriceAmount:     input.Price,
		SalePriceAmount: input.SalePrice,
		StockQuantity:   input.StockQuantity,
		Images:          input.Images,
		Tags:            input.Tags,
		SortOrder:       input.SortOrder,
		IsActive:        input.IsActive,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新商品。库存从 0 变为正数时触发到货提醒。
func (s *ProductService) Update(id string, input SaveProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	if err := s.validateSaveInput(&input, &id); err != nil {
		return nil, err
	}

	restocked := product.StockQuantity == 0 && input.StockQuantity > 0

	product.Slug = input.Slug
	product.Name = input.Name
	product.Description = input.Description
	product.VendorID = input.VendorID
	product.CategoryID = input.CategoryID
	product.Unit = input.Unit
	product.Currency = input.Currency
	product.PriceAmount = input.Price
	product.SalePriceAmount = input.SalePrice
	product.StockQuantity = input.StockQuantity
	product.Images = input.Images
	product.Tags = input.Tags
	product.SortOrder = input.SortOrder
	product.IsActive = input.IsActive

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	if restocked && product.IsActive {
		s.notifyRestock(product.ID)
	}
	return product, nil
}

// SetStock 直接设置库存，补货时触发到货提醒
func (s *ProductService) SetStock(id string, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	restocked := product.StockQuantity == 0 && quantity > 0
	if err := s.productRepo.SetStock(product.ID, quantity); err != nil {
		return nil, err
	}
	product.StockQuantity = quantity
	if restocked && product.IsActive {
		s.notifyRestock(product.ID)
	}
	return product, nil
}

// Delete 删除商品（软删除）
func (s *ProductService) Delete(id string) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}
	return s.productRepo.Delete(id)
}

func uintToID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// notifyRestock 到货提醒为异步副作用，失败不阻塞商品更新
func (s *ProductService) notifyRestock(productID uint) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueRestockNotify(queue.RestockNotifyPayload{ProductID: productID}); err != nil {
		logger.Warnw("product_enqueue_restock_notify_failed", "product_id", productID, "error", err)
	}
}
