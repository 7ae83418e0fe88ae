package admin

import (
	"errors"
	"strings"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveProductRequest 商品创建 / 更新请求，金额字段使用十进制字符串
type SaveProductRequest struct {
	Slug          string   `json:"slug" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	VendorID      uint     `json:"vendor_id" binding:"required"`
	CategoryID    uint     `json:"category_id"`
	Unit          string   `json:"unit"`
	Currency      string   `json:"currency"`
	Price         string   `json:"price" binding:"required"`
	SalePrice     *string  `json:"sale_price"`
	StockQuantity int      `json:"stock_quantity"`
	Images        []string `json:"images"`
	Tags          []string `json:"tags"`
	SortOrder     int      `json:"sort_order"`
	IsActive      bool     `json:"is_active"`
}

func (r *SaveProductRequest) toInput() (service.SaveProductInput, error) {
	price, err := models.NewMoneyFromString(r.Price)
	if err != nil {
		return service.SaveProductInput{}, err
	}
	input := service.SaveProductInput{
		Slug:          r.Slug,
		Name:          r.Name,
		Description:   r.Description,
		VendorID:      r.VendorID,
		CategoryID:    r.CategoryID,
		Unit:          r.Unit,
		Currency:      r.Currency,
		Price:         price,
		StockQuantity: r.StockQuantity,
		Images:        r.Images,
		Tags:          r.Tags,
		SortOrder:     r.SortOrder,
		IsActive:      r.IsActive,
	}
	if r.SalePrice != nil && strings.TrimSpace(*r.SalePrice) != "" {
		salePrice, err := models.NewMoneyFromString(*r.SalePrice)
		if err != nil {
			return service.SaveProductInput{}, err
		}
		input.SalePrice = &salePrice
	}
	return input, nil
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSlugExists):
		respondError(c, response.CodeBadRequest, "error.slug_exists", nil)
	case errors.Is(err, service.ErrVendorNotFound):
		respondError(c, response.CodeBadRequest, "error.vendor_not_found", nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "error.not_found", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// ListAdminProducts 商品列表（含下架商品）
func (h *Handler) ListAdminProducts(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   c.Query("category_id"),
		VendorID:     c.Query("vendor_id"),
		Search:       c.Query("search"),
		WithCategory: true,
		WithVendor:   true,
	}
	products, total, err := h.ProductService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"products": products}, buildPagination(page, pageSize, total))
}

// GetAdminProduct 商品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	product, err := h.ProductService.GetByID(c.Param("id"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Update(c.Param("id"), input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, product)
}

// SetProductStockRequest 库存回补请求
type SetProductStockRequest struct {
	Quantity int `json:"quantity"`
}

// SetProductStock 设置库存，补货会触发到货提醒
func (h *Handler) SetProductStock(c *gin.Context) {
	var req SetProductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.SetStock(c.Param("id"), req.Quantity)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.ProductService.Delete(c.Param("id")); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// SaveCategoryRequest 品类创建 / 更新请求
type SaveCategoryRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sort_order"`
}

// ListAdminCategories 品类列表
func (h *Handler) ListAdminCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

// CreateCategory 创建品类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req SaveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CategoryService.Create(service.SaveCategoryInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, category)
}

// UpdateCategory 更新品类
func (h *Handler) UpdateCategory(c *gin.Context) {
	var req SaveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CategoryService.Update(c.Param("id"), service.SaveCategoryInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除品类，仍挂有商品时拒绝
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.CategoryService.Delete(c.Param("id")); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// SaveVendorRequest 商户创建 / 更新请求
type SaveVendorRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Status      string `json:"status"`
	SortOrder   int    `json:"sort_order"`
}

func (r *SaveVendorRequest) toInput() service.SaveVendorInput {
	return service.SaveVendorInput{
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		LogoURL:     r.LogoURL,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		Status:      r.Status,
		SortOrder:   r.SortOrder,
	}
}

// ListAdminVendors 商户列表（含停业商户）
func (h *Handler) ListAdminVendors(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	vendors, total, err := h.VendorService.List(repository.VendorListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"vendors": vendors}, buildPagination(page, pageSize, total))
}

// GetAdminVendor 商户详情
func (h *Handler) GetAdminVendor(c *gin.Context) {
	vendor, err := h.VendorService.GetByID(c.Param("id"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, vendor)
}

// CreateVendor 创建商户
func (h *Handler) CreateVendor(c *gin.Context) {
	var req SaveVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	vendor, err := h.VendorService.Create(req.toInput())
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, vendor)
}

// UpdateVendor 更新商户
func (h *Handler) UpdateVendor(c *gin.Context) {
	var req SaveVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	vendor, err := h.VendorService.Update(c.Param("id"), req.toInput())
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, vendor)
}

// DeleteVendor 删除商户，仍挂有商品时拒绝
func (h *Handler) DeleteVendor(c *gin.Context) {
	if err := h.VendorService.Delete(c.Param("id")); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}
