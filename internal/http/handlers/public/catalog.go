package public

import (
	"strconv"

	handlershared "github.com/mercato-next/internal/http/handlers/shared"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表（仅上架商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   c.Query("category_id"),
		VendorID:     c.Query("vendor_id"),
		Search:       c.Query("search"),
		OnlyActive:   true,
		InStockOnly:  c.Query("in_stock") == "true",
		OnSaleOnly:   c.Query("on_sale") == "true",
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

// GetProduct 商品详情（按 slug）
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.ProductService.GetBySlug(c.Param("slug"), true)
	if err != nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	response.Success(c, product)
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

// ListVendors 商户列表（仅营业中）
func (h *Handler) ListVendors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	vendors, total, err := h.VendorService.List(repository.VendorListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     c.Query("search"),
		OnlyActive: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"vendors": vendors}, buildPagination(page, pageSize, total))
}

// GetVendor 商户详情（按 slug）
func (h *Handler) GetVendor(c *gin.Context) {
	vendor, err := h.VendorService.GetBySlug(c.Param("slug"), true)
	if err != nil {
		respondError(c, response.CodeNotFound, "error.vendor_not_found", nil)
		return
	}
	response.Success(c, vendor)
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPage++
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
