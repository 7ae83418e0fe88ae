package service

import (
	"strings"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"
)

// VendorService 商户服务
type VendorService struct {
	vendorRepo  repository.VendorRepository
	productRepo repository.ProductRepository
}

// NewVendorService 创建商户服务
func NewVendorService(vendorRepo repository.VendorRepository, productRepo repository.ProductRepository) *VendorService {
	return &VendorService{
		vendorRepo:  vendorRepo,
		productRepo: productRepo,
	}
}

// List 商户列表
func (s *VendorService) List(filter repository.VendorListFilter) ([]models.Vendor, int64, error) {
	return s.vendorRepo.List(filter)
}

// GetBySlug 按 slug 获取商户
func (s *VendorService) GetBySlug(slug string, onlyActive bool) (*models.Vendor, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrInvalidInput
	}
	vendor, err := s.vendorRepo.GetBySlug(slug, onlyActive)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	return vendor, nil
}

// GetByID 按 ID 获取商户
func (s *VendorService) GetByID(id string) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	return vendor, nil
}

// SaveVendorInput 商户创建/更新输入
type SaveVendorInput struct {
	Slug        string
	Name        string
	Description string
	LogoURL     string
	Address     string
	Phone       string
	Email       string
	Status      string
	SortOrder   int
}

func (s *VendorService) validateSaveInput(input *SaveVendorInput, excludeID *string) error {
	input.Slug = strings.TrimSpace(input.Slug)
	input.Name = strings.TrimSpace(input.Name)
	if input.Slug == "" || input.Name == "" {
		return ErrInvalidInput
	}
	if input.Status == "" {
		input.Status = constants.VendorStatusActive
	}
	if input.Status != constants.VendorStatusActive && input.Status != constants.VendorStatusSuspended {
		return ErrInvalidInput
	}
	count, err := s.vendorRepo.CountBySlug(input.Slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}

// Create 创建商户
func (s *VendorService) Create(input SaveVendorInput) (*models.Vendor, error) {
	if err := s.validateSaveInput(&input, nil); err != nil {
		return nil, err
	}
	vendor := &models.Vendor{
		Slug:        input.Slug,
		Name:        input.Name,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		Address:     input.Address,
		Phone:       input.Phone,
		Email:       input.Email,
		Status:      input.Status,
		SortOrder:   input.SortOrder,
	}
	if err := s.vendorRepo.Create(vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// Update 更新商户
func (s *VendorService) Update(id string, input SaveVendorInput) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	if err := s.validateSaveInput(&input, &id); err != nil {
		return nil, err
	}
	vendor.Slug = input.Slug
	vendor.Name = input.Name
	vendor.Description = input.Description
	vendor.LogoURL = input.LogoURL
	vendor.Address = input.Address
	vendor.Phone = input.Phone
	vendor.Email = input.Email
	vendor.Status = input.Status
	vendor.SortOrder = input.SortOrder
	if err := s.vendorRepo.Update(vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// Delete 删除商户。仍有商品挂在商户下时拒绝删除。
func (s *VendorService) Delete(id string) error {
	vendor, err := s.vendorRepo.GetByID(id)
	if err != nil {
		return err
	}
	if vendor == nil {
		return ErrVendorNotFound
	}
	count, err := s.vendorRepo.CountProducts(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrInvalidInput
	}
	return s.vendorRepo.Delete(id)
}
