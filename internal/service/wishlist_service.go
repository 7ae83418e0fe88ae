package service

import (
	"time"

	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"
)

// WishlistService 心愿单服务
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService 创建心愿单服务
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// ListByUser 获取用户心愿单
func (s *WishlistService) ListByUser(userID uint) ([]models.WishlistItem, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.wishlistRepo.ListByUser(userID)
}

// AddItemInput 加入心愿单输入
type AddItemInput struct {
	UserID        uint
	ProductID     uint
	NotifyRestock bool
}

// AddItem 加入心愿单。同一商品重复加入返回 ErrWishlistExists。
func (s *WishlistService) AddItem(input AddItemInput) (*models.WishlistItem, error) {
	if input.UserID == 0 || input.ProductID == 0 {
		return nil, ErrInvalidInput
	}
	product, err := s.productRepo.GetByID(uintToID(input.ProductID))
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	existing, err := s.wishlistRepo.GetByUserAndProduct(input.UserID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrWishlistExists
	}
	item := &models.WishlistItem{
		UserID:        input.UserID,
		ProductID:     input.ProductID,
		NotifyRestock: input.NotifyRestock,
		CreatedAt:     time.Now(),
	}
	if err := s.wishlistRepo.Create(item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// RemoveItem 移出心愿单（幂等，不存在时视为成功）
func (s *WishlistService) RemoveItem(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrInvalidInput
	}
	return s.wishlistRepo.DeleteByUserAndProduct(userID, productID)
}

// ListSubscribers 获取订阅到货提醒且尚未通知的用户心愿单项
func (s *WishlistService) ListSubscribers(productID uint) ([]models.WishlistItem, error) {
	if productID == 0 {
		return nil, ErrInvalidInput
	}
	return s.wishlistRepo.ListSubscribersByProduct(productID)
}

// MarkNotified 标记提醒已发送
func (s *WishlistService) MarkNotified(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.wishlistRepo.MarkNotified(ids)
}
