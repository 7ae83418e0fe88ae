package service

import (
	"fmt"
	"time"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceService 发票服务。发票在支付成功时开具，开具后行项目不可变。
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	orderRepo   repository.OrderRepository
}

// NewInvoiceService 创建发票服务
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, orderRepo repository.OrderRepository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
	}
}

// generateInvoiceNo 生成发票号：前缀 + 日期 + UUID 片段
func generateInvoiceNo() string {
	return fmt.Sprintf("%s-%s-%s",
		constants.InvoiceNoPrefix,
		time.Now().Format("20060102"),
		uuid.NewString()[:8],
	)
}

// invoiceLines 从订单项生成行项目快照
func invoiceLines(items []models.OrderItem) models.JSON {
	lines := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		lines = append(lines, map[string]interface{}{
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"vendor_name":  item.VendorName,
			"unit":         item.Unit,
			"quantity":     item.Quantity,
			"unit_price":   item.UnitPrice.String(),
			"total_price":  item.TotalPrice.String(),
		})
	}
	return models.JSON{"lines": lines}
}

// IssueForOrder 为订单开具发票（幂等：已有发票时返回现有发票）
func (s *InvoiceService) IssueForOrder(orderID uint) (*models.Invoice, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	invoice := &models.Invoice{
		InvoiceNo:      generateInvoiceNo(),
		OrderID:        order.ID,
		OrderNo:        order.OrderNo,
		UserID:         order.UserID,
		Status:         constants.InvoiceStatusIssued,
		Currency:       order.Currency,
		SubtotalAmount: order.SubtotalAmount,
		TotalAmount:    order.TotalAmount,
		LinesJSON:      invoiceLines(order.Items),
		IssuedAt:       now,
		CreatedAt:      now,
	}

	var existing *models.Invoice
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.invoiceRepo.WithTx(tx)
		found, err := repo.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return nil
		}
		return repo.Create(invoice)
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return invoice, nil
}

// Get 获取发票
func (s *InvoiceService) Get(id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// GetByOrderID 按订单获取发票
func (s *InvoiceService) GetByOrderID(orderID uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// GetForUser 获取用户自己的发票
func (s *InvoiceService) GetForUser(id, userID uint) (*models.Invoice, error) {
	if id == 0 || userID == 0 {
		return nil, ErrInvalidInput
	}
	invoice, err := s.invoiceRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// List 发票列表
func (s *InvoiceService) List(filter repository.InvoiceListFilter) ([]models.Invoice, int64, error) {
	return s.invoiceRepo.List(filter)
}

// Void 作废发票（随订单退款触发，行项目保持不变）
func (s *InvoiceService) Void(id uint) error {
	invoice, err := s.invoiceRepo.GetByID(id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return ErrInvoiceNotFound
	}
	if invoice.Status == constants.InvoiceStatusVoided {
		return nil
	}
	return s.invoiceRepo.MarkVoided(id)
}
