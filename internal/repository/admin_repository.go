package repository

import (
	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// AdminRepository 员工数据访问接口
type AdminRepository interface {
	GetByUsername(username string) (*models.Admin, error)
	GetByID(id uint) (*models.Admin, error)
	List(page, pageSize int) ([]models.Admin, int64, error)
	Create(admin *models.Admin) error
	Update(admin *models.Admin) error
	Delete(id uint) error
	BumpTokenVersion(id uint) error
}

// GormAdminRepository AdminRepository 的 GORM 实现
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建员工仓库
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// GetByUsername 根据账号获取员工，未找到返回 nil
func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	var admin models.Admin
	found, err := fetchFirst(r.db.Where("username = ?", username), &admin)
	if !found || err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByID 根据 ID 获取员工，未找到返回 nil
func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	var admin models.Admin
	found, err := fetchFirst(r.db, &admin, id)
	if !found || err != nil {
		return nil, err
	}
	return &admin, nil
}

// List 员工列表，按创建先后正序
func (r *GormAdminRepository) List(page, pageSize int) ([]models.Admin, int64, error) {
	query := r.db.Model(&models.Admin{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var admins []models.Admin
	err := applyPagination(query, page, pageSize).
		Order("id asc").
		Find(&admins).Error
	if err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

// Create 创建员工
func (r *GormAdminRepository) Create(admin *models.Admin) error {
	return r.db.Create(admin).Error
}

// Update 更新员工
func (r *GormAdminRepository) Update(admin *models.Admin) error {
	return r.db.Save(admin).Error
}

// Delete 删除员工
func (r *GormAdminRepository) Delete(id uint) error {
	return r.db.Delete(&models.Admin{}, id).Error
}

// BumpTokenVersion 提升 Token 版本，使已签发 Token 全量失效
func (r *GormAdminRepository) BumpTokenVersion(id uint) error {
	return r.db.Model(&models.Admin{}).
		Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + 1")).Error
}
