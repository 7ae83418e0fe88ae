package repository

import (
	"errors"

	"gorm.io/gorm"
)

// applyPagination 应用分页参数。pageSize <= 0 表示不分页，页码下限为 1。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// fetchFirst 执行 First 查询并返回是否命中，未找到不视为错误
func fetchFirst(query *gorm.DB, dest interface{}, conds ...interface{}) (bool, error) {
	err := query.First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// countSlugConflicts 统计同 slug 的记录数，excludeID 用于更新场景排除自身
func countSlugConflicts(db *gorm.DB, model interface{}, slug string, excludeID *string) (int64, error) {
	query := db.Model(model).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
