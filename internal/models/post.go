package models

import (
	"time"

	"gorm.io/gorm"
)

// Post 内容文章表，Type 区分博客、公告与食谱
type Post struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Type        string         `gorm:"type:varchar(20);not null;index" json:"type"`
	Title       string         `gorm:"not null" json:"title"`
	Summary     string         `gorm:"type:text" json:"summary"`
	Content     string         `gorm:"type:text" json:"content"`
	Thumbnail   string         `gorm:"type:varchar(500)" json:"thumbnail"`
	IsPublished bool           `gorm:"default:false;index" json:"is_published"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Post) TableName() string {
	return "posts"
}
