package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category 消费类别
// 系统类别 OwnerID 为空且 IsSystem=true，对所有用户可见、不可修改；
// (owner_id, name) 唯一索引同时约束用户类别重名和系统类别重复初始化。
type Category struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	OwnerID     string    `json:"owner_id,omitempty" gorm:"size:64;not null;default:'';uniqueIndex:idx_category_owner_name,priority:1"`
	Name        string    `json:"name" gorm:"size:50;not null;uniqueIndex:idx_category_owner_name,priority:2"`
	Description string    `json:"description" gorm:"size:255"`
	Icon        string    `json:"icon" gorm:"size:50"`
	Color       string    `json:"color" gorm:"size:20;default:#64748b"` // 颜色代码，如 #ef4444
	IsSystem    bool      `json:"is_system" gorm:"not null;default:false;index"`
	OrderIndex  int       `json:"order_index" gorm:"not null;default:0;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// BeforeCreate 生成 UUID 主键
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// DefaultCategoryColor 默认灰色
const DefaultCategoryColor = "#64748b"

// 系统默认类别名称
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryHealth        = "Health"
	CategoryEducation     = "Education"
	CategoryShopping      = "Shopping"
	CategoryServices      = "Services"
	CategoryOther         = "Other"
)

// SystemCategory 系统类别种子数据
type SystemCategory struct {
	Name        string
	Description string
	Icon        string
	Color       string
}

// GetSystemCategories 返回固定的 8 个系统类别，顺序即展示顺序
func GetSystemCategories() []SystemCategory {
	return []SystemCategory{
		{CategoryFood, "Restaurants, groceries and delivery", "utensils", "#ef4444"},
		{CategoryTransport, "Fuel, public transport and rides", "car", "#3b82f6"},
		{CategoryEntertainment, "Movies, games and outings", "film", "#ec4899"},
		{CategoryHealth, "Pharmacy, doctors and insurance", "heart-pulse", "#10b981"},
		{CategoryEducation, "Courses, books and tuition", "graduation-cap", "#f59e0b"},
		{CategoryShopping, "Clothing, electronics and home", "shopping-bag", "#a855f7"},
		{CategoryServices, "Utilities, subscriptions and bills", "receipt", "#14b8a6"},
		{CategoryOther, "Everything else", "tag", DefaultCategoryColor},
	}
}
