package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"spendwise/models"

	"gorm.io/gorm"
)

// CategoryService 消费类别管理
type CategoryService struct {
	db  *gorm.DB
	log *slog.Logger
}

// CategoryInput 创建类别参数
type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description" binding:"max=255"`
	Icon        string `json:"icon" binding:"max=50"`
	Color       string `json:"color" binding:"max=20"`
	OrderIndex  *int   `json:"order_index"`
}

// CategoryUpdate 更新类别参数，nil 字段不修改
type CategoryUpdate struct {
	Name        *string `json:"name" binding:"omitempty,max=50"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	Color       *string `json:"color" binding:"omitempty,max=20"`
	OrderIndex  *int    `json:"order_index"`
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{
		db:  db,
		log: slog.With("component", "category"),
	}
}

// Create 创建用户自定义类别
func (s *CategoryService) Create(ctx context.Context, ownerID string, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newError(ErrInvalidOperation, "类别名称不能为空")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Category{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newError(ErrConflict, "类别名称已存在")
	}

	category := models.Category{
		OwnerID:     ownerID,
		Name:        name,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
	}
	if category.Color == "" {
		category.Color = models.DefaultCategoryColor
	}
	if in.OrderIndex != nil {
		category.OrderIndex = *in.OrderIndex
	}

	if err := db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrConflict, "类别名称已存在")
		}
		return nil, err
	}
	return &category, nil
}

// List 返回用户可见的类别（自己的 + 系统类别），按 order_index、名称排序
func (s *CategoryService) List(ctx context.Context, ownerID string) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("owner_id = ? OR is_system = ?", ownerID, true).
		Order("order_index ASC, name ASC").
		Find(&categories).Error
	return categories, err
}

// Get 获取单个可见类别
func (s *CategoryService) Get(ctx context.Context, ownerID, id string) (*models.Category, error) {
	return s.find(s.db.WithContext(ctx), ownerID, id)
}

func (s *CategoryService) find(tx *gorm.DB, ownerID, id string) (*models.Category, error) {
	var category models.Category
	err := tx.Where("id = ? AND (owner_id = ? OR is_system = ?)", id, ownerID, true).
		First(&category).Error
	if err != nil {
		return nil, notFoundOr(err, "类别不存在")
	}
	return &category, nil
}

// Update 更新用户自己的类别，系统类别不可修改
func (s *CategoryService) Update(ctx context.Context, ownerID, id string, in CategoryUpdate) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	category, err := s.find(db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if category.IsSystem {
		return nil, newError(ErrInvalidOperation, "系统类别不能修改")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(ErrInvalidOperation, "类别名称不能为空")
		}
		if name != category.Name {
			var count int64
			if err := db.Model(&models.Category{}).
				Where("owner_id = ? AND name = ? AND id <> ?", ownerID, name, id).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, newError(ErrConflict, "类别名称已存在")
			}
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Icon != nil {
		updates["icon"] = *in.Icon
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}
	if in.OrderIndex != nil {
		updates["order_index"] = *in.OrderIndex
	}

	if len(updates) > 0 {
		if err := db.Model(category).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, newError(ErrConflict, "类别名称已存在")
			}
			return nil, err
		}
	}
	return s.find(db, ownerID, id)
}

// Delete 删除用户自己的类别，有消费记录引用时拒绝删除
func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := s.find(tx, ownerID, id)
		if err != nil {
			return err
		}
		if category.IsSystem {
			return newError(ErrInvalidOperation, "系统类别不能删除")
		}

		var count int64
		if err := tx.Model(&models.Expense{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return newError(ErrInvalidOperation, "该类别下存在消费记录，无法删除")
		}

		return tx.Delete(category).Error
	})
}

// Reorder 按传入顺序重排用户自己的类别，order_index 即列表下标。
// 不属于该用户的 id（包括系统类别）直接跳过，返回实际重排的数量。
func (s *CategoryService) Reorder(ctx context.Context, ownerID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	reordered := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []string
		if err := tx.Model(&models.Category{}).
			Where("owner_id = ? AND is_system = ? AND id IN ?", ownerID, false, ids).
			Pluck("id", &owned).Error; err != nil {
			return err
		}
		ownedSet := make(map[string]bool, len(owned))
		for _, id := range owned {
			ownedSet[id] = true
		}

		for i, id := range ids {
			if !ownedSet[id] {
				s.log.DebugContext(ctx, "跳过不可排序的类别", "owner_id", ownerID, "category_id", id)
				continue
			}
			if err := tx.Model(&models.Category{}).
				Where("id = ? AND owner_id = ?", id, ownerID).
				Update("order_index", i).Error; err != nil {
				return err
			}
			reordered++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reordered, nil
}

// SeedSystemDefaults 初始化系统类别，可重复执行，返回新插入的数量
func (s *CategoryService) SeedSystemDefaults(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)
	created := 0
	for i, sc := range models.GetSystemCategories() {
		var count int64
		if err := db.Model(&models.Category{}).
			Where("owner_id = ? AND name = ?", "", sc.Name).
			Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}

		category := models.Category{
			OwnerID:     "",
			Name:        sc.Name,
			Description: sc.Description,
			Icon:        sc.Icon,
			Color:       sc.Color,
			IsSystem:    true,
			OrderIndex:  (i + 1) * 10,
		}
		if err := db.Create(&category).Error; err != nil {
			// 并发初始化时由唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return created, err
		}
		created++
	}
	if created > 0 {
		s.log.InfoContext(ctx, "系统类别初始化完成", "created", created)
	}
	return created, nil
}
