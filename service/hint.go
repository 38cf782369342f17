package service

import (
	"strings"

	"spendwise/models"
)

// categoryHints 识别结果中的类别提示 -> 类别名称。
// 提示可能是英文关键字或中文，统一小写后查表。
var categoryHints = map[string]string{
	"food":           models.CategoryFood,
	"restaurant":     models.CategoryFood,
	"grocery":        models.CategoryFood,
	"groceries":      models.CategoryFood,
	"coffee":         models.CategoryFood,
	"餐饮":             models.CategoryFood,
	"transport":      models.CategoryTransport,
	"transportation": models.CategoryTransport,
	"taxi":           models.CategoryTransport,
	"fuel":           models.CategoryTransport,
	"gas":            models.CategoryTransport,
	"parking":        models.CategoryTransport,
	"交通":             models.CategoryTransport,
	"entertainment":  models.CategoryEntertainment,
	"movie":          models.CategoryEntertainment,
	"games":          models.CategoryEntertainment,
	"娱乐":             models.CategoryEntertainment,
	"health":         models.CategoryHealth,
	"pharmacy":       models.CategoryHealth,
	"medical":        models.CategoryHealth,
	"医疗":             models.CategoryHealth,
	"education":      models.CategoryEducation,
	"books":          models.CategoryEducation,
	"course":         models.CategoryEducation,
	"教育":             models.CategoryEducation,
	"shopping":       models.CategoryShopping,
	"clothing":       models.CategoryShopping,
	"electronics":    models.CategoryShopping,
	"购物":             models.CategoryShopping,
	"services":       models.CategoryServices,
	"utilities":      models.CategoryServices,
	"subscription":   models.CategoryServices,
	"bills":          models.CategoryServices,
	"服务":             models.CategoryServices,
	"other":          models.CategoryOther,
	"其他":             models.CategoryOther,
}

// resolveHint 把提示映射为类别名称，未知提示返回空
func resolveHint(hint string) string {
	return categoryHints[strings.ToLower(strings.TrimSpace(hint))]
}

// pickCategory 在可见类别中选择提示对应的类别；
// 同名时优先用户自己的类别，找不到时回退到 Other，再回退到第一个类别。
func pickCategory(categories []models.Category, hint string) *models.Category {
	if len(categories) == 0 {
		return nil
	}

	byName := func(name string) *models.Category {
		var system *models.Category
		for i := range categories {
			c := &categories[i]
			if !strings.EqualFold(c.Name, name) {
				continue
			}
			if !c.IsSystem {
				return c
			}
			if system == nil {
				system = c
			}
		}
		return system
	}

	if name := resolveHint(hint); name != "" {
		if c := byName(name); c != nil {
			return c
		}
	}
	if hint = strings.TrimSpace(hint); hint != "" {
		if c := byName(hint); c != nil {
			return c
		}
	}
	if c := byName(models.CategoryOther); c != nil {
		return c
	}
	return &categories[0]
}
