package layout

import (
	"go_sitebuilder/internal/model"

	"gorm.io/datatypes"
)

// LayoutInput 创建布局请求
type LayoutInput struct {
	PageType        model.PageType `json:"pageType" binding:"required"`
	Name            string         `json:"name" binding:"required"`
	Slug            string         `json:"slug"`
	IsActive        bool           `json:"isActive"`
	IsDefault       bool           `json:"isDefault"`
	MetaTitle       string         `json:"metaTitle"`
	MetaDescription string         `json:"metaDescription"`
	MetaKeywords    string         `json:"metaKeywords"`
	Sections        []SectionInput `json:"sections"`
}

// LayoutPatch 更新布局请求（nil 字段不修改）
type LayoutPatch struct {
	Name            *string         `json:"name"`
	Slug            *string         `json:"slug"`
	IsDefault       *bool           `json:"isDefault"`
	MetaTitle       *string         `json:"metaTitle"`
	MetaDescription *string         `json:"metaDescription"`
	MetaKeywords    *string         `json:"metaKeywords"`
	Sections        *[]SectionInput `json:"sections"` // 整体替换区块列表
}

// SectionInput 新增区块请求
type SectionInput struct {
	ComponentType string            `json:"componentType" binding:"required"`
	Config        datatypes.JSONMap `json:"config"`
	StyleConfig   datatypes.JSONMap `json:"styleConfig"`
}

// SectionPatch 更新区块请求
type SectionPatch struct {
	ComponentType *string           `json:"componentType"`
	Config        datatypes.JSONMap `json:"config"`
	StyleConfig   datatypes.JSONMap `json:"styleConfig"`
	Order         *int              `json:"order"` // 移动到指定位置
}
