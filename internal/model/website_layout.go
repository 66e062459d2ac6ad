package model

import (
	"time"

	"gorm.io/datatypes"
)

// PageType 页面类型
type PageType string

const (
	PageTypeHome           PageType = "home"
	PageTypeProperties     PageType = "properties"
	PageTypePropertyDetail PageType = "property-detail"
	PageTypeAbout          PageType = "about"
	PageTypeContact        PageType = "contact"
	PageTypeCustom         PageType = "custom"
)

// PageTypes 按站点导航顺序排列
var PageTypes = []PageType{
	PageTypeHome,
	PageTypeProperties,
	PageTypePropertyDetail,
	PageTypeAbout,
	PageTypeContact,
	PageTypeCustom,
}

// Valid 是否为已知页面类型
func (p PageType) Valid() bool {
	for _, t := range PageTypes {
		if t == p {
			return true
		}
	}
	return false
}

// WebsiteLayout 网站布局（某租户某页面类型的有序区块列表）
// 同一 (company_id, page_type) 最多一个 is_active = true
type WebsiteLayout struct {
	BaseModel
	CompanyID       int        `gorm:"not null;index:idx_layouts_company_page" json:"companyId"`
	PageType        PageType   `gorm:"type:varchar(32);not null;index:idx_layouts_company_page" json:"pageType"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	Slug            string     `gorm:"type:varchar(255)" json:"slug"` // 为空时使用页面类型默认路径
	IsActive        bool       `gorm:"default:false;index" json:"isActive"`
	IsDefault       bool       `gorm:"default:false" json:"isDefault"`
	MetaTitle       string     `gorm:"type:varchar(255)" json:"metaTitle"`
	MetaDescription string     `gorm:"type:varchar(1024)" json:"metaDescription"`
	MetaKeywords    string     `gorm:"type:varchar(1024)" json:"metaKeywords"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`

	Sections []LayoutSection `gorm:"foreignKey:LayoutID" json:"sections"`
}

// TableName 指定表名
func (WebsiteLayout) TableName() string {
	return "website_layouts"
}

// LayoutSection 布局中的一个内容区块
type LayoutSection struct {
	BaseModel
	LayoutID      int               `gorm:"not null;index" json:"layoutId"`
	ComponentType string            `gorm:"type:varchar(64);not null" json:"componentType"` // 开放字符串，不是封闭枚举
	Config        datatypes.JSONMap `gorm:"type:json" json:"config"`
	StyleConfig   datatypes.JSONMap `gorm:"type:json" json:"styleConfig"`
	Order         int               `gorm:"column:sort_order;not null;default:0" json:"order"`
}

// TableName 指定表名
func (LayoutSection) TableName() string {
	return "layout_sections"
}
