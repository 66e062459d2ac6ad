package model

import "gorm.io/datatypes"

// CompanySettings 租户站点设置（主题、品牌、社交、营业时间等，自由键值）
type CompanySettings struct {
	BaseModel
	CompanyID int               `gorm:"not null;uniqueIndex:uk_company_settings_company" json:"companyId"`
	Settings  datatypes.JSONMap `gorm:"type:json" json:"settings"`
}

// TableName 指定表名
func (CompanySettings) TableName() string {
	return "company_settings"
}
