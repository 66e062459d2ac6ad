package model

// Company 租户（一家使用平台建站的房产公司）
type Company struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Email       string `gorm:"type:varchar(255)" json:"email"`
	Phone       string `gorm:"type:varchar(32)" json:"phone"`
	Whatsapp    string `gorm:"type:varchar(32)" json:"whatsapp"`
	Address     string `gorm:"type:varchar(255)" json:"address"`
	City        string `gorm:"type:varchar(128)" json:"city"`
	State       string `gorm:"type:varchar(64)" json:"state"`
	ZipCode     string `gorm:"type:varchar(16)" json:"zipCode"`
	Creci       string `gorm:"type:varchar(32)" json:"creci"` // 经纪人执照号
	Description string `gorm:"type:text" json:"description"`
	LogoURL     string `gorm:"type:varchar(1024)" json:"logoUrl"`

	// 主自定义域名（仅在域名 active 时同步）
	CustomDomain string `gorm:"type:varchar(255);index:idx_companies_custom_domain" json:"customDomain"`

	WebsiteEnabled   bool `gorm:"default:false" json:"websiteEnabled"`
	WebsitePublished bool `gorm:"default:false" json:"websitePublished"`

	Domains []CustomDomain `gorm:"foreignKey:CompanyID" json:"domains,omitempty"`
}

// TableName 指定表名
func (Company) TableName() string {
	return "companies"
}
