package model

import "time"

// DomainStatus 自定义域名状态
type DomainStatus string

const (
	DomainStatusPending  DomainStatus = "pending"
	DomainStatusVerified DomainStatus = "verified"
	DomainStatusActive   DomainStatus = "active"
	DomainStatusFailed   DomainStatus = "failed"
	DomainStatusDisabled DomainStatus = "disabled"
)

// CustomDomain 租户自定义域名
type CustomDomain struct {
	BaseModel
	CompanyID         int          `gorm:"not null;index" json:"companyId"`
	Domain            string       `gorm:"type:varchar(255);uniqueIndex:uk_custom_domains_domain;not null" json:"domain"`
	Subdomain         string       `gorm:"type:varchar(255)" json:"subdomain"`
	IsPrimary         bool         `gorm:"default:false" json:"isPrimary"`
	SSLEnabled        bool         `gorm:"default:false" json:"sslEnabled"`
	DNSConfigured     bool         `gorm:"default:false" json:"dnsConfigured"`
	VerificationToken string       `gorm:"type:varchar(64);not null" json:"verificationToken"`
	Status            DomainStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	LastError         string       `gorm:"type:varchar(1024)" json:"lastError"`
	VerifiedAt        *time.Time   `json:"verifiedAt,omitempty"`
	ActivatedAt       *time.Time   `json:"activatedAt,omitempty"`
	LastCheckedAt     *time.Time   `json:"lastCheckedAt,omitempty"`
	SSLExpiresAt      *time.Time   `json:"sslExpiresAt,omitempty"`
	CertPEM           string       `gorm:"type:text" json:"-"`
	KeyPEM            string       `gorm:"type:text" json:"-"`
}

// TableName 指定表名
func (CustomDomain) TableName() string {
	return "custom_domains"
}
