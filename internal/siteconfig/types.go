// Package siteconfig assembles the read-only configuration the public
// storefront renders for one domain.
package siteconfig

// SiteConfiguration 一个域名的完整站点配置，每次整体重建，不做局部更新
type SiteConfiguration struct {
	Company      CompanyInfo  `json:"company"`
	Pages        []Page       `json:"pages"`
	VisualConfig VisualConfig `json:"visualConfig"`
	Domain       string       `json:"domain"`
}

// CompanyInfo 租户公开信息
type CompanyInfo struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Whatsapp    string `json:"whatsapp"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	Creci       string `json:"creci"`
	Description string `json:"description"`
	LogoURL     string `json:"logoUrl"`
}

// Page 一个页面
type Page struct {
	Slug       string    `json:"slug"`
	PageType   string    `json:"pageType"`
	Name       string    `json:"name"`
	Components []Section `json:"components"`
	Meta       PageMeta  `json:"meta"`
}

// PageMeta SEO 信息
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// Section 页面中的区块；Type 是开放字符串
type Section struct {
	ID          int                    `json:"id"`
	Type        string                 `json:"type"`
	Config      map[string]interface{} `json:"config"`
	StyleConfig map[string]interface{} `json:"styleConfig"`
	Order       int                    `json:"order"`
}

// VisualConfig 主题、品牌、联系方式等，每个字段都有值
type VisualConfig struct {
	Theme         Theme         `json:"theme"`
	Branding      Branding      `json:"branding"`
	Contact       Contact       `json:"contact"`
	Social        Social        `json:"social"`
	BusinessHours BusinessHours `json:"businessHours"`
	Layout        LayoutOptions `json:"layout"`
}

// Theme 颜色与字体
type Theme struct {
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	AccentColor     string `json:"accentColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
	HeadingFont     string `json:"headingFont"`
}

// Branding 品牌
type Branding struct {
	CompanyName string `json:"companyName"`
	LogoURL     string `json:"logoUrl"`
	FaviconURL  string `json:"faviconUrl"`
	Tagline     string `json:"tagline"`
}

// Contact 联系渠道
type Contact struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Whatsapp string `json:"whatsapp"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Creci    string `json:"creci"`
}

// Social 社交链接
type Social struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Linkedin  string `json:"linkedin"`
	Youtube   string `json:"youtube"`
	Twitter   string `json:"twitter"`
}

// BusinessHours 营业时间
type BusinessHours struct {
	Weekdays string `json:"weekdays"`
	Saturday string `json:"saturday"`
	Sunday   string `json:"sunday"`
}

// LayoutOptions 站点级布局选项
type LayoutOptions struct {
	HeaderStyle        string `json:"headerStyle"`
	FooterStyle        string `json:"footerStyle"`
	ContainerWidth     string `json:"containerWidth"`
	ShowWhatsappButton bool   `json:"showWhatsappButton"`
}
