package siteconfig

import (
	"strings"

	"go_sitebuilder/internal/model"
)

// 硬编码默认值，任何字段最终都会落到这里
var defaultVisual = VisualConfig{
	Theme: Theme{
		PrimaryColor:    "#1e3a8a",
		SecondaryColor:  "#f59e0b",
		AccentColor:     "#10b981",
		BackgroundColor: "#ffffff",
		TextColor:       "#1f2937",
		FontFamily:      "Inter, sans-serif",
		HeadingFont:     "Poppins, sans-serif",
	},
	Branding: Branding{
		CompanyName: "Imobiliária",
		Tagline:     "Encontre o imóvel dos seus sonhos",
	},
	BusinessHours: BusinessHours{
		Weekdays: "08:00 - 18:00",
		Saturday: "09:00 - 13:00",
		Sunday:   "Fechado",
	},
	Layout: LayoutOptions{
		HeaderStyle:        "default",
		FooterStyle:        "default",
		ContainerWidth:     "1200px",
		ShowWhatsappButton: true,
	},
}

// BuildVisualConfig 逐字段合并：设置 → 公司字段 → 默认值
func BuildVisualConfig(settings map[string]interface{}, c *model.Company) VisualConfig {
	d := defaultVisual
	if c == nil {
		c = &model.Company{}
	}
	s := lookup{m: settings}

	return VisualConfig{
		Theme: Theme{
			PrimaryColor:    s.str("theme", "primaryColor").or(d.Theme.PrimaryColor),
			SecondaryColor:  s.str("theme", "secondaryColor").or(d.Theme.SecondaryColor),
			AccentColor:     s.str("theme", "accentColor").or(d.Theme.AccentColor),
			BackgroundColor: s.str("theme", "backgroundColor").or(d.Theme.BackgroundColor),
			TextColor:       s.str("theme", "textColor").or(d.Theme.TextColor),
			FontFamily:      s.str("theme", "fontFamily").or(d.Theme.FontFamily),
			HeadingFont:     s.str("theme", "headingFont").or(d.Theme.HeadingFont),
		},
		Branding: Branding{
			CompanyName: s.str("branding", "companyName").or(c.Name, d.Branding.CompanyName),
			LogoURL:     s.str("branding", "logoUrl").or(c.LogoURL, d.Branding.LogoURL),
			FaviconURL:  s.str("branding", "faviconUrl").or(d.Branding.FaviconURL),
			Tagline:     s.str("branding", "tagline").or(d.Branding.Tagline),
		},
		Contact: Contact{
			Phone:    s.str("contact", "phone").or(c.Phone),
			Email:    s.str("contact", "email").or(c.Email),
			Whatsapp: s.str("contact", "whatsapp").or(c.Whatsapp, c.Phone),
			Address:  s.str("contact", "address").or(c.Address),
			City:     s.str("contact", "city").or(c.City),
			State:    s.str("contact", "state").or(c.State),
			ZipCode:  s.str("contact", "zipCode").or(c.ZipCode),
			Creci:    s.str("contact", "creci").or(c.Creci),
		},
		Social: Social{
			Facebook:  s.str("social", "facebook").or(),
			Instagram: s.str("social", "instagram").or(),
			Linkedin:  s.str("social", "linkedin").or(),
			Youtube:   s.str("social", "youtube").or(),
			Twitter:   s.str("social", "twitter").or(),
		},
		BusinessHours: BusinessHours{
			Weekdays: s.str("businessHours", "weekdays").or(d.BusinessHours.Weekdays),
			Saturday: s.str("businessHours", "saturday").or(d.BusinessHours.Saturday),
			Sunday:   s.str("businessHours", "sunday").or(d.BusinessHours.Sunday),
		},
		Layout: LayoutOptions{
			HeaderStyle:        s.str("layout", "headerStyle").or(d.Layout.HeaderStyle),
			FooterStyle:        s.str("layout", "footerStyle").or(d.Layout.FooterStyle),
			ContainerWidth:     s.str("layout", "containerWidth").or(d.Layout.ContainerWidth),
			ShowWhatsappButton: s.boolean("layout", "showWhatsappButton", d.Layout.ShowWhatsappButton),
		},
	}
}

type lookup struct {
	m map[string]interface{}
}

type strValue string

// or 返回第一个非空值；全部为空时返回 ""
func (v strValue) or(fallbacks ...string) string {
	if v != "" {
		return string(v)
	}
	for _, f := range fallbacks {
		if strings.TrimSpace(f) != "" {
			return f
		}
	}
	return ""
}

func (l lookup) get(group, key string) (interface{}, bool) {
	g, ok := l.m[group].(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := g[key]
	return v, ok && v != nil
}

func (l lookup) str(group, key string) strValue {
	v, ok := l.get(group, key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strValue(strings.TrimSpace(s))
}

func (l lookup) boolean(group, key string, def bool) bool {
	v, ok := l.get(group, key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	}
	return def
}
