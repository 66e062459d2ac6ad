package siteconfig

import (
	"context"
	"sort"

	"go_sitebuilder/internal/domainutil"
	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/siteerr"
)

// TenantResolver 租户目录
type TenantResolver interface {
	Resolve(ctx context.Context, host string) (*model.Company, error)
	ByID(ctx context.Context, companyID int) (*model.Company, error)
}

// LayoutSource 读取 active 布局
type LayoutSource interface {
	ListActive(ctx context.Context, companyID int) ([]model.WebsiteLayout, error)
}

// SettingsReader 读取公司设置
type SettingsReader interface {
	Get(ctx context.Context, companyID int) (map[string]interface{}, error)
}

// DefaultSlugs 页面类型默认路径
var DefaultSlugs = map[model.PageType]string{
	model.PageTypeHome:           "/",
	model.PageTypeProperties:     "/imoveis",
	model.PageTypePropertyDetail: "/imovel/:id",
	model.PageTypeAbout:          "/sobre",
	model.PageTypeContact:        "/contato",
}

// Assembler 组装站点配置
type Assembler struct {
	tenants  TenantResolver
	layouts  LayoutSource
	settings SettingsReader
}

// NewAssembler 创建组装器
func NewAssembler(tenants TenantResolver, layouts LayoutSource, settings SettingsReader) *Assembler {
	return &Assembler{tenants: tenants, layouts: layouts, settings: settings}
}

// Assemble 按域名组装
func (a *Assembler) Assemble(ctx context.Context, domain string) (*SiteConfiguration, error) {
	company, err := a.tenants.Resolve(ctx, domain)
	if err != nil {
		return nil, err
	}
	return a.build(ctx, company, domainutil.NormalizeHost(domain))
}

// AssembleForCompany 按公司组装（预览，跳过域名解析）
func (a *Assembler) AssembleForCompany(ctx context.Context, companyID int) (*SiteConfiguration, error) {
	company, err := a.tenants.ByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return a.build(ctx, company, company.CustomDomain)
}

func (a *Assembler) build(ctx context.Context, company *model.Company, domain string) (*SiteConfiguration, error) {
	layouts, err := a.layouts.ListActive(ctx, company.ID)
	if err != nil {
		return nil, siteerr.Wrap(siteerr.KindConfigLoadFailed, "failed to load layouts", err)
	}
	settings, err := a.settings.Get(ctx, company.ID)
	if err != nil {
		return nil, siteerr.Wrap(siteerr.KindConfigLoadFailed, "failed to load settings", err)
	}

	return &SiteConfiguration{
		Company:      companyInfo(company),
		Pages:        BuildPages(layouts),
		VisualConfig: BuildVisualConfig(settings, company),
		Domain:       domain,
	}, nil
}

// BuildPages 只为有 active 布局的页面类型生成页面，按导航顺序排列
func BuildPages(layouts []model.WebsiteLayout) []Page {
	rank := make(map[model.PageType]int, len(model.PageTypes))
	for i, pt := range model.PageTypes {
		rank[pt] = i
	}

	active := make([]model.WebsiteLayout, 0, len(layouts))
	for _, l := range layouts {
		if l.IsActive && l.PageType.Valid() {
			active = append(active, l)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return rank[active[i].PageType] < rank[active[j].PageType]
	})

	pages := make([]Page, 0, len(active))
	seen := make(map[model.PageType]bool, len(active))
	for _, l := range active {
		if seen[l.PageType] {
			continue
		}
		seen[l.PageType] = true

		slug := l.Slug
		if slug == "" {
			slug = DefaultSlugs[l.PageType]
		}
		if slug == "" {
			continue
		}
		pages = append(pages, Page{
			Slug:       slug,
			PageType:   string(l.PageType),
			Name:       l.Name,
			Components: sections(l.Sections),
			Meta: PageMeta{
				Title:       l.MetaTitle,
				Description: l.MetaDescription,
				Keywords:    l.MetaKeywords,
			},
		})
	}
	return pages
}

func sections(in []model.LayoutSection) []Section {
	out := make([]Section, 0, len(in))
	for _, s := range in {
		out = append(out, Section{
			ID:          s.ID,
			Type:        s.ComponentType,
			Config:      nonNil(s.Config),
			StyleConfig: nonNil(s.StyleConfig),
			Order:       s.Order,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func nonNil(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func companyInfo(c *model.Company) CompanyInfo {
	return CompanyInfo{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Whatsapp:    c.Whatsapp,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		ZipCode:     c.ZipCode,
		Creci:       c.Creci,
		Description: c.Description,
		LogoURL:     c.LogoURL,
	}
}
