// Package tenant resolves request hosts to the company that owns them.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"go_sitebuilder/internal/domainutil"
	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/siteerr"

	"gorm.io/gorm"
)

// Options 租户目录配置
type Options struct {
	DevHosts      []string // 开发主机名，解析到演示租户
	DemoCompanyID int
}

// Directory 租户目录
type Directory struct {
	db            *gorm.DB
	devHosts      map[string]struct{}
	demoCompanyID int
}

// NewDirectory 创建租户目录
func NewDirectory(db *gorm.DB, opts Options) *Directory {
	hosts := make(map[string]struct{}, len(opts.DevHosts))
	for _, h := range opts.DevHosts {
		hosts[domainutil.NormalizeHost(h)] = struct{}{}
	}
	return &Directory{db: db, devHosts: hosts, demoCompanyID: opts.DemoCompanyID}
}

// IsDevHost 是否为开发主机名
func (d *Directory) IsDevHost(host string) bool {
	_, ok := d.devHosts[domainutil.NormalizeHost(host)]
	return ok
}

// Resolve 按域名解析租户
// 顺序：公司主域名精确匹配 → custom_domains（仅 active）→ 开发主机名回落到演示租户
// 公开路径要求 website_enabled 且 website_published
func (d *Directory) Resolve(ctx context.Context, host string) (*model.Company, error) {
	domain := domainutil.NormalizeHost(host)
	if domain == "" {
		return nil, siteerr.New(siteerr.KindTenantNotFound, "domain is required")
	}

	company, err := d.lookup(ctx, domain)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, siteerr.New(siteerr.KindTenantNotFound, fmt.Sprintf("no site found for domain %s", domain))
	}

	if !company.WebsiteEnabled || !company.WebsitePublished {
		return nil, siteerr.New(siteerr.KindWebsiteDisabled, fmt.Sprintf("website for domain %s is not enabled", domain))
	}
	return company, nil
}

// ByID 按公司 ID 获取租户（预览用，不检查发布状态）
func (d *Directory) ByID(ctx context.Context, companyID int) (*model.Company, error) {
	var company model.Company
	err := d.db.WithContext(ctx).First(&company, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, siteerr.New(siteerr.KindTenantNotFound, fmt.Sprintf("company %d not found", companyID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load company %d: %w", companyID, err)
	}
	if !company.WebsiteEnabled {
		return nil, siteerr.New(siteerr.KindWebsiteDisabled, fmt.Sprintf("website for company %d is not enabled", companyID))
	}
	return &company, nil
}

func (d *Directory) lookup(ctx context.Context, domain string) (*model.Company, error) {
	tx := d.db.WithContext(ctx)

	// 1. 主域名
	var company model.Company
	err := tx.Where("custom_domain = ?", domain).First(&company).Error
	if err == nil {
		return &company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query company by domain: %w", err)
	}

	// 2. 已激活的自定义域名
	var cd model.CustomDomain
	err = tx.Where("domain = ? AND status = ?", domain, model.DomainStatusActive).First(&cd).Error
	if err == nil {
		if err := tx.First(&company, cd.CompanyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to load company %d: %w", cd.CompanyID, err)
		}
		return &company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query custom domain: %w", err)
	}

	// 3. 开发主机名
	if _, ok := d.devHosts[domain]; ok && d.demoCompanyID > 0 {
		err := tx.First(&company, d.demoCompanyID).Error
		if err == nil {
			return &company, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load demo company: %w", err)
		}
	}

	return nil, nil
}
