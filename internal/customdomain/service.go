// Package customdomain manages the custom domains a company points at its
// storefront: creation, TXT ownership verification, CNAME and TLS
// activation, and the single primary domain per company.
package customdomain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go_sitebuilder/internal/domainutil"
	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/sslcert"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerifyPrefix TXT 校验记录前缀
const VerifyPrefix = "_sitebuilder-verify."

// 允许的状态迁移（操作 → 源状态）
var transitions = map[string][]model.DomainStatus{
	"verify":   {model.DomainStatusPending, model.DomainStatusFailed, model.DomainStatusDisabled, model.DomainStatusVerified},
	"activate": {model.DomainStatusVerified, model.DomainStatusActive},
	"disable":  {model.DomainStatusPending, model.DomainStatusVerified, model.DomainStatusActive, model.DomainStatusFailed},
}

// CanTransition 判断操作是否允许
func CanTransition(op string, from model.DomainStatus) bool {
	for _, s := range transitions[op] {
		if s == from {
			return true
		}
	}
	return false
}

// Config 服务配置
type Config struct {
	DB          *gorm.DB
	Resolver    Resolver
	Issuer      sslcert.Issuer // nil 表示不签发证书，激活不要求 SSL
	CNAMETarget string
	Logger      *logrus.Entry
	Now         func() time.Time
}

// Service 自定义域名服务
type Service struct {
	db          *gorm.DB
	resolver    Resolver
	issuer      sslcert.Issuer
	cnameTarget string
	log         *logrus.Entry
	now         func() time.Time
}

// NewService 创建服务
func NewService(cfg Config) *Service {
	s := &Service{
		db:          cfg.DB,
		resolver:    cfg.Resolver,
		issuer:      cfg.Issuer,
		cnameTarget: strings.TrimSuffix(strings.ToLower(cfg.CNAMETarget), "."),
		log:         cfg.Logger,
		now:         cfg.Now,
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("component", "custom-domain")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CNAMETarget 平台 CNAME 目标
func (s *Service) CNAMETarget() string {
	return s.cnameTarget
}

// List 列出公司域名
func (s *Service) List(ctx context.Context, companyID int) ([]model.CustomDomain, error) {
	var domains []model.CustomDomain
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("is_primary DESC, id ASC").Find(&domains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return domains, nil
}

// Get 获取单个域名
func (s *Service) Get(ctx context.Context, companyID, id int) (*model.CustomDomain, error) {
	return s.get(s.db.WithContext(ctx), companyID, id)
}

func (s *Service) get(tx *gorm.DB, companyID, id int) (*model.CustomDomain, error) {
	var d model.CustomDomain
	err := tx.Where("id = ? AND company_id = ?", id, companyID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.ErrNotFound(fmt.Sprintf("domain %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load domain %d: %w", id, err)
	}
	return &d, nil
}

// Create 添加域名，状态 pending
func (s *Service) Create(ctx context.Context, companyID int, raw string) (*model.CustomDomain, error) {
	domain, err := domainutil.Normalize(raw)
	if err != nil {
		return nil, httpx.ErrParamInvalid(err.Error())
	}
	sub, _, err := domainutil.SplitSubdomain(domain)
	if err != nil {
		return nil, httpx.ErrParamInvalid(err.Error())
	}
	if domain == s.cnameTarget || strings.HasSuffix(domain, "."+s.cnameTarget) {
		return nil, httpx.ErrParamIllegal("platform domains cannot be added as custom domains")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.CustomDomain{}).Where("domain = ?", domain).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check domain: %w", err)
	}
	if count > 0 {
		return nil, httpx.ErrAlreadyExists(fmt.Sprintf("domain %s is already registered", domain))
	}

	d := &model.CustomDomain{
		CompanyID:         companyID,
		Domain:            domain,
		Subdomain:         sub,
		VerificationToken: strings.ReplaceAll(uuid.NewString(), "-", ""),
		Status:            model.DomainStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}

	s.log.WithFields(logrus.Fields{"company_id": companyID, "domain": domain}).Info("custom domain created")
	return d, nil
}

// SetPrimary 设置主域名：同一事务内取消其他主域名并同步 companies.custom_domain
func (s *Service) SetPrimary(ctx context.Context, companyID, id int) (*model.CustomDomain, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), companyID, id)
		if err != nil {
			return err
		}
		if d.Status == model.DomainStatusDisabled {
			return httpx.ErrStateConflict("disabled domain cannot be primary")
		}

		// 1. 取消其他主域名
		err = tx.Model(&model.CustomDomain{}).
			Where("company_id = ? AND id <> ? AND is_primary = ?", companyID, id, true).
			Update("is_primary", false).Error
		if err != nil {
			return fmt.Errorf("failed to unset primary: %w", err)
		}

		// 2. 设置目标
		if err := tx.Model(&model.CustomDomain{}).Where("id = ?", id).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("failed to set primary: %w", err)
		}

		// 3. 同步公司主域名（仅 active）
		synced := ""
		if d.Status == model.DomainStatusActive {
			synced = d.Domain
		}
		return syncCompanyDomain(tx, companyID, synced)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, companyID, id)
}

// Verify 校验 TXT：_sitebuilder-verify.<domain> 包含 token → verified，否则 failed
func (s *Service) Verify(ctx context.Context, companyID, id int) (*model.CustomDomain, error) {
	d, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition("verify", d.Status) {
		return nil, httpx.ErrStateConflict(fmt.Sprintf("domain in status %s cannot be verified", d.Status))
	}
	if err := s.verify(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// verify 执行校验并写回状态；DNS 失败记录在 last_error，不作为错误返回
func (s *Service) verify(ctx context.Context, d *model.CustomDomain) error {
	now := s.now()
	updates := map[string]interface{}{"last_checked_at": &now}

	values, lookupErr := s.resolver.LookupTXT(ctx, VerifyPrefix+d.Domain)
	if lookupErr == nil && contains(values, d.VerificationToken) {
		updates["status"] = model.DomainStatusVerified
		updates["verified_at"] = &now
		updates["last_error"] = ""
		d.Status = model.DomainStatusVerified
		d.VerifiedAt = &now
		d.LastError = ""
	} else {
		msg := fmt.Sprintf("TXT record %s%s does not contain the verification token", VerifyPrefix, d.Domain)
		if lookupErr != nil && !errors.Is(lookupErr, ErrNoRecord) {
			msg = fmt.Sprintf("TXT lookup failed: %v", lookupErr)
		}
		updates["status"] = model.DomainStatusFailed
		updates["last_error"] = msg
		d.Status = model.DomainStatusFailed
		d.LastError = msg
	}
	d.LastCheckedAt = &now

	if err := s.db.WithContext(ctx).Model(&model.CustomDomain{}).Where("id = ?", d.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to save verification result: %w", err)
	}

	s.log.WithFields(logrus.Fields{"domain": d.Domain, "status": d.Status}).Info("domain verification checked")
	return nil
}

// CheckActivation CNAME 指向平台 + 证书签发 → active
func (s *Service) CheckActivation(ctx context.Context, companyID, id int) (*model.CustomDomain, error) {
	d, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition("activate", d.Status) {
		return nil, httpx.ErrStateConflict(fmt.Sprintf("domain in status %s cannot be activated, verify it first", d.Status))
	}
	if err := s.activate(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) activate(ctx context.Context, d *model.CustomDomain) error {
	now := s.now()
	updates := map[string]interface{}{"last_checked_at": &now}
	d.LastCheckedAt = &now

	var problems []string

	// 1. CNAME
	target, err := s.resolver.LookupCNAME(ctx, d.Domain)
	dnsOK := err == nil && target == s.cnameTarget
	if !dnsOK {
		if err != nil && !errors.Is(err, ErrNoRecord) {
			problems = append(problems, fmt.Sprintf("CNAME lookup failed: %v", err))
		} else {
			problems = append(problems, fmt.Sprintf("CNAME of %s must point to %s", d.Domain, s.cnameTarget))
		}
	}
	updates["dns_configured"] = dnsOK
	d.DNSConfigured = dnsOK

	// 2. 证书（DNS 就绪后才签发）
	sslOK := s.issuer == nil || d.SSLEnabled
	if dnsOK && !sslOK {
		cert, err := s.issuer.Issue(ctx, d.Domain)
		if err != nil {
			problems = append(problems, fmt.Sprintf("certificate issuance failed: %v", err))
		} else {
			sslOK = true
			updates["ssl_enabled"] = true
			updates["cert_pem"] = cert.CertPEM
			updates["key_pem"] = cert.KeyPEM
			updates["ssl_expires_at"] = &cert.ExpiresAt
			d.SSLEnabled = true
			d.CertPEM = cert.CertPEM
			d.KeyPEM = cert.KeyPEM
			d.SSLExpiresAt = &cert.ExpiresAt
		}
	}

	// 3. 状态
	if dnsOK && sslOK {
		if d.Status != model.DomainStatusActive {
			updates["activated_at"] = &now
			d.ActivatedAt = &now
		}
		updates["status"] = model.DomainStatusActive
		updates["last_error"] = ""
		d.Status = model.DomainStatusActive
		d.LastError = ""
	} else {
		// 已激活的域名 DNS 变更后退回 verified，不再对外服务
		updates["status"] = model.DomainStatusVerified
		updates["last_error"] = strings.Join(problems, "; ")
		d.Status = model.DomainStatusVerified
		d.LastError = strings.Join(problems, "; ")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CustomDomain{}).Where("id = ?", d.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to save activation result: %w", err)
		}
		if !d.IsPrimary {
			return nil
		}
		synced := ""
		if d.Status == model.DomainStatusActive {
			synced = d.Domain
		}
		return syncCompanyDomain(tx, d.CompanyID, synced)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"domain":         d.Domain,
		"status":         d.Status,
		"dns_configured": d.DNSConfigured,
		"ssl_enabled":    d.SSLEnabled,
	}).Info("domain activation checked")
	return nil
}

// Disable 停用域名；主域名停用时清空 companies.custom_domain
func (s *Service) Disable(ctx context.Context, companyID, id int) (*model.CustomDomain, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), companyID, id)
		if err != nil {
			return err
		}
		if !CanTransition("disable", d.Status) {
			return httpx.ErrStateConflict(fmt.Sprintf("domain in status %s cannot be disabled", d.Status))
		}
		if err := tx.Model(&model.CustomDomain{}).Where("id = ?", id).Update("status", model.DomainStatusDisabled).Error; err != nil {
			return fmt.Errorf("failed to disable domain: %w", err)
		}
		if d.IsPrimary {
			return syncCompanyDomain(tx, companyID, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, companyID, id)
}

// Delete 删除域名
func (s *Service) Delete(ctx context.Context, companyID, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), companyID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&model.CustomDomain{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete domain: %w", err)
		}
		if d.IsPrimary {
			return syncCompanyDomain(tx, companyID, "")
		}
		return nil
	})
}

func syncCompanyDomain(tx *gorm.DB, companyID int, domain string) error {
	err := tx.Model(&model.Company{}).Where("id = ?", companyID).Update("custom_domain", domain).Error
	if err != nil {
		return fmt.Errorf("failed to sync company domain: %w", err)
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}
