// Package property reads property listings for the public storefront.
package property

import (
	"context"
	"errors"
	"fmt"

	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"

	"gorm.io/gorm"
)

// Filter 房源查询条件
type Filter struct {
	CompanyID int
	Status    model.PropertyStatus // 为空时默认 available
	Purpose   string
	Type      string
	City      string
	Featured  *bool
	MinPrice  float64
	MaxPrice  float64
	Page      int
	PageSize  int
}

// Service 房源服务
type Service interface {
	FindAll(ctx context.Context, f Filter) ([]model.Property, int64, error)
	FindByID(ctx context.Context, companyID, id int) (*model.Property, error)
}

const maxPageSize = 100

// GormService 基于 gorm 的只读实现
type GormService struct {
	db *gorm.DB
}

// NewService 创建房源服务
func NewService(db *gorm.DB) *GormService {
	return &GormService{db: db}
}

// FindAll 按条件分页查询
func (s *GormService) FindAll(ctx context.Context, f Filter) ([]model.Property, int64, error) {
	if f.CompanyID <= 0 {
		return nil, 0, httpx.ErrParamMissing("companyId is required")
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 12
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Status == "" {
		f.Status = model.PropertyStatusAvailable
	}

	query := s.db.WithContext(ctx).Model(&model.Property{}).
		Where("company_id = ? AND status = ?", f.CompanyID, f.Status)
	if f.Purpose != "" {
		query = query.Where("purpose = ?", f.Purpose)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.City != "" {
		query = query.Where("city = ?", f.City)
	}
	if f.Featured != nil {
		query = query.Where("featured = ?", *f.Featured)
	}
	if f.MinPrice > 0 {
		query = query.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		query = query.Where("price <= ?", f.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	var items []model.Property
	err := query.Order("featured DESC, id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list properties: %w", err)
	}
	return items, total, nil
}

// FindByID 获取单个房源，限定公司
func (s *GormService) FindByID(ctx context.Context, companyID, id int) (*model.Property, error) {
	var p model.Property
	err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.ErrNotFound(fmt.Sprintf("property %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load property %d: %w", id, err)
	}
	return &p, nil
}
