// Package settings stores the free-form per-company site settings
// (theme, branding, contact channels, social links, business hours).
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reader 读取公司设置，没有记录时返回空 map
type Reader interface {
	Get(ctx context.Context, companyID int) (map[string]interface{}, error)
}

// hexColorRegex #RGB 或 #RRGGBB
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Store 基于 company_settings 表
type Store struct {
	db *gorm.DB
}

// NewStore 创建设置存储
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get 读取设置
func (s *Store) Get(ctx context.Context, companyID int) (map[string]interface{}, error) {
	return s.get(s.db.WithContext(ctx), companyID)
}

func (s *Store) get(tx *gorm.DB, companyID int) (map[string]interface{}, error) {
	var row model.CompanySettings
	err := tx.Where("company_id = ?", companyID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if row.Settings == nil {
		return map[string]interface{}{}, nil
	}
	return map[string]interface{}(row.Settings), nil
}

// Put 以 merge patch 方式更新设置：嵌套对象递归合并，null 删除键
func (s *Store) Put(ctx context.Context, companyID int, patch map[string]interface{}) (map[string]interface{}, error) {
	if err := Validate(patch); err != nil {
		return nil, httpx.ErrParamInvalid(err.Error())
	}

	var merged map[string]interface{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), companyID)
		if err != nil {
			return err
		}
		merged = MergePatch(current, patch)

		row := model.CompanySettings{CompanyID: companyID, Settings: datatypes.JSONMap(merged)}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// MergePatch 合并 patch 到 dst 的副本
func MergePatch(dst, patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(patch))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		if pm, ok := v.(map[string]interface{}); ok {
			if dm, ok := out[k].(map[string]interface{}); ok {
				out[k] = MergePatch(dm, pm)
				continue
			}
			out[k] = MergePatch(nil, pm)
			continue
		}
		out[k] = v
	}
	return out
}

// Validate 校验颜色键（*Color）和链接键（*Url、logo、website）
func Validate(patch map[string]interface{}) error {
	return validate("", patch)
}

func validate(prefix string, m map[string]interface{}) error {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			if err := validate(path, val); err != nil {
				return err
			}
		case string:
			if val == "" {
				continue
			}
			if isColorKey(k) {
				if err := ValidateColor(val); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			if isURLKey(k) {
				if err := ValidateURL(val); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
		}
	}
	return nil
}

func isColorKey(k string) bool {
	return strings.HasSuffix(strings.ToLower(k), "color")
}

func isURLKey(k string) bool {
	lk := strings.ToLower(k)
	return strings.HasSuffix(lk, "url") || lk == "logo" || lk == "website" || lk == "favicon"
}

// ValidateColor #RGB / #RRGGBB
func ValidateColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return fmt.Errorf("invalid hex color %q: must be #RGB or #RRGGBB format", color)
	}
	return nil
}

// ValidateURL 只允许 http(s) 绝对地址
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q: must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	return nil
}
