// Package layout persists per-company page layouts and their ordered
// sections, and publishes exactly one active layout per page type.
package layout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/siteerr"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier 布局变更通知（发布、更新、删除之后调用，失败不影响请求）
type Notifier interface {
	LayoutChanged(ctx context.Context, companyID int, eventType string, layout *model.WebsiteLayout)
}

// Store 布局存储
type Store struct {
	db         *gorm.DB
	maxRetries int
	notifier   Notifier
	now        func() time.Time
	log        *logrus.Entry
}

// Option 配置 Store
type Option func(*Store)

// WithMaxRetries 发布事务最大尝试次数
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithNotifier 设置变更通知
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithClock 设置时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger 设置日志
func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) { s.log = log }
}

// NewStore 创建布局存储
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:         db,
		maxRetries: 3,
		now:        time.Now,
		log:        logrus.WithField("component", "layout"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errActiveCount 发布后同一 (company, page_type) 的 active 数量不为 1，可重试
var errActiveCount = errors.New("active layout count mismatch")

func layoutNotFound(id int) error {
	return siteerr.New(siteerr.KindLayoutNotFound, fmt.Sprintf("layout %d not found", id))
}

func withSections(db *gorm.DB) *gorm.DB {
	return db.Preload("Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC, id ASC")
	})
}

// List 列出公司的布局（pageType 为空时返回全部）
func (s *Store) List(ctx context.Context, companyID int, pageType model.PageType) ([]model.WebsiteLayout, error) {
	query := withSections(s.db.WithContext(ctx)).Where("company_id = ?", companyID)
	if pageType != "" {
		query = query.Where("page_type = ?", pageType)
	}

	var layouts []model.WebsiteLayout
	if err := query.Order("page_type ASC, id ASC").Find(&layouts).Error; err != nil {
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}
	return layouts, nil
}

// Get 获取布局（含区块）
func (s *Store) Get(ctx context.Context, companyID, id int) (*model.WebsiteLayout, error) {
	return s.get(withSections(s.db.WithContext(ctx)), companyID, id)
}

func (s *Store) get(tx *gorm.DB, companyID, id int) (*model.WebsiteLayout, error) {
	var l model.WebsiteLayout
	err := tx.Where("id = ? AND company_id = ?", id, companyID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, layoutNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load layout %d: %w", id, err)
	}
	return &l, nil
}

// FindActive 获取 (company, pageType) 当前的 active 布局
func (s *Store) FindActive(ctx context.Context, companyID int, pageType model.PageType) (*model.WebsiteLayout, error) {
	var l model.WebsiteLayout
	err := withSections(s.db.WithContext(ctx)).
		Where("company_id = ? AND page_type = ? AND is_active = ?", companyID, pageType, true).
		Order("published_at DESC, id DESC").
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, siteerr.New(siteerr.KindLayoutNotFound, fmt.Sprintf("no active %s layout", pageType))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active layout: %w", err)
	}
	return &l, nil
}

// ListActive 列出公司所有 active 布局，每个页面类型最多一个
func (s *Store) ListActive(ctx context.Context, companyID int) ([]model.WebsiteLayout, error) {
	var layouts []model.WebsiteLayout
	err := withSections(s.db.WithContext(ctx)).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("page_type ASC, published_at DESC, id DESC").
		Find(&layouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active layouts: %w", err)
	}

	// 读侧同样只取每个 page_type 的第一条
	seen := make(map[model.PageType]bool, len(layouts))
	out := layouts[:0]
	for _, l := range layouts {
		if seen[l.PageType] {
			continue
		}
		seen[l.PageType] = true
		out = append(out, l)
	}
	return out, nil
}

// Create 创建布局；isActive=true 时走发布流程
func (s *Store) Create(ctx context.Context, companyID int, in LayoutInput) (*model.WebsiteLayout, error) {
	if !in.PageType.Valid() {
		return nil, httpx.ErrParamInvalid(fmt.Sprintf("invalid page type: %s", in.PageType))
	}
	if in.Name == "" {
		return nil, httpx.ErrParamMissing("name is required")
	}
	if err := validateSections(in.Sections); err != nil {
		return nil, err
	}

	slug := NormalizeSlug(in.Slug)
	if slug == "" && in.PageType == model.PageTypeCustom {
		slug = "/p/" + Slugify(in.Name)
	}

	l := &model.WebsiteLayout{
		CompanyID:       companyID,
		PageType:        in.PageType,
		Name:            in.Name,
		Slug:            slug,
		IsDefault:       in.IsDefault,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		MetaKeywords:    in.MetaKeywords,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sections").Create(l).Error; err != nil {
			return fmt.Errorf("failed to create layout: %w", err)
		}
		sections, err := createSections(tx, l.ID, in.Sections)
		if err != nil {
			return err
		}
		l.Sections = sections
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.IsActive {
		return s.Publish(ctx, companyID, l.ID)
	}
	return l, nil
}

// Update 更新布局元信息；Sections 不为 nil 时整体替换区块
func (s *Store) Update(ctx context.Context, companyID, id int, patch LayoutPatch) (*model.WebsiteLayout, error) {
	if patch.Sections != nil {
		if err := validateSections(*patch.Sections); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.get(tx, companyID, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			if *patch.Name == "" {
				return httpx.ErrParamInvalid("name must not be empty")
			}
			updates["name"] = *patch.Name
		}
		if patch.Slug != nil {
			updates["slug"] = NormalizeSlug(*patch.Slug)
			if updates["slug"] == "" && l.PageType == model.PageTypeCustom {
				updates["slug"] = "/p/" + Slugify(l.Name)
			}
		}
		if patch.IsDefault != nil {
			updates["is_default"] = *patch.IsDefault
		}
		if patch.MetaTitle != nil {
			updates["meta_title"] = *patch.MetaTitle
		}
		if patch.MetaDescription != nil {
			updates["meta_description"] = *patch.MetaDescription
		}
		if patch.MetaKeywords != nil {
			updates["meta_keywords"] = *patch.MetaKeywords
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.WebsiteLayout{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update layout: %w", err)
			}
		}

		if patch.Sections != nil {
			if err := tx.Where("layout_id = ?", id).Delete(&model.LayoutSection{}).Error; err != nil {
				return fmt.Errorf("failed to clear sections: %w", err)
			}
			if _, err := createSections(tx, id, *patch.Sections); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.changed(ctx, companyID, id)
}

// Delete 删除布局：同一事务内先取消激活，再删区块和布局
func (s *Store) Delete(ctx context.Context, companyID, id int) error {
	var deleted *model.WebsiteLayout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), companyID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.WebsiteLayout{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate layout: %w", err)
		}
		if err := tx.Where("layout_id = ?", id).Delete(&model.LayoutSection{}).Error; err != nil {
			return fmt.Errorf("failed to delete sections: %w", err)
		}
		if err := tx.Delete(&model.WebsiteLayout{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete layout: %w", err)
		}
		deleted = l
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, companyID, model.LayoutEventDelete, deleted)
	return nil
}

// Publish 发布布局：同一事务内锁定同 (company, page_type) 的所有布局，
// 取消其他布局的激活，再激活目标布局，最后校验 active 数量为 1。
// 事务失败整体重试，重试耗尽返回 PublishConflict。
func (s *Store) Publish(ctx context.Context, companyID, id int) (*model.WebsiteLayout, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.publishTx(tx, companyID, id)
		})
		if err == nil {
			l, err := s.Get(ctx, companyID, id)
			if err != nil {
				return nil, err
			}
			s.notify(ctx, companyID, model.LayoutEventPublish, l)
			return l, nil
		}

		// 业务错误不重试
		var siteErr *siteerr.Error
		var appErr *httpx.AppError
		if errors.As(err, &siteErr) || errors.As(err, &appErr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		s.log.WithFields(logrus.Fields{
			"layout_id": id,
			"attempt":   attempt,
		}).WithError(err).Warn("publish transaction failed, retrying")
	}

	return nil, siteerr.Wrap(siteerr.KindPublishConflict,
		fmt.Sprintf("layout %d could not be published after %d attempts", id, s.maxRetries), lastErr)
}

func (s *Store) publishTx(tx *gorm.DB, companyID, id int) error {
	target, err := s.get(tx, companyID, id)
	if err != nil {
		return err
	}

	// 1. 锁定同组布局，串行化并发发布
	var siblings []model.WebsiteLayout
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("company_id = ? AND page_type = ?", companyID, target.PageType).
		Find(&siblings).Error
	if err != nil {
		return fmt.Errorf("failed to lock layouts: %w", err)
	}

	// 2. 取消同组其他布局的激活
	err = tx.Model(&model.WebsiteLayout{}).
		Where("company_id = ? AND page_type = ? AND id <> ? AND is_active = ?", companyID, target.PageType, id, true).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate siblings: %w", err)
	}

	// 3. 激活目标布局
	now := s.now()
	err = tx.Model(&model.WebsiteLayout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": true, "published_at": &now}).Error
	if err != nil {
		return fmt.Errorf("failed to activate layout: %w", err)
	}

	// 4. 校验
	var active int64
	err = tx.Model(&model.WebsiteLayout{}).
		Where("company_id = ? AND page_type = ? AND is_active = ?", companyID, target.PageType, true).
		Count(&active).Error
	if err != nil {
		return fmt.Errorf("failed to count active layouts: %w", err)
	}
	if active != 1 {
		return fmt.Errorf("%w: %d", errActiveCount, active)
	}

	// 同一布局再次发布也要保证区块连续
	return renumberPersisted(tx, id)
}

// changed 重新读取布局，active 布局的修改发出 update 事件
func (s *Store) changed(ctx context.Context, companyID, id int) (*model.WebsiteLayout, error) {
	l, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if l.IsActive {
		s.notify(ctx, companyID, model.LayoutEventUpdate, l)
	}
	return l, nil
}

func (s *Store) notify(ctx context.Context, companyID int, eventType string, l *model.WebsiteLayout) {
	if s.notifier == nil || l == nil {
		return
	}
	s.notifier.LayoutChanged(ctx, companyID, eventType, l)
}

func validateSections(in []SectionInput) error {
	for i, sec := range in {
		if sec.ComponentType == "" {
			return httpx.ErrParamMissing(fmt.Sprintf("sections[%d].componentType is required", i))
		}
	}
	return nil
}

func createSections(tx *gorm.DB, layoutID int, in []SectionInput) ([]model.LayoutSection, error) {
	sections := make([]model.LayoutSection, 0, len(in))
	for i, sec := range in {
		sections = append(sections, model.LayoutSection{
			LayoutID:      layoutID,
			ComponentType: sec.ComponentType,
			Config:        sec.Config,
			StyleConfig:   sec.StyleConfig,
			Order:         i,
		})
	}
	if len(sections) == 0 {
		return sections, nil
	}
	if err := tx.Create(&sections).Error; err != nil {
		return nil, fmt.Errorf("failed to create sections: %w", err)
	}
	return sections, nil
}
