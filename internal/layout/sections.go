package layout

import (
	"context"
	"fmt"

	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 区块增删改排序：每次修改都在事务内把 order 重排为 0..N-1

// AddSection 新增区块；position 为 nil 时追加到末尾
func (s *Store) AddSection(ctx context.Context, companyID, layoutID int, in SectionInput, position *int) (*model.LayoutSection, error) {
	if in.ComponentType == "" {
		return nil, httpx.ErrParamMissing("componentType is required")
	}

	var created model.LayoutSection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sections, err := s.lockSections(tx, companyID, layoutID)
		if err != nil {
			return err
		}

		created = model.LayoutSection{
			LayoutID:      layoutID,
			ComponentType: in.ComponentType,
			Config:        in.Config,
			StyleConfig:   in.StyleConfig,
			Order:         len(sections),
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create section: %w", err)
		}

		pos := len(sections)
		if position != nil {
			pos = *position
		}
		sections = insertAt(sections, pos, created)
		if err := saveOrder(tx, sections); err != nil {
			return err
		}
		for _, sec := range sections {
			if sec.ID == created.ID {
				created.Order = sec.Order
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.changed(ctx, companyID, layoutID); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSection 更新区块内容；Order 不为 nil 时移动到该位置
func (s *Store) UpdateSection(ctx context.Context, companyID, layoutID, sectionID int, patch SectionPatch) (*model.LayoutSection, error) {
	var updated model.LayoutSection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sections, err := s.lockSections(tx, companyID, layoutID)
		if err != nil {
			return err
		}
		idx := indexOf(sections, sectionID)
		if idx < 0 {
			return httpx.ErrNotFound(fmt.Sprintf("section %d not found", sectionID))
		}

		updates := map[string]interface{}{}
		if patch.ComponentType != nil {
			if *patch.ComponentType == "" {
				return httpx.ErrParamInvalid("componentType must not be empty")
			}
			updates["component_type"] = *patch.ComponentType
		}
		if patch.Config != nil {
			updates["config"] = patch.Config
		}
		if patch.StyleConfig != nil {
			updates["style_config"] = patch.StyleConfig
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.LayoutSection{}).Where("id = ?", sectionID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update section: %w", err)
			}
		}

		if patch.Order != nil {
			sections = moveTo(sections, idx, *patch.Order)
		}
		if err := saveOrder(tx, sections); err != nil {
			return err
		}

		return tx.First(&updated, sectionID).Error
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.changed(ctx, companyID, layoutID); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSection 删除区块并重排剩余区块
func (s *Store) DeleteSection(ctx context.Context, companyID, layoutID, sectionID int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sections, err := s.lockSections(tx, companyID, layoutID)
		if err != nil {
			return err
		}
		idx := indexOf(sections, sectionID)
		if idx < 0 {
			return httpx.ErrNotFound(fmt.Sprintf("section %d not found", sectionID))
		}

		if err := tx.Delete(&model.LayoutSection{}, sectionID).Error; err != nil {
			return fmt.Errorf("failed to delete section: %w", err)
		}
		sections = append(sections[:idx], sections[idx+1:]...)
		return saveOrder(tx, sections)
	})
	if err != nil {
		return err
	}

	_, err = s.changed(ctx, companyID, layoutID)
	return err
}

// ReorderSections 按给定 ID 顺序重排，ids 必须恰好是该布局的全部区块
func (s *Store) ReorderSections(ctx context.Context, companyID, layoutID int, ids []int) ([]model.LayoutSection, error) {
	var ordered []model.LayoutSection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sections, err := s.lockSections(tx, companyID, layoutID)
		if err != nil {
			return err
		}
		if len(ids) != len(sections) {
			return httpx.ErrParamInvalid(fmt.Sprintf("expected %d section ids, got %d", len(sections), len(ids)))
		}

		byID := make(map[int]model.LayoutSection, len(sections))
		for _, sec := range sections {
			byID[sec.ID] = sec
		}
		ordered = make([]model.LayoutSection, 0, len(ids))
		for _, id := range ids {
			sec, ok := byID[id]
			if !ok {
				return httpx.ErrParamInvalid(fmt.Sprintf("section %d is not part of layout %d or is repeated", id, layoutID))
			}
			delete(byID, id)
			ordered = append(ordered, sec)
		}
		return saveOrder(tx, ordered)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.changed(ctx, companyID, layoutID); err != nil {
		return nil, err
	}
	return ordered, nil
}

// lockSections 锁定布局行并按当前顺序读出其区块
func (s *Store) lockSections(tx *gorm.DB, companyID, layoutID int) ([]model.LayoutSection, error) {
	if _, err := s.get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), companyID, layoutID); err != nil {
		return nil, err
	}

	var sections []model.LayoutSection
	err := tx.Where("layout_id = ?", layoutID).Order("sort_order ASC, id ASC").Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sections: %w", err)
	}
	return sections, nil
}

// renumberPersisted 读出布局的区块并重排
func renumberPersisted(tx *gorm.DB, layoutID int) error {
	var sections []model.LayoutSection
	err := tx.Where("layout_id = ?", layoutID).Order("sort_order ASC, id ASC").Find(&sections).Error
	if err != nil {
		return fmt.Errorf("failed to load sections: %w", err)
	}
	return saveOrder(tx, sections)
}

// saveOrder 重排并只写回 order 变化的区块
func saveOrder(tx *gorm.DB, sections []model.LayoutSection) error {
	before := make([]int, len(sections))
	for i := range sections {
		before[i] = sections[i].Order
	}
	Renumber(sections)

	for i := range sections {
		if sections[i].Order == before[i] {
			continue
		}
		err := tx.Model(&model.LayoutSection{}).
			Where("id = ?", sections[i].ID).
			Update("sort_order", sections[i].Order).Error
		if err != nil {
			return fmt.Errorf("failed to renumber section %d: %w", sections[i].ID, err)
		}
	}
	return nil
}

func indexOf(sections []model.LayoutSection, id int) int {
	for i := range sections {
		if sections[i].ID == id {
			return i
		}
	}
	return -1
}
