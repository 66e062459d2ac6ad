package layout

import (
	"sort"

	"go_sitebuilder/internal/model"
)

// SortSections 按 order 升序排序（order 相同按 ID）
func SortSections(sections []model.LayoutSection) {
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Order != sections[j].Order {
			return sections[i].Order < sections[j].Order
		}
		return sections[i].ID < sections[j].ID
	})
}

// Renumber 按当前切片顺序把 order 重排为 0..N-1
func Renumber(sections []model.LayoutSection) {
	for i := range sections {
		sections[i].Order = i
	}
}

// insertAt 在 pos 处插入，pos 越界时夹到两端
func insertAt(sections []model.LayoutSection, pos int, s model.LayoutSection) []model.LayoutSection {
	if pos < 0 {
		pos = 0
	}
	if pos > len(sections) {
		pos = len(sections)
	}
	sections = append(sections, model.LayoutSection{})
	copy(sections[pos+1:], sections[pos:])
	sections[pos] = s
	return sections
}

// moveTo 把 from 处的元素移动到 to
func moveTo(sections []model.LayoutSection, from, to int) []model.LayoutSection {
	s := sections[from]
	sections = append(sections[:from], sections[from+1:]...)
	return insertAt(sections, to, s)
}
