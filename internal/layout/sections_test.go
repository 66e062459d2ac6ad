package layout

import (
	"context"
	"testing"

	"go_sitebuilder/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newLayoutWithSections(t *testing.T, store *Store, types ...string) *model.WebsiteLayout {
	t.Helper()
	sections := make([]SectionInput, len(types))
	for i, ct := range types {
		sections[i] = SectionInput{ComponentType: ct}
	}
	l, err := store.Create(context.Background(), 1, LayoutInput{PageType: model.PageTypeHome, Name: "Home", Sections: sections})
	require.NoError(t, err)
	return l
}

func TestAddSection(t *testing.T) {
	tests := []struct {
		name     string
		position *int
		want     []string
	}{
		{"append", nil, []string{"header", "hero", "footer", "cta"}},
		{"front", intPtr(0), []string{"cta", "header", "hero", "footer"}},
		{"middle", intPtr(2), []string{"header", "hero", "cta", "footer"}},
		{"beyond end clamps", intPtr(42), []string{"header", "hero", "footer", "cta"}},
		{"negative clamps", intPtr(-3), []string{"cta", "header", "hero", "footer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, db := newStore(t)
			l := newLayoutWithSections(t, store, "header", "hero", "footer")

			sec, err := store.AddSection(context.Background(), 1, l.ID, SectionInput{ComponentType: "cta"}, tt.position)
			require.NoError(t, err)

			orders, types := sectionOrders(t, db, l.ID)
			assert.Equal(t, dense(4), orders)
			assert.Equal(t, tt.want, types)
			assert.Equal(t, indexOfString(tt.want, "cta"), sec.Order)
		})
	}
}

func TestDeleteSection_Renumbers(t *testing.T) {
	store, db := newStore(t)
	l := newLayoutWithSections(t, store, "header", "hero", "about", "footer")

	require.NoError(t, store.DeleteSection(context.Background(), 1, l.ID, l.Sections[1].ID))

	orders, types := sectionOrders(t, db, l.ID)
	assert.Equal(t, dense(3), orders)
	assert.Equal(t, []string{"header", "about", "footer"}, types)

	err := store.DeleteSection(context.Background(), 1, l.ID, 9999)
	assert.Error(t, err)
}

func TestReorderSections(t *testing.T) {
	store, db := newStore(t)
	l := newLayoutWithSections(t, store, "header", "hero", "footer")
	ids := []int{l.Sections[2].ID, l.Sections[0].ID, l.Sections[1].ID}

	ordered, err := store.ReorderSections(context.Background(), 1, l.ID, ids)
	require.NoError(t, err)
	require.Len(t, ordered, 3)

	orders, types := sectionOrders(t, db, l.ID)
	assert.Equal(t, dense(3), orders)
	assert.Equal(t, []string{"footer", "header", "hero"}, types)
}

func TestReorderSections_RejectsWrongSet(t *testing.T) {
	store, db := newStore(t)
	l := newLayoutWithSections(t, store, "header", "hero", "footer")
	a, b, c := l.Sections[0].ID, l.Sections[1].ID, l.Sections[2].ID

	for name, ids := range map[string][]int{
		"missing":  {a, b},
		"repeated": {a, a, b},
		"foreign":  {a, b, 9999},
		"extra":    {a, b, c, 9999},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := store.ReorderSections(context.Background(), 1, l.ID, ids)
			assert.Error(t, err)
		})
	}

	// unchanged after rejected reorders
	_, types := sectionOrders(t, db, l.ID)
	assert.Equal(t, []string{"header", "hero", "footer"}, types)
}

func TestUpdateSection_MoveAndConfig(t *testing.T) {
	store, db := newStore(t)
	l := newLayoutWithSections(t, store, "header", "hero", "footer")

	updated, err := store.UpdateSection(context.Background(), 1, l.ID, l.Sections[2].ID, SectionPatch{
		Config: map[string]interface{}{"text": "© Casa Nova"},
		Order:  intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Order)
	assert.Equal(t, "© Casa Nova", updated.Config["text"])

	orders, types := sectionOrders(t, db, l.ID)
	assert.Equal(t, dense(3), orders)
	assert.Equal(t, []string{"footer", "header", "hero"}, types)
}

func TestSectionMutation_RepairsGaps(t *testing.T) {
	store, db := newStore(t)
	l := newLayoutWithSections(t, store, "header", "hero", "footer")

	// a racing writer left gaps and a duplicate
	require.NoError(t, db.Model(&model.LayoutSection{}).Where("id = ?", l.Sections[0].ID).Update("sort_order", 5).Error)
	require.NoError(t, db.Model(&model.LayoutSection{}).Where("id = ?", l.Sections[1].ID).Update("sort_order", 5).Error)
	require.NoError(t, db.Model(&model.LayoutSection{}).Where("id = ?", l.Sections[2].ID).Update("sort_order", 9).Error)

	_, err := store.AddSection(context.Background(), 1, l.ID, SectionInput{ComponentType: "cta"}, nil)
	require.NoError(t, err)

	orders, types := sectionOrders(t, db, l.ID)
	assert.Equal(t, dense(4), orders)
	assert.Equal(t, []string{"header", "hero", "footer", "cta"}, types)
}

func TestRenumberAndSort(t *testing.T) {
	sections := []model.LayoutSection{
		{BaseModel: model.BaseModel{ID: 3}, ComponentType: "hero", Order: 1},
		{BaseModel: model.BaseModel{ID: 1}, ComponentType: "header", Order: 0},
		{BaseModel: model.BaseModel{ID: 2}, ComponentType: "about", Order: 1},
	}
	SortSections(sections)
	Renumber(sections)

	assert.Equal(t, "header", sections[0].ComponentType)
	assert.Equal(t, "about", sections[1].ComponentType)
	assert.Equal(t, "hero", sections[2].ComponentType)
	for i, s := range sections {
		assert.Equal(t, i, s.Order)
	}
}

func indexOfString(items []string, v string) int {
	for i, s := range items {
		if s == v {
			return i
		}
	}
	return -1
}
