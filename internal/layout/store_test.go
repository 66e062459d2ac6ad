package layout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go_sitebuilder/internal/dbtest"
	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/siteerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) LayoutChanged(_ context.Context, _ int, eventType string, _ *model.WebsiteLayout) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

func newStore(t *testing.T, opts ...Option) (*Store, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&model.Company{BaseModel: model.BaseModel{ID: 1}, Name: "T1", WebsiteEnabled: true}).Error)
	require.NoError(t, db.Create(&model.Company{BaseModel: model.BaseModel{ID: 2}, Name: "T2", WebsiteEnabled: true}).Error)
	return NewStore(db, opts...), db
}

func activeIDs(t *testing.T, db *gorm.DB, companyID int, pageType model.PageType) []int {
	t.Helper()
	var ids []int
	require.NoError(t, db.Model(&model.WebsiteLayout{}).
		Where("company_id = ? AND page_type = ? AND is_active = ?", companyID, pageType, true).
		Pluck("id", &ids).Error)
	return ids
}

func sectionOrders(t *testing.T, db *gorm.DB, layoutID int) ([]int, []string) {
	t.Helper()
	var sections []model.LayoutSection
	require.NoError(t, db.Where("layout_id = ?", layoutID).Order("sort_order ASC").Find(&sections).Error)
	orders := make([]int, len(sections))
	types := make([]string, len(sections))
	for i, s := range sections {
		orders[i] = s.Order
		types[i] = s.ComponentType
	}
	return orders, types
}

func dense(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPublish_DeactivatesSibling(t *testing.T) {
	notifier := &recordingNotifier{}
	store, db := newStore(t, WithNotifier(notifier))
	ctx := context.Background()

	l1, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "L1", IsActive: true})
	require.NoError(t, err)
	assert.True(t, l1.IsActive)
	assert.NotNil(t, l1.PublishedAt)

	l2, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "L2"})
	require.NoError(t, err)
	assert.False(t, l2.IsActive)

	// another company and another page type stay untouched
	other, err := store.Create(ctx, 2, LayoutInput{PageType: model.PageTypeHome, Name: "Other", IsActive: true})
	require.NoError(t, err)
	about, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeAbout, Name: "About", IsActive: true})
	require.NoError(t, err)

	published, err := store.Publish(ctx, 1, l2.ID)
	require.NoError(t, err)
	assert.True(t, published.IsActive)

	assert.Equal(t, []int{l2.ID}, activeIDs(t, db, 1, model.PageTypeHome))
	assert.Equal(t, []int{other.ID}, activeIDs(t, db, 2, model.PageTypeHome))
	assert.Equal(t, []int{about.ID}, activeIDs(t, db, 1, model.PageTypeAbout))

	reloaded, err := store.Get(ctx, 1, l1.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	assert.Equal(t, []string{"publish", "publish", "publish", "publish"}, notifier.events)
}

func TestPublish_AtMostOneActiveUnderConcurrency(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	var ids []int
	for i := 0; i < 5; i++ {
		l, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "L"})
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	var wg sync.WaitGroup
	for round := 0; round < 4; round++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				_, err := store.Publish(ctx, 1, id)
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	assert.Len(t, activeIDs(t, db, 1, model.PageTypeHome), 1)
}

func TestPublish_RetriesTransientFailure(t *testing.T) {
	store, db := newStore(t, WithMaxRetries(3))
	ctx := context.Background()

	l1, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "L1", IsActive: true})
	require.NoError(t, err)
	l2, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "L2"})
	require.NoError(t, err)

	failures := 2
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:flaky", func(tx *gorm.DB) {
		if tx.Statement.Table == "website_layouts" && failures > 0 {
			failures--
			tx.AddError(errors.New("deadlock found when trying to get lock"))
		}
	}))

	_, err = store.Publish(ctx, 1, l2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, failures)
	assert.Equal(t, []int{l2.ID}, activeIDs(t, db, 1, model.PageTypeHome))
	assert.NotContains(t, activeIDs(t, db, 1, model.PageTypeHome), l1.ID)
}

func TestPublish_ExhaustedRetriesIsConflict(t *testing.T) {
	store, db := newStore(t, WithMaxRetries(2))
	ctx := context.Background()

	l1, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "L1", IsActive: true})
	require.NoError(t, err)
	l2, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "L2"})
	require.NoError(t, err)

	// the sibling deactivation succeeds, activation always fails
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail-activate", func(tx *gorm.DB) {
		if tx.Statement.Table != "website_layouts" {
			return
		}
		if m, ok := tx.Statement.Dest.(map[string]interface{}); ok && m["is_active"] == true {
			tx.AddError(errors.New("lock wait timeout exceeded"))
		}
	}))

	_, err = store.Publish(ctx, 1, l2.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, siteerr.ErrPublishConflict))

	// rolled back: the previous layout is still the one active
	assert.Equal(t, []int{l1.ID}, activeIDs(t, db, 1, model.PageTypeHome))
}

func TestPublish_OtherCompanyLayoutNotFound(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	l, err := store.Create(ctx, 2, LayoutInput{PageType: model.PageTypeHome, Name: "T2 home"})
	require.NoError(t, err)

	_, err = store.Publish(ctx, 1, l.ID)
	assert.True(t, errors.Is(err, siteerr.ErrLayoutNotFound))
}

func TestDelete_ActiveLayoutLeavesNoActive(t *testing.T) {
	notifier := &recordingNotifier{}
	store, db := newStore(t, WithNotifier(notifier))
	ctx := context.Background()

	l, err := store.Create(ctx, 1, LayoutInput{
		PageType: model.PageTypeHome,
		Name:     "Home",
		IsActive: true,
		Sections: []SectionInput{{ComponentType: "header"}, {ComponentType: "hero"}},
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, 1, l.ID))
	assert.Empty(t, activeIDs(t, db, 1, model.PageTypeHome))

	var count int64
	require.NoError(t, db.Model(&model.LayoutSection{}).Where("layout_id = ?", l.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = store.FindActive(ctx, 1, model.PageTypeHome)
	assert.True(t, errors.Is(err, siteerr.ErrLayoutNotFound))
	assert.Equal(t, []string{"publish", "delete"}, notifier.events)
}

func TestCreate_Validation(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, 1, LayoutInput{PageType: "landing", Name: "x"})
	assert.Error(t, err)

	_, err = store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: ""})
	assert.Error(t, err)

	_, err = store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "x", Sections: []SectionInput{{}}})
	assert.Error(t, err)
}

func TestCreate_CustomPageDefaultSlug(t *testing.T) {
	store, _ := newStore(t)

	l, err := store.Create(context.Background(), 1, LayoutInput{PageType: model.PageTypeCustom, Name: "Lançamentos 2024"})
	require.NoError(t, err)
	assert.Equal(t, "/p/lancamentos-2024", l.Slug)

	l, err = store.Create(context.Background(), 1, LayoutInput{PageType: model.PageTypeAbout, Name: "Sobre", Slug: "quem-somos/"})
	require.NoError(t, err)
	assert.Equal(t, "/quem-somos", l.Slug)
}

func TestListActive_OnePerPageType(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "H1", IsActive: true})
	require.NoError(t, err)
	h2, err := store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeHome, Name: "H2", IsActive: true})
	require.NoError(t, err)
	_, err = store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeContact, Name: "C", IsActive: true})
	require.NoError(t, err)
	_, err = store.Create(ctx, 1, LayoutInput{PageType: model.PageTypeAbout, Name: "Draft"})
	require.NoError(t, err)

	active, err := store.ListActive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 2)

	byType := map[model.PageType]int{}
	for _, l := range active {
		byType[l.PageType] = l.ID
	}
	assert.Equal(t, h2.ID, byType[model.PageTypeHome])
	assert.Contains(t, byType, model.PageTypeContact)
}

func TestUpdate_ReplacesSections(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	l, err := store.Create(ctx, 1, LayoutInput{
		PageType: model.PageTypeHome,
		Name:     "Home",
		Sections: []SectionInput{{ComponentType: "hero"}},
	})
	require.NoError(t, err)

	name := "Página inicial"
	sections := []SectionInput{{ComponentType: "header"}, {ComponentType: "property-grid"}, {ComponentType: "footer"}}
	updated, err := store.Update(ctx, 1, l.ID, LayoutPatch{Name: &name, Sections: &sections})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	orders, types := sectionOrders(t, db, l.ID)
	assert.Equal(t, dense(3), orders)
	assert.Equal(t, []string{"header", "property-grid", "footer"}, types)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Quem Somos":          "quem-somos",
		"  Imóveis à venda  ": "imoveis-a-venda",
		"Ação & Promoção!":    "acao-promocao",
		"---":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
