package sections

import (
	"context"
	"errors"
	"testing"

	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/siteclient"
	"go_sitebuilder/internal/siteconfig"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProperties struct {
	items   []model.Property
	total   int64
	lastQ   siteclient.PropertyQuery
	listErr error
}

func (f *fakeProperties) ListProperties(_ context.Context, companyID int, q siteclient.PropertyQuery) (*siteclient.PropertyPage, error) {
	f.lastQ = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Property
	for _, p := range f.items {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return &siteclient.PropertyPage{Items: out, Total: f.total}, nil
}

func (f *fakeProperties) GetProperty(_ context.Context, companyID, id int) (*model.Property, error) {
	for _, p := range f.items {
		if p.ID == id && p.CompanyID == companyID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func testSite() *Site {
	return &Site{
		Company: siteconfig.CompanyInfo{ID: 1, Name: "Imobiliária Sol", Description: "Desde 1990"},
		Visual: siteconfig.VisualConfig{
			Branding: siteconfig.Branding{CompanyName: "Sol Imóveis", Tagline: "Seu lar"},
			Contact:  siteconfig.Contact{Phone: "11 4000-0000", Email: "contato@sol.com.br", Whatsapp: "+55 (11) 99999-0000", Creci: "J-123"},
		},
		Pages: []siteconfig.Page{
			{Slug: "/", Name: "Início"},
			{Slug: "/imoveis", Name: "Imóveis"},
			{Slug: "/imovel/:id", Name: "Imóvel"},
		},
		Params: map[string]string{},
	}
}

func fullDispatcher(t *testing.T, props PropertySource) *Dispatcher {
	t.Helper()
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(logrus.NewEntry(logger))
	RegisterDefaults(d, props)
	return d
}

func render(t *testing.T, d *Dispatcher, typ string, config map[string]interface{}, site *Site) interface{} {
	t.Helper()
	r, ok := d.Render(context.Background(), siteconfig.Section{Type: typ, Config: config}, site)
	require.True(t, ok, typ)
	return r.Props
}

func TestDefaultPaletteRendersWithEmptyConfig(t *testing.T) {
	d := fullDispatcher(t, &fakeProperties{})

	want := []string{
		"about", "contact-form", "contact-info", "cta", "footer", "gallery", "header", "hero",
		"property-detail", "property-grid", "search-bar", "testimonials", "text", "whatsapp-button",
	}
	assert.Equal(t, want, d.Types())

	for _, typ := range want {
		t.Run(typ, func(t *testing.T) {
			_, ok := d.Render(context.Background(), siteconfig.Section{Type: typ}, testSite())
			assert.True(t, ok)
		})
	}
}

func TestHeaderUsesBrandingAndNav(t *testing.T) {
	d := fullDispatcher(t, nil)
	h := render(t, d, "header", nil, testSite()).(HeaderProps)

	assert.Equal(t, "Sol Imóveis", h.CompanyName)
	assert.Equal(t, "11 4000-0000", h.Phone)
	assert.Equal(t, []Link{{Label: "Início", Href: "/"}, {Label: "Imóveis", Href: "/imoveis"}}, h.Links)

	h = render(t, d, "header", map[string]interface{}{"showPhone": false}, testSite()).(HeaderProps)
	assert.Empty(t, h.Phone)
}

func TestHeroDefaults(t *testing.T) {
	d := fullDispatcher(t, nil)
	h := render(t, d, "hero", map[string]interface{}{"overlayOpacity": float64(3)}, testSite()).(HeroProps)

	assert.Equal(t, "Encontre o imóvel dos seus sonhos", h.Title)
	assert.Equal(t, "Seu lar", h.Subtitle)
	assert.Equal(t, 0.5, h.OverlayOpacity)
	assert.True(t, h.ShowSearch)
}

func TestPropertyGrid(t *testing.T) {
	src := &fakeProperties{
		items: []model.Property{
			{BaseModel: model.BaseModel{ID: 10}, CompanyID: 1, Title: "Casa", Price: 100},
			{BaseModel: model.BaseModel{ID: 11}, CompanyID: 2, Title: "Outra"},
		},
		total: 5,
	}
	d := fullDispatcher(t, src)

	g := render(t, d, "property-grid", map[string]interface{}{
		"limit": float64(3), "purpose": "venda", "featuredOnly": true, "showPrice": false,
	}, testSite()).(PropertyGridProps)

	require.Len(t, g.Items, 1)
	assert.Equal(t, "Casa", g.Items[0].Title)
	assert.Equal(t, "/imovel/10", g.Items[0].Href)
	assert.Zero(t, g.Items[0].Price)
	assert.Equal(t, "/imoveis", g.MoreURL)
	assert.Equal(t, 3, src.lastQ.PageSize)
	assert.Equal(t, "venda", src.lastQ.Purpose)
	require.NotNil(t, src.lastQ.Featured)
	assert.True(t, *src.lastQ.Featured)
}

func TestPropertyGridSourceFailureSkipsSection(t *testing.T) {
	d := fullDispatcher(t, &fakeProperties{listErr: errors.New("api down")})
	out := d.RenderAll(context.Background(), []siteconfig.Section{
		{ID: 1, Type: "property-grid"},
		{ID: 2, Type: "cta"},
	}, testSite())

	require.Len(t, out, 1)
	assert.Equal(t, "cta", out[0].Type)
}

func TestPropertyDetail(t *testing.T) {
	src := &fakeProperties{items: []model.Property{{BaseModel: model.BaseModel{ID: 42}, CompanyID: 1, Title: "Apto"}}}
	d := fullDispatcher(t, src)

	site := testSite()
	site.Params = map[string]string{"id": "42"}
	p := render(t, d, "property-detail", nil, site).(PropertyDetailProps)
	require.NotNil(t, p.Property)
	assert.Equal(t, "Apto", p.Property.Title)
	assert.False(t, p.NotFound)
	assert.Contains(t, p.WhatsappURL, "https://wa.me/5511999990000?text=")

	site.Params = map[string]string{"id": "7"}
	p = render(t, d, "property-detail", nil, site).(PropertyDetailProps)
	assert.True(t, p.NotFound)

	site.Params = map[string]string{"id": "abc"}
	p = render(t, d, "property-detail", nil, site).(PropertyDetailProps)
	assert.True(t, p.NotFound)
}

func TestTestimonialsFiltersInvalidItems(t *testing.T) {
	d := fullDispatcher(t, nil)
	tp := render(t, d, "testimonials", map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "Ana", "text": "Ótimo", "rating": float64(9)},
			map[string]interface{}{"name": "Sem texto"},
			"not an object",
		},
	}, testSite()).(TestimonialsProps)

	require.Len(t, tp.Items, 1)
	assert.Equal(t, 5, tp.Items[0].Rating)
}

func TestWhatsappButtonNeedsNumber(t *testing.T) {
	d := fullDispatcher(t, nil)

	site := testSite()
	site.Visual.Contact.Whatsapp = ""
	_, ok := d.Render(context.Background(), siteconfig.Section{Type: "whatsapp-button"}, site)
	assert.False(t, ok)

	w := render(t, d, "whatsapp-button", map[string]interface{}{"number": "11 98888-7777", "message": "Oi"}, site).(WhatsappButtonProps)
	assert.Equal(t, "https://wa.me/11988887777?text=Oi", w.URL)
	assert.Equal(t, "bottom-right", w.Position)
}

func TestFooterCopyright(t *testing.T) {
	d := fullDispatcher(t, nil)
	f := render(t, d, "footer", nil, testSite()).(FooterProps)
	assert.Equal(t, "© Sol Imóveis. Todos os direitos reservados.", f.Copyright)
	assert.Equal(t, "J-123", f.Creci)
	assert.NotNil(t, f.Social)
}
