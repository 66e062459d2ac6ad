package pageresolver

import (
	"testing"

	"go_sitebuilder/internal/siteconfig"
	"go_sitebuilder/internal/siteerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func site(slugs ...string) *siteconfig.SiteConfiguration {
	cfg := &siteconfig.SiteConfiguration{Pages: []siteconfig.Page{}}
	for _, s := range slugs {
		cfg.Pages = append(cfg.Pages, siteconfig.Page{Slug: s, Name: s})
	}
	return cfg
}

func TestResolveMatchingOrder(t *testing.T) {
	cfg := site("/imovel/:id", "/", "/sobre")

	tests := []struct {
		path   string
		slug   string
		match  MatchKind
		params map[string]string
	}{
		{"/imovel/42", "/imovel/:id", MatchParam, map[string]string{"id": "42"}},
		{"/imovel/42/", "/imovel/:id", MatchParam, map[string]string{"id": "42"}},
		{"/imovel/42?ref=home", "/imovel/:id", MatchParam, map[string]string{"id": "42"}},
		{"/sobre", "/sobre", MatchExact, map[string]string{}},
		{"/sobre/", "/sobre", MatchExact, map[string]string{}},
		{"/", "/", MatchExact, map[string]string{}},
		{"", "/", MatchExact, map[string]string{}},
		{"/unknown", "/", MatchFallback, map[string]string{}},
		// no id: falls back like any other unknown path
		{"/imovel/", "/", MatchFallback, map[string]string{}},
		{"/imovel/42/fotos", "/", MatchFallback, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ResolvePage(cfg, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.slug, got.Page.Slug)
			assert.Equal(t, tt.match, got.Match)
			assert.Equal(t, tt.params, got.Params)
		})
	}
}

func TestExactBeatsParam(t *testing.T) {
	cfg := site("/imovel/:id", "/imovel/destaque")

	got, err := ResolvePage(cfg, "/imovel/destaque")
	require.NoError(t, err)
	assert.Equal(t, "/imovel/destaque", got.Page.Slug)
	assert.Equal(t, MatchExact, got.Match)
}

func TestMultipleParams(t *testing.T) {
	cfg := site("/bairro/:city/:name")

	got, err := ResolvePage(cfg, "/bairro/campinas/cambui")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"city": "campinas", "name": "cambui"}, got.Params)
}

func TestSlugWithRegexCharacters(t *testing.T) {
	cfg := site("/p/a.b/:id")

	_, err := ResolvePage(cfg, "/p/axb/1")
	assert.ErrorIs(t, err, siteerr.ErrPageNotFound)

	got, err := ResolvePage(cfg, "/p/a.b/1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Params["id"])
}

func TestPageNotFound(t *testing.T) {
	_, err := ResolvePage(site("/sobre"), "/unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, siteerr.ErrPageNotFound)

	_, err = ResolvePage(site(), "/")
	assert.ErrorIs(t, err, siteerr.ErrPageNotFound)

	_, err = ResolvePage(nil, "/")
	assert.ErrorIs(t, err, siteerr.ErrPageNotFound)
}

func TestComponentsSortedWithoutMutatingConfig(t *testing.T) {
	cfg := &siteconfig.SiteConfiguration{Pages: []siteconfig.Page{{
		Slug:     "/",
		PageType: "home",
		Components: []siteconfig.Section{
			{ID: 2, Type: "hero", Order: 1},
			{ID: 1, Type: "header", Order: 0},
		},
	}}}

	got, err := ResolvePage(cfg, "/")
	require.NoError(t, err)
	require.Len(t, got.Page.Components, 2)
	assert.Equal(t, "header", got.Page.Components[0].Type)
	assert.Equal(t, "hero", got.Page.Components[1].Type)

	// cached configuration keeps its stored order
	assert.Equal(t, "hero", cfg.Pages[0].Components[0].Type)
}

func TestSortedComponentsStableOnDuplicates(t *testing.T) {
	in := []siteconfig.Section{{ID: 1, Order: 1}, {ID: 2, Order: 0}, {ID: 3, Order: 1}}
	out := SortedComponents(in)
	assert.Equal(t, []int{2, 1, 3}, []int{out[0].ID, out[1].ID, out[2].ID})
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":                "/",
		"/":               "/",
		"sobre":           "/sobre",
		"/sobre/":         "/sobre",
		"//imoveis//":     "/imoveis",
		"/contato?x=1#ok": "/contato",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}
