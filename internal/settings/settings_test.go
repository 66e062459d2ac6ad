package settings

import (
	"context"
	"testing"

	"go_sitebuilder/internal/dbtest"
	"go_sitebuilder/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetEmpty(t *testing.T) {
	store := NewStore(dbtest.Open(t))

	got, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_PutMerges(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&model.Company{BaseModel: model.BaseModel{ID: 1}, Name: "T1"}).Error)
	store := NewStore(db)
	ctx := context.Background()

	_, err := store.Put(ctx, 1, map[string]interface{}{
		"theme":   map[string]interface{}{"primaryColor": "#123456", "fontFamily": "Inter"},
		"tagline": "Seu imóvel ideal",
	})
	require.NoError(t, err)

	got, err := store.Put(ctx, 1, map[string]interface{}{
		"theme":   map[string]interface{}{"primaryColor": "#fff"},
		"tagline": nil,
	})
	require.NoError(t, err)
	assert.NotContains(t, got, "tagline")

	reloaded, err := store.Get(ctx, 1)
	require.NoError(t, err)
	theme, ok := reloaded["theme"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "#fff", theme["primaryColor"])
	assert.Equal(t, "Inter", theme["fontFamily"])
	assert.NotContains(t, reloaded, "tagline")

	var count int64
	require.NoError(t, db.Model(&model.CompanySettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		patch   map[string]interface{}
		wantErr bool
	}{
		{"valid", map[string]interface{}{"primaryColor": "#abc", "logoUrl": "https://cdn.example.com/logo.png"}, false},
		{"empty string ignored", map[string]interface{}{"primaryColor": ""}, false},
		{"bad color", map[string]interface{}{"primaryColor": "blue"}, true},
		{"nested bad color", map[string]interface{}{"theme": map[string]interface{}{"textColor": "#12"}}, true},
		{"bad scheme", map[string]interface{}{"social": map[string]interface{}{"instagramUrl": "javascript:alert(1)"}}, true},
		{"missing host", map[string]interface{}{"website": "https://"}, true},
		{"non-string ignored", map[string]interface{}{"headerColor": 12}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.patch)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergePatch_DoesNotMutateInput(t *testing.T) {
	dst := map[string]interface{}{"a": map[string]interface{}{"b": 1}}
	out := MergePatch(dst, map[string]interface{}{"a": map[string]interface{}{"c": 2}})

	assert.Equal(t, map[string]interface{}{"b": 1}, dst["a"])
	assert.Equal(t, map[string]interface{}{"b": 1, "c": 2}, out["a"])
}
