package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("corretor-2024")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "corretor-2024", hash)

	// 同一密码两次哈希，盐不同
	again, err := HashPassword("corretor-2024")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestComparePassword(t *testing.T) {
	hash, err := HashPassword("corretor-2024")
	require.NoError(t, err)

	tests := []struct {
		plain string
		ok    bool
	}{
		{"corretor-2024", true},
		{"Corretor-2024", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ComparePassword(hash, tt.plain)
		if tt.ok {
			assert.NoError(t, err, tt.plain)
		} else {
			assert.Error(t, err, tt.plain)
		}
	}
}

func TestCompareDummy(t *testing.T) {
	assert.Error(t, CompareDummy("anything-at-all"))
	assert.Error(t, CompareDummy(""))
}
