package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

func TestLoadSettings_Defaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSettings(".beans"), LoadSettings(store, ".beans"))
	assert.Equal(t, domain.DefaultSettings("state"), LoadSettings(nil, "state"))
}

func TestLoadSettings_FromConfig(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyDatabase, " data/../db/research.db "))
	require.NoError(t, store.Set(KeyListLimit, 7))
	require.NoError(t, store.Set(KeyPreviewLength, 40))
	require.NoError(t, store.Set(KeySearchPreviewLength, 80))
	require.NoError(t, store.Set(KeyClampRelevance, false))

	settings := LoadSettings(store, ".beans")
	assert.Equal(t, domain.Settings{
		DatabasePath:        filepath.Join("db", "research.db"),
		ListLimit:           7,
		PreviewLength:       40,
		SearchPreviewLength: 80,
		ClampRelevance:      false,
	}, settings)
}

func TestLoadSettings_IgnoresInvalidValues(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyListLimit, -3))
	require.NoError(t, store.Set(KeyPreviewLength, "long"))

	settings := LoadSettings(store, ".beans")
	assert.Equal(t, domain.DefaultListLimit, settings.ListLimit)
	assert.Equal(t, domain.DefaultPreviewLength, settings.PreviewLength)
	assert.True(t, settings.ClampRelevance)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"false", false},
		{"42", int64(42)},
		{"-1", int64(-1)},
		{"notes/research.db", "notes/research.db"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseValue(tt.raw), tt.raw)
	}
}

func TestSettingsKeys(t *testing.T) {
	assert.Len(t, SettingsKeys(), 5)
}
