package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("")

	assert.Equal(t, filepath.Join(".beans", "research.db"), s.DatabasePath)
	assert.Equal(t, 20, s.ListLimit)
	assert.Equal(t, 100, s.PreviewLength)
	assert.Equal(t, 200, s.SearchPreviewLength)
	assert.True(t, s.ClampRelevance)
}

func TestDefaultSettings_CustomStateDir(t *testing.T) {
	s := DefaultSettings("/tmp/project/.state")
	assert.Equal(t, filepath.Join("/tmp/project/.state", "research.db"), s.DatabasePath)
}

func TestSettings_Normalise(t *testing.T) {
	tests := []struct {
		name     string
		in       Settings
		expected Settings
	}{
		{
			name:     "zero values get defaults",
			in:       Settings{},
			expected: Settings{ListLimit: 20, PreviewLength: 100, SearchPreviewLength: 200},
		},
		{
			name:     "negative values get defaults",
			in:       Settings{ListLimit: -1, PreviewLength: -5, SearchPreviewLength: -1},
			expected: Settings{ListLimit: 20, PreviewLength: 100, SearchPreviewLength: 200},
		},
		{
			name: "explicit values are kept",
			in: Settings{
				DatabasePath: "x.db", ListLimit: 5, PreviewLength: 10, SearchPreviewLength: 15, ClampRelevance: true,
			},
			expected: Settings{
				DatabasePath: "x.db", ListLimit: 5, PreviewLength: 10, SearchPreviewLength: 15, ClampRelevance: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalise())
		})
	}
}
