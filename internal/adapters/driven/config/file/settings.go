package file

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driven"
)

// Config keys for research settings.
const (
	KeyDatabase            = "research.database"
	KeyListLimit           = "research.list_limit"
	KeyPreviewLength       = "research.preview_length"
	KeySearchPreviewLength = "research.search_preview_length"
	KeyClampRelevance      = "research.clamp_relevance"
)

// SettingsKeys lists the recognised research keys in display order.
func SettingsKeys() []string {
	return []string{KeyDatabase, KeyListLimit, KeyPreviewLength, KeySearchPreviewLength, KeyClampRelevance}
}

// LoadSettings maps configuration values onto domain.Settings, keeping the
// defaults for keys that are absent or of the wrong type. A relative
// research.database is kept relative to the working directory.
func LoadSettings(store driven.ConfigStore, stateDir string) domain.Settings {
	settings := domain.DefaultSettings(stateDir)
	if store == nil {
		return settings
	}

	if db := strings.TrimSpace(store.GetString(KeyDatabase)); db != "" {
		settings.DatabasePath = filepath.Clean(db)
	}
	if n := store.GetInt(KeyListLimit); n > 0 {
		settings.ListLimit = n
	}
	if n := store.GetInt(KeyPreviewLength); n > 0 {
		settings.PreviewLength = n
	}
	if n := store.GetInt(KeySearchPreviewLength); n > 0 {
		settings.SearchPreviewLength = n
	}
	if _, ok := store.Get(KeyClampRelevance); ok {
		settings.ClampRelevance = store.GetBool(KeyClampRelevance)
	}

	return settings.Normalise()
}

// ParseValue converts command-line text into the TOML type it most likely
// denotes: bool, then integer, then string.
func ParseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
