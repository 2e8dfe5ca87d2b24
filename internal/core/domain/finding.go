package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// FindingSource identifies where a finding was gathered.
type FindingSource string

// Supported finding sources.
const (
	// SourceExternalAPI is a result returned by an API-backed retriever.
	SourceExternalAPI FindingSource = "external_api"

	// SourceWeb is content captured from a web page.
	SourceWeb FindingSource = "web"

	// SourceCodebase is an insight from inspecting the local codebase.
	SourceCodebase FindingSource = "codebase"
)

// DefaultRelevance is the relevance assigned when a producer has no opinion.
const DefaultRelevance = 0.5

// AllSources returns every supported source in display order.
func AllSources() []FindingSource {
	return []FindingSource{SourceExternalAPI, SourceWeb, SourceCodebase}
}

// IsValid returns true if the source is one of the supported values.
func (s FindingSource) IsValid() bool {
	switch s {
	case SourceExternalAPI, SourceWeb, SourceCodebase:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s FindingSource) String() string {
	return string(s)
}

// ParseFindingSource converts user input into a FindingSource.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseFindingSource(s string) (FindingSource, error) {
	src := FindingSource(strings.ToLower(strings.TrimSpace(s)))
	if !src.IsValid() {
		return "", fmt.Errorf("%w: %q (want one of external_api, web, codebase)", ErrInvalidSource, s)
	}
	return src, nil
}

// Finding is one persisted research note.
// Findings are created once and never updated by the store.
type Finding struct {
	// ID is the unique, immutable identifier.
	ID string `json:"id" yaml:"id"`

	// WorkItemID optionally links the finding to an externally tracked item.
	// It is a weak reference and is never validated for existence.
	WorkItemID string `json:"work_item_id,omitempty" yaml:"work_item_id,omitempty"`

	// Query is the search query or prompt that produced the finding.
	Query string `json:"query" yaml:"query"`

	// Source is where the finding was gathered.
	Source FindingSource `json:"source" yaml:"source"`

	// Title is a short label.
	Title string `json:"title" yaml:"title"`

	// Content is the full body.
	Content string `json:"content" yaml:"content"`

	// URL is an optional provenance locator.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Relevance is a caller-supplied score in [0, 1].
	Relevance float64 `json:"relevance" yaml:"relevance"`

	// Metadata holds arbitrary key-value pairs.
	Metadata map[string]any `json:"metadata" yaml:"metadata"`

	// CreatedAt is assigned at insertion.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Validate checks the fields every store requires before a write.
// Source is checked first so producers get ErrInvalidSource even when
// other fields are also wrong.
func (f *Finding) Validate() error {
	if !f.Source.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, f.Source)
	}
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(f.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if math.IsNaN(f.Relevance) || math.IsInf(f.Relevance, 0) {
		return fmt.Errorf("%w: relevance must be a finite number", ErrInvalidInput)
	}
	if len(f.Metadata) > 0 {
		if _, err := json.Marshal(f.Metadata); err != nil {
			return fmt.Errorf("%w: metadata is not valid JSON: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

// DedupKey returns the uniqueness triple (work item, url, title).
func (f *Finding) DedupKey() [3]string {
	return [3]string{f.WorkItemID, f.URL, f.Title}
}

// Preview projects the finding into a FindingPreview whose content holds at
// most maxRunes characters. A non-positive maxRunes keeps the full content.
func (f *Finding) Preview(maxRunes int) FindingPreview {
	content, truncated := TruncateRunes(f.Content, maxRunes)
	return FindingPreview{
		ID:         f.ID,
		WorkItemID: f.WorkItemID,
		Source:     f.Source,
		Title:      f.Title,
		Content:    content,
		Truncated:  truncated,
		URL:        f.URL,
		Relevance:  f.Relevance,
		CreatedAt:  f.CreatedAt,
	}
}

// FindingPreview is a display projection of a Finding.
// It is never stored.
type FindingPreview struct {
	ID         string        `json:"id"`
	WorkItemID string        `json:"work_item_id,omitempty"`
	Source     FindingSource `json:"source"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Truncated  bool          `json:"truncated,omitempty"`
	URL        string        `json:"url,omitempty"`
	Relevance  float64       `json:"relevance"`
	CreatedAt  time.Time     `json:"created_at"`
}

// TruncateRunes returns at most n runes of s and whether anything was cut.
func TruncateRunes(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}

// ListFilter restricts a listing. Empty fields match everything and set
// fields are combined with AND.
type ListFilter struct {
	// WorkItemID matches findings linked to exactly this work item.
	WorkItemID string

	// Source matches findings from exactly this source.
	Source FindingSource
}

// Validate rejects filters naming an unsupported source.
func (f ListFilter) Validate() error {
	if f.Source != "" && !f.Source.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, f.Source)
	}
	return nil
}

// Matches reports whether a finding satisfies the filter.
func (f ListFilter) Matches(finding *Finding) bool {
	if f.WorkItemID != "" && finding.WorkItemID != f.WorkItemID {
		return false
	}
	if f.Source != "" && finding.Source != f.Source {
		return false
	}
	return true
}

// ResearchStats summarises the store contents.
type ResearchStats struct {
	Total     int                   `json:"total"`
	BySource  map[FindingSource]int `json:"by_source"`
	WorkItems int                   `json:"work_items"`
}
