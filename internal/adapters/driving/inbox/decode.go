package inbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

// Format is a supported finding file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format implied by a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// record is the on-disk shape of a finding. Pointers distinguish absent
// fields from zero values.
type record struct {
	ID         string         `json:"id" yaml:"id"`
	WorkItemID string         `json:"work_item_id" yaml:"work_item_id"`
	IssueID    string         `json:"issue_id" yaml:"issue_id"`
	Query      string         `json:"query" yaml:"query"`
	Source     string         `json:"source" yaml:"source"`
	Title      string         `json:"title" yaml:"title"`
	Content    string         `json:"content" yaml:"content"`
	URL        string         `json:"url" yaml:"url"`
	Relevance  *float64       `json:"relevance" yaml:"relevance"`
	Metadata   map[string]any `json:"metadata" yaml:"metadata"`
	CreatedAt  *time.Time     `json:"created_at" yaml:"created_at"`
}

// finding converts the record, accepting issue_id as an older spelling of
// work_item_id and defaulting relevance.
func (r record) finding() (domain.Finding, error) {
	source, err := domain.ParseFindingSource(r.Source)
	if err != nil {
		return domain.Finding{}, err
	}

	f := domain.Finding{
		ID:         r.ID,
		WorkItemID: r.WorkItemID,
		Query:      r.Query,
		Source:     source,
		Title:      r.Title,
		Content:    r.Content,
		URL:        r.URL,
		Relevance:  domain.DefaultRelevance,
		Metadata:   r.Metadata,
	}
	if f.WorkItemID == "" {
		f.WorkItemID = r.IssueID
	}
	if r.Relevance != nil {
		f.Relevance = *r.Relevance
	}
	if r.CreatedAt != nil {
		f.CreatedAt = *r.CreatedAt
	}
	return f, nil
}

// Entry is one decoded finding, or the reason it could not be decoded.
type Entry struct {
	Index   int
	Finding domain.Finding
	Err     error
}

// DecodeFile reads every finding in a .json, .yaml or .yml file.
// The returned error covers unreadable or malformed files; problems with
// individual findings are reported per Entry.
func DecodeFile(path string) ([]Entry, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	entries, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return entries, nil
}

// Decode reads findings in the given format. JSON input is a single object
// or an array; YAML input is a mapping, a sequence, or a stream of documents
// of either kind.
func Decode(r io.Reader, format Format) ([]Entry, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = decodeJSON(r)
	case FormatYAML:
		records, err = decodeYAML(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidInput, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		f, err := rec.finding()
		entries[i] = Entry{Index: i, Finding: f, Err: err}
	}
	return entries, nil
}

func decodeJSON(r io.Reader) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var records []record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return []record{rec}, nil
}

func decodeYAML(r io.Reader) ([]record, error) {
	var records []record
	dec := yaml.NewDecoder(r)
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		if len(node.Content) == 0 {
			continue
		}

		doc := node.Content[0]
		switch doc.Kind {
		case yaml.SequenceNode:
			var batch []record
			if err := doc.Decode(&batch); err != nil {
				return nil, err
			}
			records = append(records, batch...)
		case yaml.MappingNode:
			var rec record
			if err := doc.Decode(&rec); err != nil {
				return nil, err
			}
			records = append(records, rec)
		case yaml.ScalarNode:
			if doc.Tag == "!!null" {
				continue
			}
			return nil, fmt.Errorf("line %d: expected a finding or a list of findings", doc.Line)
		default:
			return nil, fmt.Errorf("line %d: expected a finding or a list of findings", doc.Line)
		}
	}
}
