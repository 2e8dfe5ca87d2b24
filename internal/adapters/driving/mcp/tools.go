package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

// StoreInput is the input schema for the research_store tool.
type StoreInput struct {
	ID         string         `json:"id,omitempty" jsonschema:"finding id, generated when empty"`
	WorkItemID string         `json:"work_item_id,omitempty" jsonschema:"work item the finding belongs to"`
	IssueID    string         `json:"issue_id,omitempty" jsonschema:"alias for work_item_id"`
	Query      string         `json:"query,omitempty" jsonschema:"the query or prompt that produced the finding"`
	Source     string         `json:"source" jsonschema:"where the finding came from: external_api, web or codebase"`
	Title      string         `json:"title" jsonschema:"short title"`
	Content    string         `json:"content" jsonschema:"full finding content"`
	URL        string         `json:"url,omitempty" jsonschema:"provenance URL"`
	Relevance  *float64       `json:"relevance,omitempty" jsonschema:"relevance between 0 and 1 (default 0.5)"`
	Metadata   map[string]any `json:"metadata,omitempty" jsonschema:"arbitrary key-value metadata"`
}

// StoreOutput is the output schema for the research_store tool.
type StoreOutput struct {
	ID string `json:"id"`
}

// ListInput is the input schema for the research_list tool.
type ListInput struct {
	WorkItemID string `json:"work_item_id,omitempty" jsonschema:"only findings for this work item"`
	Source     string `json:"source,omitempty" jsonschema:"only findings from this source"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 20)"`
}

// SearchInput is the input schema for the research_search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"full-text query; double quotes make a phrase, a trailing * a prefix, OR alternatives and -word exclusions"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 20)"`
}

// ShowInput is the input schema for the research_show tool.
type ShowInput struct {
	ID string `json:"id" jsonschema:"finding id"`
}

// ForInput is the input schema for the research_for tool.
type ForInput struct {
	WorkItemID string `json:"work_item_id" jsonschema:"work item id"`
}

// FindingsOutput is the output schema for tools returning previews.
type FindingsOutput struct {
	Findings []PreviewOutput `json:"findings"`
	Count    int             `json:"count"`
}

// PreviewOutput is a finding with truncated content.
type PreviewOutput struct {
	ID         string  `json:"id"`
	WorkItemID string  `json:"work_item_id,omitempty"`
	Source     string  `json:"source"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Truncated  bool    `json:"truncated,omitempty"`
	URL        string  `json:"url,omitempty"`
	Relevance  float64 `json:"relevance"`
	CreatedAt  string  `json:"created_at"`
}

// FindingOutput is a complete finding.
type FindingOutput struct {
	ID         string         `json:"id"`
	WorkItemID string         `json:"work_item_id,omitempty"`
	Query      string         `json:"query,omitempty"`
	Source     string         `json:"source"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	URL        string         `json:"url,omitempty"`
	Relevance  float64        `json:"relevance"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  string         `json:"created_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "research_store",
		Description: "Store a research finding. Findings with the same work item, URL and title " +
			"as an existing one are rejected.",
	}, s.handleStore)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research_list",
		Description: "List stored findings, most recent first, optionally filtered by work item or source",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research_search",
		Description: "Full-text search finding titles, content and queries, best matches first",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research_show",
		Description: "Get a complete finding by id",
	}, s.handleShow)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research_for",
		Description: "List findings linked to a work item, most relevant first",
	}, s.handleFor)
}

// handleStore handles the research_store tool invocation.
func (s *Server) handleStore(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StoreInput,
) (*mcp.CallToolResult, StoreOutput, error) {
	source, err := domain.ParseFindingSource(input.Source)
	if err != nil {
		return nil, StoreOutput{}, err
	}

	finding := domain.Finding{
		ID:         input.ID,
		WorkItemID: input.WorkItemID,
		Query:      input.Query,
		Source:     source,
		Title:      input.Title,
		Content:    input.Content,
		URL:        input.URL,
		Relevance:  domain.DefaultRelevance,
		Metadata:   input.Metadata,
	}
	if finding.WorkItemID == "" {
		finding.WorkItemID = input.IssueID
	}
	if input.Relevance != nil {
		finding.Relevance = *input.Relevance
	}

	id, err := s.ports.Research.Add(ctx, finding)
	if err != nil {
		return nil, StoreOutput{}, fmt.Errorf("storing finding: %w", err)
	}
	return nil, StoreOutput{ID: id}, nil
}

// handleList handles the research_list tool invocation.
func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, FindingsOutput, error) {
	filter := domain.ListFilter{WorkItemID: input.WorkItemID}
	if input.Source != "" {
		source, err := domain.ParseFindingSource(input.Source)
		if err != nil {
			return nil, FindingsOutput{}, err
		}
		filter.Source = source
	}

	previews, err := s.ports.Research.List(ctx, filter, input.Limit)
	if err != nil {
		return nil, FindingsOutput{}, fmt.Errorf("listing findings: %w", err)
	}
	return nil, findingsOutput(previews), nil
}

// handleSearch handles the research_search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, FindingsOutput, error) {
	previews, err := s.ports.Research.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, FindingsOutput{}, fmt.Errorf("searching findings: %w", err)
	}
	return nil, findingsOutput(previews), nil
}

// handleShow handles the research_show tool invocation.
func (s *Server) handleShow(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ShowInput,
) (*mcp.CallToolResult, FindingOutput, error) {
	finding, err := s.ports.Research.Show(ctx, input.ID)
	if err != nil {
		return nil, FindingOutput{}, fmt.Errorf("getting finding: %w", err)
	}
	if finding == nil {
		return nil, FindingOutput{}, fmt.Errorf("research %s %w", input.ID, domain.ErrNotFound)
	}
	return nil, findingOutput(finding), nil
}

// handleFor handles the research_for tool invocation.
func (s *Server) handleFor(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ForInput,
) (*mcp.CallToolResult, FindingsOutput, error) {
	previews, err := s.ports.Research.ForWorkItem(ctx, input.WorkItemID)
	if err != nil {
		return nil, FindingsOutput{}, fmt.Errorf("listing findings for work item: %w", err)
	}
	return nil, findingsOutput(previews), nil
}

func findingsOutput(previews []domain.FindingPreview) FindingsOutput {
	out := FindingsOutput{
		Findings: make([]PreviewOutput, len(previews)),
		Count:    len(previews),
	}
	for i, p := range previews {
		out.Findings[i] = PreviewOutput{
			ID:         p.ID,
			WorkItemID: p.WorkItemID,
			Source:     p.Source.String(),
			Title:      p.Title,
			Content:    p.Content,
			Truncated:  p.Truncated,
			URL:        p.URL,
			Relevance:  p.Relevance,
			CreatedAt:  p.CreatedAt.Format(time.RFC3339Nano),
		}
	}
	return out
}

func findingOutput(f *domain.Finding) FindingOutput {
	metadata := f.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return FindingOutput{
		ID:         f.ID,
		WorkItemID: f.WorkItemID,
		Query:      f.Query,
		Source:     f.Source.String(),
		Title:      f.Title,
		Content:    f.Content,
		URL:        f.URL,
		Relevance:  f.Relevance,
		Metadata:   metadata,
		CreatedAt:  f.CreatedAt.Format(time.RFC3339Nano),
	}
}
