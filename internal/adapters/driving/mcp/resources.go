package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for beans resources.
	uriScheme = "beans://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "findings",
		Name:        "findings",
		Description: "Most recent research findings",
		MIMEType:    "application/json",
	}, s.handleFindingsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "findings/{findingId}",
		Name:        "finding",
		Description: "A complete research finding",
		MIMEType:    "application/json",
	}, s.handleFindingResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "work-items/{workItemId}/findings",
		Name:        "work-item-findings",
		Description: "Research findings linked to a work item, most relevant first",
		MIMEType:    "application/json",
	}, s.handleWorkItemResource)
}

// handleFindingsResource returns previews of the most recent findings.
func (s *Server) handleFindingsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	previews, err := s.ports.Research.List(ctx, domain.ListFilter{}, 0)
	if err != nil {
		return nil, fmt.Errorf("listing findings: %w", err)
	}
	return jsonResource(req.Params.URI, findingsOutput(previews))
}

// handleFindingResource returns one complete finding.
func (s *Server) handleFindingResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractFindingID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	finding, err := s.ports.Research.Show(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting finding: %w", err)
	}
	if finding == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, findingOutput(finding))
}

// handleWorkItemResource returns previews linked to a work item.
func (s *Server) handleWorkItemResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	workItemID := extractWorkItemID(req.Params.URI)
	if workItemID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	previews, err := s.ports.Research.ForWorkItem(ctx, workItemID)
	if err != nil {
		return nil, fmt.Errorf("listing findings for work item: %w", err)
	}
	return jsonResource(req.Params.URI, findingsOutput(previews))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFindingID extracts the finding ID from a URI like beans://findings/{findingId}.
func extractFindingID(uri string) string {
	const prefix = uriScheme + "findings/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// extractWorkItemID extracts the work item ID from a URI like
// beans://work-items/{workItemId}/findings.
func extractWorkItemID(uri string) string {
	const prefix = uriScheme + "work-items/"
	const suffix = "/findings"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
