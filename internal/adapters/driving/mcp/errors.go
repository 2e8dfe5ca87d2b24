// Package mcp provides an MCP (Model Context Protocol) server adapter for beans.
// It lets agents store research findings and query them while they work.
package mcp

import "errors"

// ErrMissingResearchService is returned when the research service is not provided.
var ErrMissingResearchService = errors.New("mcp: research service is required")
