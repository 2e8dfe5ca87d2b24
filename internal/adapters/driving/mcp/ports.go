package mcp

import (
	"github.com/shinyobjectz/beans/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Research stores and queries findings.
	Research driving.ResearchService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Research == nil {
		return ErrMissingResearchService
	}
	return nil
}
