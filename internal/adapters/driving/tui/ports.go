// Package tui provides an interactive terminal user interface for browsing
// research findings. It is a driving adapter over the research service.
package tui

import (
	"github.com/shinyobjectz/beans/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Research lists, searches and loads findings.
	Research driving.ResearchService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Research == nil {
		return ErrMissingResearchService
	}
	return nil
}
