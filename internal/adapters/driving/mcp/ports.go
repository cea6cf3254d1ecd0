package mcp

import (
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Search ranks notices for a query.
	Search driving.SearchService

	// Chat answers questions with citations. Optional; without it the
	// ask tool is not registered.
	Chat driving.ChatService

	// Document reads stored notices. Optional; without it the notice
	// resources are not registered.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
