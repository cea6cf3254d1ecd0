// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants search KIIT notices, ask cited questions and read
// individual notices.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
