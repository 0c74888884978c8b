// Package mcp provides an MCP (Model Context Protocol) server adapter for playbookbot.
// It lets AI assistants search, recommend and synchronise playbooks.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrNotConfigured is returned by a tool whose backing service is absent.
var ErrNotConfigured = errors.New("mcp: tool not configured")
