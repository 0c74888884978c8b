package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for playbook resources.
	uriScheme = "playbookbot://"

	// listResourceLimit bounds the playbook listing resource.
	listResourceLimit = 500
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "playbooks",
		Name:        "playbooks",
		Description: "Indexed playbooks ordered by title",
		MIMEType:    "application/json",
	}, s.handlePlaybooksResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "categories",
		Name:        "categories",
		Description: "Playbook categories with their counts",
		MIMEType:    "application/json",
	}, s.handleCategoriesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "playbooks/{playbookId}",
		Name:        "playbook-content",
		Description: "Content of a specific playbook",
		MIMEType:    "text/markdown",
	}, s.handlePlaybookContentResource)
}

// handlePlaybooksResource returns a summary of every playbook.
func (s *Server) handlePlaybooksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	playbooks, err := s.ports.Search.List(ctx, domain.ListOptions{Limit: listResourceLimit})
	if err != nil {
		return nil, fmt.Errorf("listing playbooks: %w", err)
	}

	type playbookInfo struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Category string `json:"category"`
		URL      string `json:"url"`
	}

	infos := make([]playbookInfo, len(playbooks))
	for i := range playbooks {
		infos[i] = playbookInfo{
			ID:       playbooks[i].ID,
			Title:    playbooks[i].Title,
			Category: playbooks[i].Category.String(),
			URL:      playbooks[i].URL,
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleCategoriesResource returns the categories in use.
func (s *Server) handleCategoriesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	counts, err := s.ports.Search.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	byName := make(map[string]int, len(counts))
	for c, n := range counts {
		byName[c.String()] = n
	}
	return jsonResource(req.Params.URI, byName)
}

// handlePlaybookContentResource returns one playbook rendered as markdown.
func (s *Server) handlePlaybookContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract playbookId from URI: playbookbot://playbooks/{playbookId}
	id := extractPlaybookID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	p, err := s.ports.Search.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting playbook: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     renderPlaybook(p),
		}},
	}, nil
}

func renderPlaybook(p *domain.Playbook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(&b, "Source: %s\n\n", p.URL)
	b.WriteString(p.Content)
	return b.String()
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

// extractPlaybookID extracts the ID from a URI like playbookbot://playbooks/{playbookId}.
func extractPlaybookID(uri string) string {
	const prefix = uriScheme + "playbooks/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
