package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// SearchInput is the input schema for the search_playbooks tool.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"what the user needs a playbook for"`
	Category  string   `json:"category,omitempty" jsonschema:"restrict results to one category, e.g. Sales or Engineering"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity between 0 and 1, exclusive (default 0.7)"`
	Explain   *bool    `json:"explain,omitempty" jsonschema:"add a short relevance explanation per result"`
}

// SearchOutput is the output schema for the search_playbooks tool.
type SearchOutput struct {
	Results []PlaybookOutput `json:"results"`
	Count   int              `json:"count"`
}

// PlaybookOutput represents a single matched playbook.
type PlaybookOutput struct {
	ID          string   `json:"id"`
	SourceID    string   `json:"source_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	URL         string   `json:"url"`
	Similarity  float64  `json:"similarity"`
	Explanation string   `json:"explanation,omitempty"`
}

// RecommendInput is the input schema for the recommend_playbooks tool.
type RecommendInput struct {
	Query     string   `json:"query" jsonschema:"the situation or need to recommend playbooks for"`
	Category  string   `json:"category,omitempty" jsonschema:"restrict recommendations to one category"`
	Limit     int      `json:"limit,omitempty" jsonschema:"number of recommendations (default 5)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"acceptance bar between 0 and 1 (default 0.7)"`
}

// RecommendOutput is the output schema for the recommend_playbooks tool.
type RecommendOutput struct {
	Intent      string           `json:"intent,omitempty"`
	Results     []PlaybookOutput `json:"results"`
	Suggestions []string         `json:"suggestions,omitempty"`
}

// SyncInput is the input schema for the sync_playbooks tool.
type SyncInput struct {
	ListID           string `json:"list_id,omitempty" jsonschema:"sync one ClickUp list"`
	FolderID         string `json:"folder_id,omitempty" jsonschema:"sync one ClickUp folder"`
	SpaceID          string `json:"space_id,omitempty" jsonschema:"sync one ClickUp space"`
	WorkspaceID      string `json:"workspace_id,omitempty" jsonschema:"discover playbooks in one workspace"`
	Limit            int    `json:"limit,omitempty" jsonschema:"maximum number of items (default 100)"`
	IncludeCompleted bool   `json:"include_completed,omitempty" jsonschema:"include closed tasks"`
	Force            bool   `json:"force,omitempty" jsonschema:"re-index items that have not changed"`
}

// SyncOutput is the output schema for the sync_playbooks tool.
type SyncOutput struct {
	RunID    string   `json:"run_id"`
	Scope    string   `json:"scope"`
	Success  bool     `json:"success"`
	New      int      `json:"new"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
	Error    string   `json:"error,omitempty"`
	Duration string   `json:"duration"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_playbooks",
		Description: "Find playbooks semantically similar to a query",
	}, s.handleSearch)

	if s.ports.Recommend != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "recommend_playbooks",
			Description: "Recommend playbooks for a need, with the interpreted intent and alternative phrasings",
		}, s.handleRecommend)
	}

	if s.ports.Sync != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync_playbooks",
			Description: "Synchronise playbooks from ClickUp into the search index",
		}, s.handleSync)
	}
}

// handleSearch handles the search_playbooks tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Category:  parseCategory(input.Category),
		Limit:     input.Limit,
		Threshold: s.threshold(input.Threshold),
		Explain:   s.ports.Defaults.Explain,
	}
	if opts.Limit <= 0 {
		opts.Limit = s.ports.Defaults.Limit
	}
	if input.Explain != nil {
		opts.Explain = *input.Explain
	}

	var results []domain.SearchResult
	err := s.limit(ctx, sessionOf(req), domain.RateLimitSearch, func(ctx context.Context) error {
		var err error
		results, err = s.ports.Search.Search(ctx, input.Query, opts)
		return err
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: toPlaybookOutputs(results),
		Count:   len(results),
	}
	return nil, output, nil
}

// handleRecommend handles the recommend_playbooks tool invocation.
func (s *Server) handleRecommend(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RecommendInput,
) (*mcp.CallToolResult, RecommendOutput, error) {
	if s.ports.Recommend == nil {
		return nil, RecommendOutput{}, ErrNotConfigured
	}

	opts := domain.RecommendOptions{
		Category:  parseCategory(input.Category),
		Limit:     input.Limit,
		Threshold: s.threshold(input.Threshold),
	}
	if opts.Limit <= 0 {
		opts.Limit = s.ports.Defaults.Limit
	}

	var rec *domain.Recommendation
	err := s.limit(ctx, sessionOf(req), domain.RateLimitRecommend, func(ctx context.Context) error {
		var err error
		rec, err = s.ports.Recommend.Recommend(ctx, input.Query, opts)
		return err
	})
	if err != nil {
		return nil, RecommendOutput{}, err
	}

	return nil, RecommendOutput{
		Intent:      rec.Intent.Value,
		Results:     toPlaybookOutputs(rec.Results),
		Suggestions: rec.Suggestions.Value,
	}, nil
}

// handleSync handles the sync_playbooks tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if s.ports.Sync == nil {
		return nil, SyncOutput{}, ErrNotConfigured
	}

	syncReq := domain.SyncRequest{
		Scope: domain.Scope{
			WorkspaceID: input.WorkspaceID,
			SpaceID:     input.SpaceID,
			FolderID:    input.FolderID,
			ListID:      input.ListID,
		},
		Limit:            input.Limit,
		IncludeCompleted: input.IncludeCompleted,
		Force:            input.Force,
	}

	var run *domain.SyncRun
	err := s.limit(ctx, sessionOf(req), domain.RateLimitSync, func(ctx context.Context) error {
		var err error
		run, err = s.ports.Sync.Sync(ctx, syncReq)
		return err
	})
	if err != nil && run == nil {
		return nil, SyncOutput{}, err
	}

	output := SyncOutput{
		RunID:    run.ID,
		Scope:    run.Scope,
		Success:  run.Success,
		New:      run.SyncedCount,
		Updated:  run.UpdatedCount,
		Skipped:  run.SkippedCount,
		Failed:   run.ErrorCount,
		Errors:   run.Errors,
		Duration: run.Duration().Round(time.Millisecond).String(),
	}
	if err != nil {
		// An aborted run is still reported so the caller sees what was recorded.
		output.Error = err.Error()
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "sync failed: " + err.Error()}},
		}, output, nil
	}
	return nil, output, nil
}

func (s *Server) threshold(v *float64) float64 {
	if v != nil {
		return *v
	}
	return s.ports.Defaults.Threshold
}

// parseCategory keeps an empty filter empty instead of mapping it to General.
func parseCategory(v string) domain.Category {
	if v == "" {
		return ""
	}
	return domain.ParseCategory(v)
}

func sessionOf(req *mcp.CallToolRequest) *mcp.ServerSession {
	if req == nil {
		return nil
	}
	return req.Session
}

func toPlaybookOutputs(results []domain.SearchResult) []PlaybookOutput {
	out := make([]PlaybookOutput, len(results))
	for i := range results {
		p := results[i].Playbook
		out[i] = PlaybookOutput{
			ID:          p.ID,
			SourceID:    p.SourceID,
			Title:       p.Title,
			Description: p.Description,
			Category:    p.Category.String(),
			Tags:        p.Tags,
			URL:         p.URL,
			Similarity:  results[i].Similarity,
			Explanation: results[i].Explanation.Value,
		}
	}
	return out
}
