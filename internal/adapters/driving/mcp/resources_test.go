package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

func TestExtractPlaybookID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid playbook URI", "playbookbot://playbooks/pb-1", "pb-1"},
		{"invalid prefix", "file://playbooks/pb-1", ""},
		{"nested path", "playbookbot://playbooks/pb-1/extra", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPlaybookID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handlePlaybooksResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists playbooks", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{playbooks: []domain.Playbook{testPlaybook()}}})
		require.NoError(t, err)

		result, err := server.handlePlaybooksResource(ctx, makeReadResourceRequest("playbookbot://playbooks"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "pb-1")
		assert.Contains(t, result.Contents[0].Text, "Discovery Call Playbook")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{err: errors.New("database error")}})
		require.NoError(t, err)

		_, err = server.handlePlaybooksResource(ctx, makeReadResourceRequest("playbookbot://playbooks"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing playbooks")
	})
}

func TestServer_handleCategoriesResource(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{
		categories: map[domain.Category]int{domain.CategorySales: 3, domain.CategoryGeneral: 1},
	}})
	require.NoError(t, err)

	result, err := server.handleCategoriesResource(context.Background(), makeReadResourceRequest("playbookbot://categories"))

	require.NoError(t, err)
	assert.JSONEq(t, `{"Sales": 3, "General": 1}`, result.Contents[0].Text)
}

func TestServer_handlePlaybookContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("renders playbook", func(t *testing.T) {
		p := testPlaybook()
		server, err := NewServer(&Ports{Search: &mockSearchService{playbook: &p}})
		require.NoError(t, err)

		result, err := server.handlePlaybookContentResource(ctx, makeReadResourceRequest("playbookbot://playbooks/pb-1"))

		require.NoError(t, err)
		text := result.Contents[0].Text
		assert.Contains(t, text, "# Discovery Call Playbook")
		assert.Contains(t, text, "Category: Sales")
		assert.Contains(t, text, "Tags: sales, calls")
		assert.Contains(t, text, "1. Research the account")
	})

	t.Run("unknown playbook", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, err = server.handlePlaybookContentResource(ctx, makeReadResourceRequest("playbookbot://playbooks/nope"))
		assert.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, err = server.handlePlaybookContentResource(ctx, makeReadResourceRequest("playbookbot://other"))
		assert.Error(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{err: domain.ErrStore}})
		require.NoError(t, err)

		_, err = server.handlePlaybookContentResource(ctx, makeReadResourceRequest("playbookbot://playbooks/pb-1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting playbook")
	})
}
