package clickup

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.SourceConnector = (*Connector)(nil)

// DefaultLimit applies when a caller passes no limit.
const DefaultLimit = 100

// Connector reads playbook tasks from ClickUp.
type Connector struct {
	client   *Client
	keywords []string
}

// New creates a connector.
func New(cfg Config) (*Connector, error) {
	cfg.applyDefaults()
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Connector{client: client, keywords: cfg.DiscoveryKeywords}, nil
}

// ListItems returns up to limit tasks in the scope. The narrowest scope
// field wins; an empty scope discovers playbooks across every workspace.
func (c *Connector) ListItems(
	ctx context.Context, scope domain.Scope, includeCompleted bool, limit int,
) ([]domain.SourceItem, error) {
	col := c.newCollector(limit, includeCompleted, nil)
	if scope.Level() == "workspace" || scope.Level() == "auto" {
		col.keep = c.isPlaybook
	}

	if err := c.run(ctx, scope, col); err != nil {
		return col.items, err
	}
	logger.Debug("ClickUp %s: %d items", scope, len(col.items))
	return col.items, nil
}

// GetItem fetches a single task.
func (c *Connector) GetItem(ctx context.Context, id string) (*domain.SourceItem, error) {
	t, err := c.client.Task(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := t.toItem()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Search returns tasks in the scope whose name contains the query.
// ClickUp has no full-text task search, so matching happens client-side.
func (c *Connector) Search(ctx context.Context, query string, scope domain.Scope, limit int) ([]domain.SourceItem, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidInput)
	}

	col := c.newCollector(limit, false, func(t task) bool {
		return strings.Contains(strings.ToLower(t.Name), query)
	})
	if err := c.run(ctx, scope, col); err != nil {
		return col.items, err
	}
	return col.items, nil
}

// run walks the scope. Discovery tolerates unreadable sub-scopes but fails
// when none of its lists could be read.
func (c *Connector) run(ctx context.Context, scope domain.Scope, col *collector) error {
	if err := c.walk(ctx, scope, col); err != nil {
		return err
	}
	if col.skipped != nil && col.listsRead == 0 {
		return col.skipped
	}
	return nil
}

// walk visits the scope's lists, narrowest field first, until the collector is full.
func (c *Connector) walk(ctx context.Context, scope domain.Scope, col *collector) error {
	switch scope.Level() {
	case "list":
		return c.collectList(ctx, scope.ListID, col)
	case "folder":
		lists, err := c.client.FolderLists(ctx, scope.FolderID)
		if err != nil {
			return err
		}
		return c.collectLists(ctx, lists, col)
	case "space":
		return c.collectSpace(ctx, scope.SpaceID, col)
	case "workspace":
		spaces, err := c.client.Spaces(ctx, scope.WorkspaceID)
		if err != nil {
			return err
		}
		col.tolerant = true
		return c.collectSpaces(ctx, spaces, col)
	default:
		teams, err := c.client.Teams(ctx)
		if err != nil {
			return err
		}
		col.tolerant = true
		for _, t := range teams {
			if col.full() {
				return nil
			}
			spaces, err := c.client.Spaces(ctx, t.ID)
			if err != nil {
				if err := col.skip(ctx, "workspace "+t.ID, err); err != nil {
					return err
				}
				continue
			}
			if err := c.collectSpaces(ctx, spaces, col); err != nil {
				return err
			}
		}
		return nil
	}
}

func (c *Connector) collectSpaces(ctx context.Context, spaces []space, col *collector) error {
	for _, s := range spaces {
		if col.full() {
			return nil
		}
		if err := c.collectSpace(ctx, s.ID, col); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connector) collectSpace(ctx context.Context, spaceID string, col *collector) error {
	folders, err := c.client.Folders(ctx, spaceID)
	if err != nil {
		if err := col.skip(ctx, "folders of space "+spaceID, err); err != nil {
			return err
		}
	}
	for _, f := range folders {
		if col.full() {
			return nil
		}
		lists := f.Lists
		if lists == nil {
			if lists, err = c.client.FolderLists(ctx, f.ID); err != nil {
				if err := col.skip(ctx, "folder "+f.ID, err); err != nil {
					return err
				}
				continue
			}
		}
		if err := c.collectLists(ctx, lists, col); err != nil {
			return err
		}
	}

	if col.full() {
		return nil
	}
	lists, err := c.client.FolderlessLists(ctx, spaceID)
	if err != nil {
		return col.skip(ctx, "folderless lists of space "+spaceID, err)
	}
	return c.collectLists(ctx, lists, col)
}

func (c *Connector) collectLists(ctx context.Context, lists []taskList, col *collector) error {
	for _, l := range lists {
		if col.full() {
			return nil
		}
		if err := c.collectList(ctx, l.ID, col); err != nil {
			if err := col.skip(ctx, "list "+l.ID, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Connector) collectList(ctx context.Context, listID string, col *collector) error {
	for page := 0; page < maxPages && !col.full(); page++ {
		tasks, last, err := c.client.TasksPage(ctx, listID, page, col.includeClosed)
		if err != nil {
			return err
		}
		if page == 0 {
			col.listsRead++
		}
		for _, t := range tasks {
			if col.full() {
				return nil
			}
			col.add(t)
		}
		if last {
			return nil
		}
	}
	return nil
}

func (c *Connector) isPlaybook(t task) bool {
	return matchesKeywords(t.Name+" "+t.body(), c.keywords)
}

// collector accumulates converted tasks up to a limit.
type collector struct {
	items         []domain.SourceItem
	seen          map[string]bool
	limit         int
	includeClosed bool
	keep          func(task) bool

	// tolerant skips unreadable sub-scopes instead of failing the walk.
	tolerant  bool
	skipped   error
	listsRead int
}

func (c *Connector) newCollector(limit int, includeClosed bool, keep func(task) bool) *collector {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &collector{
		seen:          make(map[string]bool),
		limit:         limit,
		includeClosed: includeClosed,
		keep:          keep,
	}
}

func (col *collector) full() bool {
	return len(col.items) >= col.limit
}

// skip records a sub-scope failure when the walk is tolerant and returns
// err unchanged otherwise. Cancellation always stops the walk.
func (col *collector) skip(ctx context.Context, what string, err error) error {
	if !col.tolerant || ctx.Err() != nil {
		return err
	}
	logger.Warn("Skipping ClickUp %s: %v", what, err)
	if col.skipped == nil {
		col.skipped = err
	}
	return nil
}

func (col *collector) add(t task) {
	if col.seen[t.ID] {
		return
	}
	if col.keep != nil && !col.keep(t) {
		return
	}
	item, err := t.toItem()
	if err != nil {
		logger.Warn("Skipping ClickUp task: %v", err)
		return
	}
	col.seen[t.ID] = true
	col.items = append(col.items, item)
}
