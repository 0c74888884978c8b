package domain

import "time"

// ItemKind distinguishes the shapes of content a source yields.
type ItemKind string

// Item kinds.
const (
	ItemKindTask ItemKind = "task"
	ItemKindDoc  ItemKind = "doc"
)

// ContentFormat is the markup of SourceItem.Content.
type ContentFormat string

// Content formats. An empty format is treated as text that may carry HTML.
const (
	FormatText     ContentFormat = "text"
	FormatHTML     ContentFormat = "html"
	FormatMarkdown ContentFormat = "markdown"
)

// SourceItem is one indexable item as yielded by a source connector.
// Connectors decode their API payloads into this shape at the boundary.
type SourceItem struct {
	// ID is the source's identifier. It becomes Playbook.SourceID.
	ID string

	// Name is the item title.
	Name string

	// Description is the short summary, if the source has one.
	Description string

	// Content is the body text.
	Content string

	// Format is the markup of Content.
	Format ContentFormat

	// Tags are the item's labels in source order.
	Tags []string

	// URL is the canonical link to the item.
	URL string

	// LastModifiedAt is the source's last-modified time.
	LastModifiedAt time.Time

	// Kind is the item type.
	Kind ItemKind

	// Metadata carries connector-specific strings (space, folder, list, status).
	Metadata map[string]string
}

// Scope selects the part of the source to synchronise.
// Narrower fields win: Folder, then Space, then Workspace auto-discovery.
type Scope struct {
	// WorkspaceID is the top-level workspace (ClickUp team).
	WorkspaceID string

	// SpaceID restricts the sync to one space.
	SpaceID string

	// FolderID restricts the sync to one folder.
	FolderID string

	// ListID restricts the sync to one list.
	ListID string
}

// Level returns the narrowest configured level of the scope.
func (s Scope) Level() string {
	switch {
	case s.ListID != "":
		return "list"
	case s.FolderID != "":
		return "folder"
	case s.SpaceID != "":
		return "space"
	case s.WorkspaceID != "":
		return "workspace"
	default:
		return "auto"
	}
}

// String returns a compact description used in logs and sync runs.
func (s Scope) String() string {
	switch s.Level() {
	case "list":
		return "list:" + s.ListID
	case "folder":
		return "folder:" + s.FolderID
	case "space":
		return "space:" + s.SpaceID
	case "workspace":
		return "workspace:" + s.WorkspaceID
	default:
		return "auto"
	}
}
