package clickup

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

type team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type folder struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Lists []taskList `json:"lists"`
}

type taskList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type task struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	TextContent         string `json:"text_content"`
	MarkdownDescription string `json:"markdown_description"`
	URL                 string `json:"url"`
	DateCreated         string `json:"date_created"`
	DateUpdated         string `json:"date_updated"`
	Status              struct {
		Status string `json:"status"`
		Type   string `json:"type"`
	} `json:"status"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	List   ref `json:"list"`
	Folder ref `json:"folder"`
	Space  ref `json:"space"`
}

type teamsResponse struct {
	Teams []team `json:"teams"`
}

type spacesResponse struct {
	Spaces []space `json:"spaces"`
}

type foldersResponse struct {
	Folders []folder `json:"folders"`
}

type listsResponse struct {
	Lists []taskList `json:"lists"`
}

type tasksResponse struct {
	Tasks    []task `json:"tasks"`
	LastPage bool   `json:"last_page"`
}

type errorResponse struct {
	Err   string `json:"err"`
	ECode string `json:"ECODE"`
}

// body returns the richest content field the task carries.
func (t task) body() string {
	for _, s := range []string{t.MarkdownDescription, t.TextContent, t.Description} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// format reports the markup of body.
func (t task) format() domain.ContentFormat {
	if strings.TrimSpace(t.MarkdownDescription) != "" {
		return domain.FormatMarkdown
	}
	return domain.FormatText
}

// toItem converts the task to a domain.SourceItem. Only a task without an
// ID is rejected here; missing names or URLs are left for the synchroniser
// to reject and count.
func (t task) toItem() (domain.SourceItem, error) {
	if strings.TrimSpace(t.ID) == "" {
		return domain.SourceItem{}, fmt.Errorf("%w: task without id", domain.ErrValidationFailed)
	}

	tags := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		if tag.Name != "" {
			tags = append(tags, tag.Name)
		}
	}

	metadata := map[string]string{}
	for k, v := range map[string]string{
		"status":    t.Status.Status,
		"list_id":   t.List.ID,
		"list":      t.List.Name,
		"folder_id": t.Folder.ID,
		"folder":    t.Folder.Name,
		"space_id":  t.Space.ID,
	} {
		if v != "" {
			metadata[k] = v
		}
	}

	return domain.SourceItem{
		ID:             t.ID,
		Name:           strings.TrimSpace(t.Name),
		Content:        t.body(),
		Format:         t.format(),
		Tags:           tags,
		URL:            t.URL,
		LastModifiedAt: parseMillis(t.DateUpdated),
		Kind:           domain.ItemKindTask,
		Metadata:       metadata,
	}, nil
}

// parseMillis parses ClickUp's Unix-millisecond timestamp strings.
func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// matchesKeywords reports whether text contains any keyword, case-insensitively.
func matchesKeywords(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
