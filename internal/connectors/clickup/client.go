package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Client is a minimal ClickUp v2 API client.
type Client struct {
	http        *http.Client
	baseURL     string
	rateLimiter *RateLimiter
}

// NewClient creates a client. An OAuth access token is sent as a Bearer
// token; a personal token is sent bare, as ClickUp expects.
func NewClient(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	var transport http.RoundTripper
	switch {
	case cfg.AccessToken != "":
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		}
	case cfg.APIToken != "":
		transport = &personalTokenTransport{token: cfg.APIToken, base: http.DefaultTransport}
	default:
		return nil, errors.New("clickup: API token or access token is required")
	}

	return &Client{
		http:        &http.Client{Transport: transport, Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: NewRateLimiter(cfg.Throttle, cfg.Quota),
	}, nil
}

// Teams returns the workspaces the token can access.
func (c *Client) Teams(ctx context.Context) ([]team, error) {
	var resp teamsResponse
	if err := c.get(ctx, "/team", nil, &resp); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return resp.Teams, nil
}

// Spaces returns the non-archived spaces of a workspace.
func (c *Client) Spaces(ctx context.Context, teamID string) ([]space, error) {
	var resp spacesResponse
	q := url.Values{"archived": {"false"}}
	if err := c.get(ctx, "/team/"+url.PathEscape(teamID)+"/space", q, &resp); err != nil {
		return nil, fmt.Errorf("list spaces of %s: %w", teamID, err)
	}
	return resp.Spaces, nil
}

// Folders returns the non-archived folders of a space, with their lists.
func (c *Client) Folders(ctx context.Context, spaceID string) ([]folder, error) {
	var resp foldersResponse
	q := url.Values{"archived": {"false"}}
	if err := c.get(ctx, "/space/"+url.PathEscape(spaceID)+"/folder", q, &resp); err != nil {
		return nil, fmt.Errorf("list folders of %s: %w", spaceID, err)
	}
	return resp.Folders, nil
}

// FolderlessLists returns the lists that sit directly in a space.
func (c *Client) FolderlessLists(ctx context.Context, spaceID string) ([]taskList, error) {
	var resp listsResponse
	q := url.Values{"archived": {"false"}}
	if err := c.get(ctx, "/space/"+url.PathEscape(spaceID)+"/list", q, &resp); err != nil {
		return nil, fmt.Errorf("list folderless lists of %s: %w", spaceID, err)
	}
	return resp.Lists, nil
}

// FolderLists returns the lists of a folder.
func (c *Client) FolderLists(ctx context.Context, folderID string) ([]taskList, error) {
	var resp listsResponse
	q := url.Values{"archived": {"false"}}
	if err := c.get(ctx, "/folder/"+url.PathEscape(folderID)+"/list", q, &resp); err != nil {
		return nil, fmt.Errorf("list lists of folder %s: %w", folderID, err)
	}
	return resp.Lists, nil
}

// TasksPage returns one page of a list's tasks.
func (c *Client) TasksPage(ctx context.Context, listID string, page int, includeClosed bool) ([]task, bool, error) {
	q := url.Values{
		"page":                         {strconv.Itoa(page)},
		"include_closed":               {strconv.FormatBool(includeClosed)},
		"include_markdown_description": {"true"},
	}
	var resp tasksResponse
	if err := c.get(ctx, "/list/"+url.PathEscape(listID)+"/task", q, &resp); err != nil {
		return nil, false, fmt.Errorf("list tasks of %s page %d: %w", listID, page, err)
	}
	return resp.Tasks, resp.LastPage || len(resp.Tasks) == 0, nil
}

// Task fetches a single task.
func (c *Client) Task(ctx context.Context, id string) (*task, error) {
	var t task
	q := url.Values{"include_markdown_description": {"true"}}
	if err := c.get(ctx, "/task/"+url.PathEscape(id), q, &t); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}

// get performs a GET request and decodes the JSON body into out.
// A 429 response is retried after the advertised backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}

		c.rateLimiter.UpdateFromResponse(resp)

		if resp.StatusCode == http.StatusTooManyRequests && attempt < MaxRetries {
			c.rateLimiter.RecordRateLimited(resp)
			drain(resp.Body)
			logger.Warn("ClickUp rate limited on %s, retrying (attempt %d)", path, attempt+1)
			continue
		}

		err = decode(resp, out)
		drain(resp.Body)
		return err
	}
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Err != "" {
			apiErr.Message = er.Err
			apiErr.Code = er.ECode
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// personalTokenTransport sets the bare Authorization header used by
// ClickUp personal API tokens.
type personalTokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *personalTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", t.token)
	return t.base.RoundTrip(r)
}
