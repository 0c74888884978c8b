package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

// fakeClickUp serves a small workspace: one team, one space with a folder
// (list l1) and a folderless list (l2).
type fakeClickUp struct {
	mu       sync.Mutex
	requests []string
	auth     []string
	tasks    map[string][][]map[string]any
}

func newFakeClickUp() *fakeClickUp {
	return &fakeClickUp{
		tasks: map[string][][]map[string]any{
			"l1": {
				{
					taskJSON("t1", "Sales Playbook", "<p>Discovery call steps</p>"),
					taskJSON("t2", "Team lunch", "Pizza on Friday"),
				},
				{
					taskJSON("t3", "Refund procedure", "Issue refunds within 5 days"),
				},
			},
			"l2": {
				{
					taskJSON("t4", "Onboarding runbook", "Day one checklist"),
					{"id": "bad", "name": "Playbook without url"},
				},
			},
		},
	}
}

func taskJSON(id, name, body string) map[string]any {
	return map[string]any{
		"id":           id,
		"name":         name,
		"text_content": body,
		"url":          "https://app.clickup.com/t/" + id,
		"date_updated": "1735689600000",
		"status":       map[string]any{"status": "open"},
		"tags":         []map[string]any{{"name": "sop"}},
		"list":         map[string]any{"id": "l1", "name": "Playbooks"},
	}
}

func (f *fakeClickUp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Path)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	write := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.URL.Path == "/team":
		write(map[string]any{"teams": []map[string]any{{"id": "w1", "name": "Acme"}}})
	case r.URL.Path == "/team/w1/space":
		write(map[string]any{"spaces": []map[string]any{{"id": "s1", "name": "Ops"}}})
	case r.URL.Path == "/space/s1/folder":
		write(map[string]any{"folders": []map[string]any{
			{"id": "f1", "name": "Guides", "lists": []map[string]any{{"id": "l1", "name": "Playbooks"}}},
		}})
	case r.URL.Path == "/folder/f1/list":
		write(map[string]any{"lists": []map[string]any{{"id": "l1", "name": "Playbooks"}}})
	case r.URL.Path == "/space/s1/list":
		write(map[string]any{"lists": []map[string]any{{"id": "l2", "name": "Loose"}}})
	case strings.HasPrefix(r.URL.Path, "/list/") && strings.HasSuffix(r.URL.Path, "/task"):
		listID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/list/"), "/task")
		pages := f.tasks[listID]
		var page int
		_, _ = fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		if page >= len(pages) {
			write(map[string]any{"tasks": []any{}, "last_page": true})
			return
		}
		write(map[string]any{"tasks": pages[page], "last_page": page == len(pages)-1})
	case r.URL.Path == "/task/t1":
		write(taskJSON("t1", "Sales Playbook", "<p>Discovery call steps</p>"))
	case r.URL.Path == "/task/nourl":
		write(map[string]any{"id": "nourl", "name": "Broken"})
	default:
		w.WriteHeader(http.StatusNotFound)
		write(map[string]any{"err": "Resource not found", "ECODE": "ITEM_013"})
	}
}

func (f *fakeClickUp) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestConnector(t *testing.T, handler http.Handler) *Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	conn, err := New(Config{
		APIToken: "pk_test",
		BaseURL:  server.URL,
		Throttle: ThrottleConfig{RequestsPerSecond: 1000, BurstSize: 100},
	})
	require.NoError(t, err)
	return conn
}

func itemIDs(items []domain.SourceItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestConnector_ListItems_ListScopePagesAndSkipsNothing(t *testing.T) {
	fake := newFakeClickUp()
	conn := newTestConnector(t, fake)

	items, err := conn.ListItems(context.Background(), domain.Scope{ListID: "l1"}, false, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, itemIDs(items), "explicit scope keeps non-playbook tasks")

	first := items[0]
	assert.Equal(t, "Sales Playbook", first.Name)
	assert.Equal(t, "<p>Discovery call steps</p>", first.Content)
	assert.Equal(t, []string{"sop"}, first.Tags)
	assert.Equal(t, "https://app.clickup.com/t/t1", first.URL)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), first.LastModifiedAt)
	assert.Equal(t, domain.ItemKindTask, first.Kind)
	assert.Equal(t, "open", first.Metadata["status"])
}

func TestConnector_ListItems_FolderScope(t *testing.T) {
	fake := newFakeClickUp()
	conn := newTestConnector(t, fake)

	items, err := conn.ListItems(context.Background(), domain.Scope{FolderID: "f1", SpaceID: "ignored"}, true, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, itemIDs(items))
	assert.Contains(t, fake.paths(), "/folder/f1/list")
}

func TestConnector_ListItems_SpaceScopePassesIncompleteTasks(t *testing.T) {
	conn := newTestConnector(t, newFakeClickUp())

	items, err := conn.ListItems(context.Background(), domain.Scope{SpaceID: "s1"}, false, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "bad"}, itemIDs(items))
	assert.Empty(t, items[4].URL)
}

func TestConnector_ListItems_DiscoveryFiltersByKeyword(t *testing.T) {
	conn := newTestConnector(t, newFakeClickUp())

	items, err := conn.ListItems(context.Background(), domain.Scope{}, false, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3", "t4", "bad"}, itemIDs(items))
}

func TestConnector_ListItems_DiscoveryStopsAtLimit(t *testing.T) {
	fake := newFakeClickUp()
	conn := newTestConnector(t, fake)

	items, err := conn.ListItems(context.Background(), domain.Scope{WorkspaceID: "w1"}, false, 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, itemIDs(items))
	assert.NotContains(t, fake.paths(), "/space/s1/list", "no further sub-scopes once the limit is reached")
}

func TestConnector_ListItems_CustomKeywords(t *testing.T) {
	server := httptest.NewServer(newFakeClickUp())
	t.Cleanup(server.Close)
	conn, err := New(Config{
		APIToken:          "pk_test",
		BaseURL:           server.URL,
		DiscoveryKeywords: []string{"lunch"},
		Throttle:          ThrottleConfig{RequestsPerSecond: 1000, BurstSize: 100},
	})
	require.NoError(t, err)

	items, err := conn.ListItems(context.Background(), domain.Scope{}, false, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, itemIDs(items))
}

func TestConnector_ListItems_SourceUnavailable(t *testing.T) {
	conn := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"err":"Token invalid","ECODE":"OAUTH_025"}`))
	}))

	_, err := conn.ListItems(context.Background(), domain.Scope{ListID: "l1"}, false, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Token invalid")
}

// twoSpaceWorkspace serves workspace w1 with space s1, whose folderless
// lists are forbidden, and space s2 holding one playbook task.
func twoSpaceWorkspace(forbidAll bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forbidden := func() {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"err":"Team not authorized","ECODE":"OAUTH_027"}`))
		}
		write := func(v any) { _ = json.NewEncoder(w).Encode(v) }

		switch r.URL.Path {
		case "/team/w1/space":
			write(map[string]any{"spaces": []map[string]any{{"id": "s1"}, {"id": "s2"}}})
		case "/space/s1/folder", "/space/s2/folder":
			write(map[string]any{"folders": []any{}})
		case "/space/s1/list":
			forbidden()
		case "/space/s2/list":
			if forbidAll {
				forbidden()
				return
			}
			write(map[string]any{"lists": []map[string]any{{"id": "l9"}}})
		case "/list/l9/task":
			write(map[string]any{"tasks": []any{taskJSON("p1", "Escalation playbook", "Page the on-call")}, "last_page": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestConnector_ListItems_DiscoverySkipsUnreadableSpace(t *testing.T) {
	conn := newTestConnector(t, twoSpaceWorkspace(false))

	items, err := conn.ListItems(context.Background(), domain.Scope{WorkspaceID: "w1"}, false, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, itemIDs(items))
}

func TestConnector_ListItems_DiscoveryFailsWhenNothingReadable(t *testing.T) {
	conn := newTestConnector(t, twoSpaceWorkspace(true))

	_, err := conn.ListItems(context.Background(), domain.Scope{WorkspaceID: "w1"}, false, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestConnector_ListItems_ExplicitSpaceStillFails(t *testing.T) {
	conn := newTestConnector(t, twoSpaceWorkspace(false))

	_, err := conn.ListItems(context.Background(), domain.Scope{SpaceID: "s1"}, false, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestConnector_GetItem(t *testing.T) {
	fake := newFakeClickUp()
	conn := newTestConnector(t, fake)
	ctx := context.Background()

	item, err := conn.GetItem(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Sales Playbook", item.Name)

	_, err = conn.GetItem(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrSourceUnavailable))

	broken, err := conn.GetItem(ctx, "nourl")
	require.NoError(t, err)
	assert.Empty(t, broken.URL)

	assert.Equal(t, "pk_test", fake.auth[0], "personal tokens are sent without a scheme")
}

func TestConnector_Search(t *testing.T) {
	conn := newTestConnector(t, newFakeClickUp())

	items, err := conn.Search(context.Background(), "  REFUND ", domain.Scope{SpaceID: "s1"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, itemIDs(items))

	_, err = conn.Search(context.Background(), " ", domain.Scope{}, 5)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestClient_AccessTokenUsesBearer(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"teams":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{AccessToken: "oauth-token", APIToken: "pk_ignored", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Teams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer oauth-token", got)
}

func TestClient_RetriesAfter429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set(HeaderRetryAfter, "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"teams":[{"id":"w1","name":"Acme"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIToken: "pk", BaseURL: server.URL})
	require.NoError(t, err)

	start := time.Now()
	teams, err := client.Teams(context.Background())

	require.NoError(t, err)
	assert.Len(t, teams, 1)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestClient_SharedQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"teams":[]}`))
	}))
	t.Cleanup(server.Close)

	quota := ratelimit.New(ratelimit.Config{
		Rules:         map[string]domain.RateLimitRule{domain.RateLimitSourceAPI: {Window: time.Hour, MaxRequests: 2}},
		SweepInterval: -1,
	})
	t.Cleanup(func() { _ = quota.Close() })

	client, err := NewClient(Config{APIToken: "pk", BaseURL: server.URL, Quota: quota})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = client.Teams(ctx)
	require.NoError(t, err)
	_, err = client.Teams(ctx)
	require.NoError(t, err)

	_, err = client.Teams(ctx)
	require.Error(t, err, "third request waits for the window and hits the deadline")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 2, quota.Count(domain.RateLimitSourceAPI, quotaIdentifier))
}
