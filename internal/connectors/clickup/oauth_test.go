package clickup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuthApp_AuthCodeURL(t *testing.T) {
	app := OAuthApp{ClientID: "client-1", RedirectURL: "http://localhost:8484/callback"}

	u, err := url.Parse(app.AuthCodeURL("state-9"))
	require.NoError(t, err)

	assert.Equal(t, "app.clickup.com", u.Host)
	assert.Equal(t, "/api", u.Path)
	assert.Equal(t, "client-1", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost:8484/callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "state-9", u.Query().Get("state"))
}

func TestOAuthApp_Exchange(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-abc"}`))
	}))
	defer srv.Close()

	app := OAuthApp{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}

	token, err := app.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, "code-1", form.Get("code"))
	assert.Equal(t, "id", form.Get("client_id"))
	assert.Equal(t, "secret", form.Get("client_secret"))
}

func TestOAuthApp_ExchangeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"err":"Code already used","ECODE":"OAUTH_014"}`))
	}))
	defer srv.Close()
	endpoint := oauth2.Endpoint{AuthURL: srv.URL, TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams}

	_, err := OAuthApp{Endpoint: endpoint}.Exchange(context.Background(), "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client ID and client secret are required")

	_, err = OAuthApp{ClientID: "id", ClientSecret: "s", Endpoint: endpoint}.Exchange(context.Background(), "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code")
}
