package clickup

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ClickUp OAuth endpoints. ClickUp access tokens do not expire and come
// without a refresh token.
const (
	AuthURL  = "https://app.clickup.com/api"
	TokenURL = DefaultBaseURL + "/oauth/token"
)

// Endpoint is the ClickUp OAuth2 endpoint. ClickUp expects the client
// credentials as request parameters.
var Endpoint = oauth2.Endpoint{
	AuthURL:   AuthURL,
	TokenURL:  TokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthApp identifies a ClickUp OAuth app.
type OAuthApp struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides the ClickUp endpoint when set.
	Endpoint oauth2.Endpoint
}

// Config returns the oauth2 configuration of the app.
func (a OAuthApp) Config() *oauth2.Config {
	endpoint := a.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = Endpoint
	}
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURL:  a.RedirectURL,
		Endpoint:     endpoint,
	}
}

// AuthCodeURL returns the consent page URL for state.
func (a OAuthApp) AuthCodeURL(state string) string {
	return a.Config().AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (a OAuthApp) Exchange(ctx context.Context, code string) (string, error) {
	if a.ClientID == "" || a.ClientSecret == "" {
		return "", errors.New("clickup: client ID and client secret are required")
	}
	tok, err := a.Config().Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("clickup: exchange code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("clickup: token response has no access token")
	}
	return tok.AccessToken, nil
}
