package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/playbookbot/internal/adapters/driving/oauth"
	"github.com/custodia-labs/playbookbot/internal/connectors/clickup"
	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// Environment variables holding the ClickUp OAuth app credentials.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	envClickUpClientID     = "CLICKUP_CLIENT_ID"
	envClickUpClientSecret = "CLICKUP_CLIENT_SECRET"
)

// Replaced in tests.
var (
	openBrowser     = oauth.OpenBrowser
	clickupEndpoint = clickup.Endpoint
)

var settingsClickUpCmd = &cobra.Command{
	Use:   "clickup",
	Short: "Configure ClickUp access",
	Long: `Store a ClickUp personal API token and the default sync scope.

Scope flags set the level 'playbookbot sync' uses when none is given.
Use 'playbookbot settings clickup login' to connect with OAuth instead.`,
	Args: cobra.NoArgs,
	RunE: runSettingsClickUp,
}

var settingsClickUpLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Connect ClickUp with OAuth",
	Long: `Authorise playbookbot through a ClickUp OAuth app.

A browser opens on the ClickUp consent page and the redirect is received on
a local port. Register http://localhost:<port>/callback as the app's
redirect URL. Client credentials can also be set with ` + envClickUpClientID + `
and ` + envClickUpClientSecret + `.`,
	Args: cobra.NoArgs,
	RunE: runSettingsClickUpLogin,
}

func init() {
	settingsClickUpCmd.Flags().String("workspace", "", "default workspace ID")
	settingsClickUpCmd.Flags().String("space", "", "default space ID")
	settingsClickUpCmd.Flags().String("folder", "", "default folder ID")
	settingsClickUpCmd.Flags().String("list", "", "default list ID")
	settingsClickUpCmd.Flags().Bool("scope-only", false, "only update the scope, do not ask for a token")

	settingsClickUpLoginCmd.Flags().String("client-id", "", "OAuth app client ID")
	settingsClickUpLoginCmd.Flags().String("client-secret", "", "OAuth app client secret")
	settingsClickUpLoginCmd.Flags().IntP("port", "p", 8484, "local callback port")
	settingsClickUpLoginCmd.Flags().Bool("no-browser", false, "print the consent URL without opening a browser")
	settingsClickUpLoginCmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for the consent")

	settingsClickUpCmd.AddCommand(settingsClickUpLoginCmd)
	settingsCmd.AddCommand(settingsClickUpCmd)
}

func runSettingsClickUp(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	scopeChanged := false
	var scope domain.Scope
	for name, dst := range map[string]*string{
		"workspace": &scope.WorkspaceID,
		"space":     &scope.SpaceID,
		"folder":    &scope.FolderID,
		"list":      &scope.ListID,
	} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
			scopeChanged = true
		}
	}

	if scopeChanged {
		if err := settingsService.SetSourceScope(scope); err != nil {
			return fmt.Errorf("failed to save scope: %w", err)
		}
		cmd.Printf("Default sync scope: %s\n", scope)
	}

	if scopeOnly, _ := cmd.Flags().GetBool("scope-only"); scopeOnly {
		return nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	cmd.Print("Enter ClickUp API token (leave empty to keep the current one): ")
	token := readPassword(cmd.InOrStdin(), reader)
	cmd.Println()
	if token == "" {
		cmd.Println("Token unchanged.")
		return nil
	}

	if err := settingsService.SetSourceToken(token, false); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	cmd.Println(successStyle.Render("ClickUp API token saved."))
	return nil
}

func runSettingsClickUpLogin(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	clientID, _ := cmd.Flags().GetString("client-id")
	clientSecret, _ := cmd.Flags().GetString("client-secret")
	if clientID == "" {
		clientID = os.Getenv(envClickUpClientID)
	}
	if clientSecret == "" {
		clientSecret = os.Getenv(envClickUpClientSecret)
	}
	if clientID == "" {
		return fmt.Errorf("%w: --client-id or %s is required", domain.ErrInvalidInput, envClickUpClientID)
	}
	if clientSecret == "" {
		cmd.Print("Enter client secret: ")
		clientSecret = readPassword(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
		if clientSecret == "" {
			return fmt.Errorf("%w: client secret is required", domain.ErrInvalidInput)
		}
	}

	port, _ := cmd.Flags().GetInt("port")
	noBrowser, _ := cmd.Flags().GetBool("no-browser")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	state, err := oauth.GenerateState()
	if err != nil {
		return err
	}

	server := oauth.NewCallbackServer(port, state)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() { _ = server.Stop() }()

	app := clickup.OAuthApp{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  server.RedirectURI(),
		Endpoint:     clickupEndpoint,
	}
	authURL := app.AuthCodeURL(state)

	cmd.Println("Open this URL to authorise playbookbot:")
	cmd.Println("  " + authURL)
	if !noBrowser {
		if err := openBrowser(authURL); err != nil {
			cmd.Println(mutedStyle.Render("Could not open a browser; open the URL manually."))
		}
	}
	cmd.Println("Waiting for ClickUp...")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	code, err := server.WaitForCode(ctx)
	if err != nil {
		return fmt.Errorf("authorisation failed: %w", err)
	}

	token, err := app.Exchange(ctx, code)
	if err != nil {
		return err
	}

	if err := settingsService.SetSourceToken(token, true); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	cmd.Println(successStyle.Render("ClickUp connected."))
	return nil
}
