// Package cli provides the cobra command tree of playbookbot.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driving"
	"github.com/custodia-labs/playbookbot/internal/logger"
	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

// Service requirements a command can declare through its annotations.
const (
	servicesAnnotation = "playbookbot/services"
	servicesNone       = "none"
	servicesSettings   = "settings"
)

// Services bundles the driving ports the commands run against.
type Services struct {
	Search    driving.SearchService
	Recommend driving.RecommendationService
	Sync      driving.Synchronizer
	Settings  driving.SettingsService

	// Limiter applies per-user quotas to commands. Optional.
	Limiter *ratelimit.Limiter

	// Defaults fill search flags the user leaves out.
	Defaults domain.SearchSettings

	// Scope is the sync scope used when no scope flag is given.
	Scope domain.Scope
}

// Options carries the global flags into the bootstrap.
type Options struct {
	ConfigDir string
	Verbose   bool

	// SettingsOnly asks for the settings service alone, so broken
	// provider or store configuration can still be repaired.
	SettingsOnly bool
}

// Bootstrap builds the services once the global flags are parsed.
// The returned cleanup runs after the command finishes.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	version = "dev"

	searchService    driving.SearchService
	recommendService driving.RecommendationService
	synchronizer     driving.Synchronizer
	settingsService  driving.SettingsService
	limiter          *ratelimit.Limiter
	searchDefaults   = defaultSearchSettings()
	defaultScope     domain.Scope

	bootstrap Bootstrap
	cleanup   func()

	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "playbookbot",
	Short: "Find the right playbook for the job",
	Long: `playbookbot indexes playbooks kept as ClickUp tasks and finds the
ones that match a free-form need using semantic search.

Run 'playbookbot settings' to configure AI providers, then
'playbookbot sync' to index playbooks and 'playbookbot search' to query them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.playbookbot)")
}

// Execute runs the command tree. b may be nil when the services are
// installed up front with SetServices.
func Execute(ctx context.Context, v string, b Bootstrap) error {
	if v != "" {
		version = v
	}
	bootstrap = b
	return rootCmd.ExecuteContext(ctx)
}

// SetServices installs the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	searchService = s.Search
	recommendService = s.Recommend
	synchronizer = s.Sync
	settingsService = s.Settings
	limiter = s.Limiter
	if s.Defaults.Limit > 0 {
		searchDefaults = s.Defaults
	}
	defaultScope = s.Scope
}

func setupServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}

	need := requiredServices(cmd)
	if bootstrap == nil || need == servicesNone {
		return nil
	}

	svc, done, err := bootstrap(cmd.Context(), Options{
		ConfigDir:    configDir,
		Verbose:      verbose,
		SettingsOnly: need == servicesSettings,
	})
	if err != nil {
		return err
	}
	SetServices(svc)
	cleanup = done
	return nil
}

// requiredServices walks up from cmd to the first command that declares
// its service needs.
func requiredServices(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if need, ok := c.Annotations[servicesAnnotation]; ok {
			return need
		}
	}
	return ""
}

func defaultSearchSettings() domain.SearchSettings {
	return domain.SearchSettings{
		Limit:     domain.DefaultSearchLimit,
		Threshold: domain.DefaultSimilarityThreshold,
		Explain:   true,
	}
}
