package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

var (
	recommendLimit     int
	recommendThreshold float64
	recommendCategory  string
	recommendJSON      bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [need]",
	Short: "Recommend playbooks for a need",
	Long: `Describes what you are trying to do and gets the playbooks that fit,
each with a note on why it is relevant, an interpretation of the request and
alternative ways to phrase it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", 0, "number of recommendations (default from settings)")
	recommendCmd.Flags().Float64VarP(&recommendThreshold, "threshold", "t", -1, "minimum similarity, 0 to 1 (default from settings)")
	recommendCmd.Flags().StringVarP(&recommendCategory, "category", "c", "", "restrict recommendations to a category")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "output the recommendation as JSON")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if recommendService == nil {
		return errors.New("recommendation service not configured")
	}

	query := strings.Join(args, " ")
	category, err := parseCategoryFlag(recommendCategory)
	if err != nil {
		return err
	}

	opts := domain.RecommendOptions{
		Category:  category,
		Limit:     orDefaultInt(recommendLimit, searchDefaults.Limit),
		Threshold: orDefaultThreshold(recommendThreshold, searchDefaults.Threshold),
	}

	var rec *domain.Recommendation
	err = withLimit(cmd.Context(), domain.RateLimitRecommend, func(ctx context.Context) error {
		var err error
		rec, err = recommendService.Recommend(ctx, query, opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	if recommendJSON {
		return outputJSON(cmd, recommendationJSON{
			Query:       rec.Query,
			Intent:      rec.Intent.Value,
			Results:     toResultJSON(rec.Results),
			Suggestions: rec.Suggestions.Value,
		})
	}
	return outputRecommendation(cmd, rec)
}

type recommendationJSON struct {
	Query       string       `json:"query"`
	Intent      string       `json:"intent,omitempty"`
	Results     []resultJSON `json:"results"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

func outputRecommendation(cmd *cobra.Command, rec *domain.Recommendation) error {
	if rec.Intent.Value != "" && !rec.Intent.Degraded {
		cmd.Printf("%s %s\n\n", headingStyle.Render("Looking for:"), rec.Intent.Value)
	}

	if len(rec.Results) == 0 {
		cmd.Println("No matching playbooks found.")
	} else {
		cmd.Println(titleStyle.Render("Recommended playbooks:"))
		cmd.Println()
		printResults(cmd, rec.Results)
	}

	if len(rec.Suggestions.Value) > 0 {
		cmd.Println(headingStyle.Render("Try also:"))
		for _, s := range rec.Suggestions.Value {
			cmd.Printf("  - %s\n", s)
		}
	}
	return nil
}
