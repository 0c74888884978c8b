package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

var (
	searchLimit     int
	searchThreshold float64
	searchCategory  string
	searchExplain   bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed playbooks",
	Long: `Finds the playbooks most similar to the query.
Only playbooks whose similarity is strictly above the threshold are returned,
best match first. With --explain each result carries a short note on why it
is relevant.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", -1, "minimum similarity, 0 to 1 (default from settings)")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "restrict results to a category")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false, "explain why each result matches (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := strings.Join(args, " ")
	category, err := parseCategoryFlag(searchCategory)
	if err != nil {
		return err
	}

	opts := domain.SearchOptions{
		Category:  category,
		Limit:     orDefaultInt(searchLimit, searchDefaults.Limit),
		Threshold: orDefaultThreshold(searchThreshold, searchDefaults.Threshold),
		Explain:   searchDefaults.Explain,
	}
	if cmd.Flags().Changed("explain") {
		opts.Explain = searchExplain
	}

	var results []domain.SearchResult
	err = withLimit(cmd.Context(), domain.RateLimitSearch, func(ctx context.Context) error {
		var err error
		results, err = searchService.Search(ctx, query, opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, toResultJSON(results))
	}
	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No matching playbooks found.")
		return nil
	}

	cmd.Println(titleStyle.Render("Results:"))
	cmd.Println()
	printResults(cmd, results)
	return nil
}

// printResults renders results as a numbered list.
func printResults(cmd *cobra.Command, results []domain.SearchResult) {
	for i := range results {
		p := &results[i].Playbook
		cmd.Printf("  [%d] %s (%s)\n", i+1, p.Title, formatSimilarity(results[i].Similarity))
		cmd.Printf("      %s\n", mutedStyle.Render(string(p.Category)+"  "+p.URL))
		if p.Description != "" {
			cmd.Printf("      %s\n", truncate(p.Description, 160))
		}
		if note := results[i].Explanation; note.Value != "" && !note.Degraded {
			cmd.Printf("      %s %s\n", headingStyle.Render("Why:"), note.Value)
		}
		cmd.Println()
	}
}

type resultJSON struct {
	ID          string   `json:"id"`
	SourceID    string   `json:"source_id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Similarity  float64  `json:"similarity"`
	Explanation string   `json:"explanation,omitempty"`
}

func toResultJSON(results []domain.SearchResult) []resultJSON {
	out := make([]resultJSON, 0, len(results))
	for i := range results {
		p := &results[i].Playbook
		out = append(out, resultJSON{
			ID:          p.ID,
			SourceID:    p.SourceID,
			Title:       p.Title,
			Category:    string(p.Category),
			URL:         p.URL,
			Tags:        p.Tags,
			Description: p.Description,
			Similarity:  results[i].Similarity,
			Explanation: results[i].Explanation.Value,
		})
	}
	return out
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// parseCategoryFlag accepts a category name in any case. Empty means all.
func parseCategoryFlag(value string) (domain.Category, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, c := range domain.Categories() {
		if strings.EqualFold(value, string(c)) {
			return c, nil
		}
	}
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}
	return "", fmt.Errorf("%w: unknown category %q (one of %s)", domain.ErrInvalidInput, value, strings.Join(names, ", "))
}

func orDefaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// orDefaultThreshold treats a negative value as unset. Zero is a valid threshold.
func orDefaultThreshold(v, def float64) float64 {
	if v < 0 {
		return def
	}
	return v
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
