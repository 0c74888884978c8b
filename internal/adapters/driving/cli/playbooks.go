package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

const timeLayout = time.RFC3339

var (
	playbooksCategory string
	playbooksLimit    int
	playbooksOffset   int
	playbooksJSON     bool
)

var playbooksCmd = &cobra.Command{
	Use:   "playbooks",
	Short: "Browse indexed playbooks",
	Long:  `List indexed playbooks, show one in full, or count them per category.`,
	RunE:  runPlaybooksList,
}

var playbooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playbooks by title",
	RunE:  runPlaybooksList,
}

var playbooksShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a playbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaybooksShow,
}

var playbooksCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Count playbooks per category",
	RunE:  runPlaybooksCategories,
}

func init() {
	for _, c := range []*cobra.Command{playbooksCmd, playbooksListCmd} {
		c.Flags().StringVarP(&playbooksCategory, "category", "c", "", "restrict the listing to a category")
		c.Flags().IntVarP(&playbooksLimit, "limit", "n", 20, "page size")
		c.Flags().IntVar(&playbooksOffset, "offset", 0, "number of playbooks to skip")
		c.Flags().BoolVar(&playbooksJSON, "json", false, "output as JSON")
	}
	playbooksShowCmd.Flags().BoolVar(&playbooksJSON, "json", false, "output as JSON")
	playbooksCategoriesCmd.Flags().BoolVar(&playbooksJSON, "json", false, "output as JSON")

	playbooksCmd.AddCommand(playbooksListCmd)
	playbooksCmd.AddCommand(playbooksShowCmd)
	playbooksCmd.AddCommand(playbooksCategoriesCmd)
	rootCmd.AddCommand(playbooksCmd)
}

func runPlaybooksList(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	category, err := parseCategoryFlag(playbooksCategory)
	if err != nil {
		return err
	}

	playbooks, err := searchService.List(cmd.Context(), domain.ListOptions{
		Category: category,
		Limit:    playbooksLimit,
		Offset:   playbooksOffset,
	})
	if err != nil {
		return fmt.Errorf("failed to list playbooks: %w", err)
	}

	if playbooksJSON {
		out := make([]playbookJSON, 0, len(playbooks))
		for i := range playbooks {
			out = append(out, toPlaybookJSON(&playbooks[i], false))
		}
		return outputJSON(cmd, out)
	}

	if len(playbooks) == 0 {
		cmd.Println("No playbooks indexed. Run 'playbookbot sync' first.")
		return nil
	}
	for i := range playbooks {
		p := &playbooks[i]
		marker := ""
		if !p.HasEmbedding() {
			marker = warningStyle.Render(" (not searchable)")
		}
		cmd.Printf("  %s  %-12s %s%s\n", mutedStyle.Render(p.ID), p.Category, p.Title, marker)
	}
	return nil
}

func runPlaybooksShow(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	p, err := searchService.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("playbook %s not found", args[0])
		}
		return fmt.Errorf("failed to get playbook: %w", err)
	}

	if playbooksJSON {
		return outputJSON(cmd, toPlaybookJSON(p, true))
	}

	cmd.Println(titleStyle.Render(p.Title))
	cmd.Printf("%s %s\n", headingStyle.Render("Category:"), p.Category)
	cmd.Printf("%s %s\n", headingStyle.Render("URL:"), p.URL)
	if len(p.Tags) > 0 {
		cmd.Printf("%s %s\n", headingStyle.Render("Tags:"), strings.Join(p.Tags, ", "))
	}
	cmd.Printf("%s %s\n", headingStyle.Render("Updated:"), p.UpdatedAt.Format(timeLayout))
	cmd.Println()
	cmd.Println(p.Content)
	return nil
}

func runPlaybooksCategories(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	counts, err := searchService.Categories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}

	if playbooksJSON {
		out := make(map[string]int, len(counts))
		for c, n := range counts {
			out[string(c)] = n
		}
		return outputJSON(cmd, out)
	}

	if len(counts) == 0 {
		cmd.Println("No playbooks indexed.")
		return nil
	}
	names := make([]domain.Category, 0, len(counts))
	for c := range counts {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, c := range names {
		cmd.Printf("  %-12s %d\n", c, counts[c])
	}
	return nil
}

type playbookJSON struct {
	ID          string   `json:"id"`
	SourceID    string   `json:"source_id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	Searchable  bool     `json:"searchable"`
	UpdatedAt   string   `json:"updated_at"`
}

func toPlaybookJSON(p *domain.Playbook, withContent bool) playbookJSON {
	out := playbookJSON{
		ID:          p.ID,
		SourceID:    p.SourceID,
		Title:       p.Title,
		Category:    string(p.Category),
		URL:         p.URL,
		Tags:        p.Tags,
		Description: p.Description,
		Searchable:  p.HasEmbedding(),
		UpdatedAt:   p.UpdatedAt.Format(timeLayout),
	}
	if withContent {
		out.Content = p.Content
	}
	return out
}
