package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette. Output written to a pipe or file is left uncoloured
// by lipgloss.
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorMuted     = lipgloss.Color("#6C7086")
	colorSuccess   = lipgloss.Color("#A6E3A1")
	colorWarning   = lipgloss.Color("#F9E2AF")
	colorError     = lipgloss.Color("#F38BA8")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSecondary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

// similarityStyle colours a score by how close it is to a perfect match.
func similarityStyle(similarity float64) lipgloss.Style {
	switch {
	case similarity >= 0.85:
		return successStyle
	case similarity >= 0.75:
		return warningStyle
	default:
		return mutedStyle
	}
}

func formatSimilarity(similarity float64) string {
	return similarityStyle(similarity).Render(fmt.Sprintf("%.0f%%", similarity*100))
}
