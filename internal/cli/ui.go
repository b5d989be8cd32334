package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/byte4ever/netkit/movies"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - titles
	colorYellow = lipgloss.Color("220") // Amber - ratings
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleRating = lipgloss.NewStyle().Foreground(colorYellow)
	styleLink   = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleMeta   = lipgloss.NewStyle().Foreground(colorGray)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconStar  = "★"
	iconArrow = "→"
)

// printMovies writes one block per movie followed by a page footer.
func printMovies(w io.Writer, cfg movies.Config, list []movies.Movie, footer string) {
	for _, m := range list {
		line := styleTitle.Render(m.Title)

		if rating, ok := m.FormattedRating(); ok {
			line += " " + styleRating.Render(iconStar+" "+rating)
		}

		if date, ok := m.FormattedReleaseDate(); ok {
			line += " " + styleMeta.Render(date)
		}

		fmt.Fprintln(w, line)

		if overview := strings.TrimSpace(m.Overview); overview != "" {
			fmt.Fprintln(w, "  "+styleDim.Render(truncate(overview, 120)))
		}

		if poster := m.PosterURL(cfg); poster != "" {
			fmt.Fprintln(w, "  "+styleLink.Render(poster))
		}
	}

	if footer != "" {
		fmt.Fprintln(w, styleMeta.Render(footer))
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-3]) + "..."
}
