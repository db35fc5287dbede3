package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/risk"
)

// Theme holds the color scheme for command output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Warning: lipgloss.Color("#FFAF00"), // amber
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// levelStyle colors a risk level. Free-form levels from a reasoning
// service render unstyled.
func (t Theme) levelStyle(level string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch level {
	case risk.LevelLow:
		return style.Foreground(t.Success)
	case risk.LevelMedium:
		return style.Foreground(t.Warning)
	case risk.LevelHigh:
		return style.Foreground(t.Error)
	}
	return style
}

func printEntity(w io.Writer, e models.Entity) {
	fmt.Fprintf(w, "%s %s [%s]\n",
		defaultTheme.statusStyle().Render(fmt.Sprintf("#%d", e.ID)), e.Value, e.Type)
	if verbose {
		fmt.Fprintf(w, "  %s\n", defaultTheme.hintStyle().Render(e.DescriptionOr("no description")))
		if !e.CreatedAt.IsZero() {
			fmt.Fprintf(w, "  %s\n", defaultTheme.hintStyle().Render("created "+e.CreatedAt.Format("2006-01-02 15:04:05")))
		}
	}
}
