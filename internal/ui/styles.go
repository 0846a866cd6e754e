// Package ui renders tasks, habits and the today view for the command line.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"dailies/internal/config"
)

// Styles holds the output styles, initialized from the theme configuration.
type Styles struct {
	ColorPrimary   lipgloss.Color
	ColorAccent    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorDanger    lipgloss.Color
	ColorWarning   lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color

	TitleStyle     lipgloss.Style
	DateStyle      lipgloss.Style
	SectionStyle   lipgloss.Style
	IDStyle        lipgloss.Style
	CategoryStyle  lipgloss.Style
	BoxStyle       lipgloss.Style
	StatLabelStyle lipgloss.Style
	StatValueStyle lipgloss.Style

	TaskDoneStyle       lipgloss.Style
	TaskPendingStyle    lipgloss.Style
	TaskCheckboxDone    string
	TaskCheckboxPending string

	PriorityHighStyle   lipgloss.Style
	PriorityMediumStyle lipgloss.Style
	PriorityLowStyle    lipgloss.Style

	DueDateOverdueStyle lipgloss.Style
	DueDateTodayStyle   lipgloss.Style
	DueDateFutureStyle  lipgloss.Style

	HabitDoneIcon    string
	HabitUndoneIcon  string
	HabitStreakStyle lipgloss.Style
	ProgressStyle    lipgloss.Style

	StatusStyle  lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
}

// SetColorProfile picks the terminal color profile for all rendering.
// noColor, or NO_COLOR in the environment, turns colors off.
func SetColorProfile(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// NewStylesFromTheme creates Styles from a ThemeConfig. Empty theme colors
// fall back to the defaults.
func NewStylesFromTheme(theme config.ThemeConfig) *Styles {
	s := &Styles{
		ColorPrimary:   colorOrDefault(theme.Primary, "#7C3AED"),
		ColorAccent:    colorOrDefault(theme.Accent, "#10B981"),
		ColorMuted:     colorOrDefault(theme.Muted, "#6B7280"),
		ColorDanger:    lipgloss.Color("#EF4444"),
		ColorWarning:   lipgloss.Color("#F59E0B"),
		ColorSuccess:   lipgloss.Color("#10B981"),
		ColorText:      lipgloss.Color("#F9FAFB"),
		ColorTextMuted: lipgloss.Color("#9CA3AF"),
	}
	s.initComponentStyles()
	return s
}

func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

func (s *Styles) initComponentStyles() {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	// Headings and chrome.
	s.TitleStyle = fg(s.ColorText).Background(s.ColorPrimary).Bold(true).Padding(0, 1)
	s.SectionStyle = fg(s.ColorPrimary).Bold(true)
	s.DateStyle = fg(s.ColorTextMuted)
	s.IDStyle = fg(s.ColorMuted)
	s.CategoryStyle = fg(s.ColorAccent)
	s.BoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(s.ColorMuted).Padding(0, 1)
	s.StatLabelStyle = fg(s.ColorTextMuted)
	s.StatValueStyle = lipgloss.NewStyle().Bold(true)

	// Tasks.
	s.TaskDoneStyle = fg(s.ColorTextMuted).Strikethrough(true)
	s.TaskPendingStyle = lipgloss.NewStyle()
	s.TaskCheckboxDone = fg(s.ColorSuccess).Render("[✓]")
	s.TaskCheckboxPending = fg(s.ColorMuted).Render("[ ]")
	s.PriorityHighStyle = fg(s.ColorDanger).Bold(true)
	s.PriorityMediumStyle = fg(s.ColorWarning)
	s.PriorityLowStyle = fg(s.ColorMuted)
	s.DueDateOverdueStyle = fg(s.ColorDanger).Bold(true)
	s.DueDateTodayStyle = fg(s.ColorWarning)
	s.DueDateFutureStyle = fg(s.ColorTextMuted)

	// Habits.
	s.HabitDoneIcon = fg(s.ColorSuccess).Render("●")
	s.HabitUndoneIcon = fg(s.ColorMuted).Render("○")
	s.HabitStreakStyle = fg(s.ColorWarning).Bold(true)
	s.ProgressStyle = fg(s.ColorAccent)

	// Command results.
	s.StatusStyle = fg(s.ColorSuccess)
	s.WarningStyle = fg(s.ColorWarning)
	s.ErrorStyle = fg(s.ColorDanger).Bold(true)
}
