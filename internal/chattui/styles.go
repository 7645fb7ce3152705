package chattui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme selects a color palette.
type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeHighContrast Theme = "high-contrast"
)

type palette struct {
	Foreground string
	Muted      string
	Accent     string
	Border     string
	Own        string
	Agent      string
	Queue      string
	QueueText  string
	Error      string
}

var palettes = map[Theme]palette{
	ThemeDefault: {
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
		Own:        "81",
		Agent:      "147",
		Queue:      "214",
		QueueText:  "234",
		Error:      "203",
	},
	ThemeHighContrast: {
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
		Own:        "226",
		Agent:      "231",
		Queue:      "226",
		QueueText:  "16",
		Error:      "196",
	},
}

type styles struct {
	header      lipgloss.Style
	muted       lipgloss.Style
	own         lipgloss.Style
	agent       lipgloss.Style
	quote       lipgloss.Style
	queueBanner lipgloss.Style
	input       lipgloss.Style
	placeholder lipgloss.Style
	status      lipgloss.Style
	errStatus   lipgloss.Style
}

func parseTheme(raw string) (Theme, error) {
	if raw == "" {
		return ThemeDefault, nil
	}
	theme := Theme(raw)
	if _, ok := palettes[theme]; !ok {
		return "", fmt.Errorf("invalid theme %q", raw)
	}
	return theme, nil
}

func newStyles(theme Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeDefault]
	}
	return styles{
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Accent)),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)),
		own:         lipgloss.NewStyle().Foreground(lipgloss.Color(p.Own)),
		agent:       lipgloss.NewStyle().Foreground(lipgloss.Color(p.Agent)),
		quote:       lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)).BorderLeft(true).BorderStyle(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color(p.Accent)).PaddingLeft(1),
		queueBanner: lipgloss.NewStyle().Foreground(lipgloss.Color(p.QueueText)).Background(lipgloss.Color(p.Queue)).Padding(0, 1),
		input:       lipgloss.NewStyle().Foreground(lipgloss.Color(p.Foreground)).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(p.Border)).Padding(0, 1),
		placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)).Italic(true),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)),
		errStatus:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.Error)),
	}
}
