package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the live view. Primary draws the water
// surface, Accent the gauge record.
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

var (
	ThemeHarbour = Theme{
		Name:       "harbour",
		Primary:    lipgloss.Color("#2b8cbe"),
		Secondary:  lipgloss.Color("#7bccc4"),
		Accent:     lipgloss.Color("#fdae61"),
		Background: lipgloss.Color("#041e2f"),
		Text:       lipgloss.Color("#e6f2f8"),
		Muted:      lipgloss.Color("#5b7f95"),
		Success:    lipgloss.Color("#66c2a4"),
		Warning:    lipgloss.Color("#fee08b"),
		Error:      lipgloss.Color("#f46d43"),
	}

	// ThemeChart follows paper nautical charts: buff land, blue shoals.
	ThemeChart = Theme{
		Name:       "chart",
		Primary:    lipgloss.Color("#4a7fb0"),
		Secondary:  lipgloss.Color("#9ecae1"),
		Accent:     lipgloss.Color("#a6611a"),
		Background: lipgloss.Color("#f5ecd2"),
		Text:       lipgloss.Color("#1d1d1b"),
		Muted:      lipgloss.Color("#8c7b5a"),
		Success:    lipgloss.Color("#1a9850"),
		Warning:    lipgloss.Color("#d95f02"),
		Error:      lipgloss.Color("#b2182b"),
	}

	ThemeStorm = Theme{
		Name:       "storm",
		Primary:    lipgloss.Color("#bdbdbd"),
		Secondary:  lipgloss.Color("#969696"),
		Accent:     lipgloss.Color("#fec44f"),
		Background: lipgloss.Color("#1b1d21"),
		Text:       lipgloss.Color("#f0f0f0"),
		Muted:      lipgloss.Color("#636363"),
		Success:    lipgloss.Color("#a1d99b"),
		Warning:    lipgloss.Color("#fe9929"),
		Error:      lipgloss.Color("#ef3b2c"),
	}

	ThemeReef = Theme{
		Name:       "reef",
		Primary:    lipgloss.Color("#1fc8c1"),
		Secondary:  lipgloss.Color("#ff8c69"),
		Accent:     lipgloss.Color("#ffd166"),
		Background: lipgloss.Color("#003845"),
		Text:       lipgloss.Color("#f1faee"),
		Muted:      lipgloss.Color("#5e9ea0"),
		Success:    lipgloss.Color("#06d6a0"),
		Warning:    lipgloss.Color("#ffd166"),
		Error:      lipgloss.Color("#ef476f"),
	}

	// ThemeSonar is green phosphor on black.
	ThemeSonar = Theme{
		Name:       "sonar",
		Primary:    lipgloss.Color("#39ff14"),
		Secondary:  lipgloss.Color("#20c20e"),
		Accent:     lipgloss.Color("#b6ffb0"),
		Background: lipgloss.Color("#000c00"),
		Text:       lipgloss.Color("#39ff14"),
		Muted:      lipgloss.Color("#1a6b12"),
		Success:    lipgloss.Color("#b6ffb0"),
		Warning:    lipgloss.Color("#e6ff00"),
		Error:      lipgloss.Color("#ff3b3b"),
	}

	CurrentTheme = ThemeHarbour

	Themes = []Theme{ThemeHarbour, ThemeChart, ThemeStorm, ThemeReef, ThemeSonar}
)

// GetTheme returns a theme by name, falling back to harbour.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeHarbour
}

// SetTheme changes the current theme and restyles the view.
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
	applyTheme(CurrentTheme)
}

// NextTheme cycles to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			SetTheme(Themes[(i+1)%len(Themes)].Name)
			return
		}
	}
	SetTheme(Themes[0].Name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
