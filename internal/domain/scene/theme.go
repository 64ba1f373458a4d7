package scene

import "fmt"

// Theme selects the surface palette
type Theme string

const (
	ThemeDefault   Theme = "default"
	ThemeKids      Theme = "kids"
	ThemeElderly   Theme = "elderly"
	ThemeFeminine  Theme = "feminine"
	ThemeMasculine Theme = "masculine"
	ThemeCyber     Theme = "cyber"
)

var themeBackgrounds = map[Theme]string{
	ThemeDefault: "#ffffff",
	ThemeKids:    "#FFFFED",
	ThemeElderly: "#F7FAFC",
	ThemeCyber:   "#0F0F1A",
}

// Background returns the surface color for the theme
func (t Theme) Background() string {
	if bg, ok := themeBackgrounds[t]; ok {
		return bg
	}
	return themeBackgrounds[ThemeDefault]
}

// ParseTheme validates a theme name; the empty string maps to the default
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case "":
		return ThemeDefault, nil
	case ThemeDefault, ThemeKids, ThemeElderly, ThemeFeminine, ThemeMasculine, ThemeCyber:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q", s)
	}
}
