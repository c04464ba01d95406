package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Styles holds the application colors and styling information
type Styles struct {
	// UI element colors
	BorderColor string `mapstructure:"border_color"`
	AccentColor string `mapstructure:"accent_color"`

	// Text colors
	NormalTextColor   string `mapstructure:"normal_text_color"`
	SelectedTextColor string `mapstructure:"selected_text_color"`
	SelectedBgColor   string `mapstructure:"selected_bg_color"`
	ErrorColor        string `mapstructure:"error_color"`
	SuccessColor      string `mapstructure:"success_color"`
	MutedColor        string `mapstructure:"muted_color"`

	// Dark mode colors
	DarkTextColor string `mapstructure:"dark_text_color"`
	DarkBgColor   string `mapstructure:"dark_bg_color"`

	// Accent per theme; "default" uses AccentColor
	ThemeColors map[string]string `mapstructure:"theme_colors"`
}

// DefaultStyles returns the built-in palette.
func DefaultStyles() Styles {
	return Styles{
		BorderColor:       "240",
		AccentColor:       "205",
		NormalTextColor:   "86",
		SelectedTextColor: "229",
		SelectedBgColor:   "57",
		ErrorColor:        "9",
		SuccessColor:      "2",
		MutedColor:        "245",
		DarkTextColor:     "252",
		DarkBgColor:       "235",
		ThemeColors: map[string]string{
			"blue":  "33",
			"green": "35",
			"pink":  "212",
		},
	}
}

// Palette is the resolved set of colors for one theme and mode.
type Palette struct {
	Accent     string
	Text       string
	Background string
	Border     string
	SelectedFg string
	SelectedBg string
	Error      string
	Success    string
	Muted      string
}

// Palette resolves the colors for theme, switching text and background when
// dark is set. Unknown themes use the default accent.
func (s Styles) Palette(theme string, dark bool) Palette {
	p := Palette{
		Accent:     s.AccentColor,
		Text:       s.NormalTextColor,
		Border:     s.BorderColor,
		SelectedFg: s.SelectedTextColor,
		SelectedBg: s.SelectedBgColor,
		Error:      s.ErrorColor,
		Success:    s.SuccessColor,
		Muted:      s.MutedColor,
	}
	if c, ok := s.ThemeColors[theme]; ok && c != "" {
		p.Accent = c
		p.SelectedBg = c
	}
	if dark {
		p.Text = s.DarkTextColor
		p.Background = s.DarkBgColor
	}
	return p
}

// loadStyles loads the application styles from the specified path, writing
// the defaults there when the file does not exist yet.
func loadStyles(stylesPath string) (Styles, error) {
	defaults := DefaultStyles()

	v := viper.New()
	v.SetConfigFile(stylesPath)
	v.SetConfigType("json")
	v.SetDefault("border_color", defaults.BorderColor)
	v.SetDefault("accent_color", defaults.AccentColor)
	v.SetDefault("normal_text_color", defaults.NormalTextColor)
	v.SetDefault("selected_text_color", defaults.SelectedTextColor)
	v.SetDefault("selected_bg_color", defaults.SelectedBgColor)
	v.SetDefault("error_color", defaults.ErrorColor)
	v.SetDefault("success_color", defaults.SuccessColor)
	v.SetDefault("muted_color", defaults.MutedColor)
	v.SetDefault("dark_text_color", defaults.DarkTextColor)
	v.SetDefault("dark_bg_color", defaults.DarkBgColor)
	v.SetDefault("theme_colors", defaults.ThemeColors)

	if _, err := os.Stat(stylesPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(stylesPath), 0755); err != nil {
			return defaults, err
		}
		if err := v.WriteConfigAs(stylesPath); err != nil {
			return defaults, err
		}
		return defaults, nil
	}

	if err := v.ReadInConfig(); err != nil {
		return defaults, err
	}

	var loaded Styles
	if err := v.Unmarshal(&loaded); err != nil {
		return defaults, err
	}
	return loaded, nil
}
