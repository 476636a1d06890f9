package config

// ColorScheme defines all configurable color values
type ColorScheme struct {
	// Preset name (e.g., "default", "monochrome")
	Preset string `yaml:"preset"`

	// Primary accent color (used for selections, titles, highlights)
	Accent string `yaml:"accent"`

	// UI element colors
	StageBorder    string `yaml:"stage_border"`
	DealBorder     string `yaml:"deal_border"`
	DealBackground string `yaml:"deal_background"`
	SelectedBorder string `yaml:"selected_border"`
	SelectedBg     string `yaml:"selected_bg"`
	DraggingBorder string `yaml:"dragging_border"`

	// Text colors
	Title  string `yaml:"title"`
	Subtle string `yaml:"subtle"` // Muted/placeholder text
	Normal string `yaml:"normal"`

	// Deal status colors
	Won  string `yaml:"won"`
	Lost string `yaml:"lost"`

	// Notification colors (foreground/background pairs)
	InfoFg    string `yaml:"info_fg"`
	InfoBg    string `yaml:"info_bg"`
	WarningFg string `yaml:"warning_fg"`
	WarningBg string `yaml:"warning_bg"`
	ErrorFg   string `yaml:"error_fg"`
	ErrorBg   string `yaml:"error_bg"`
}

// DefaultColorScheme returns the default color scheme (purple theme)
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		Preset: "default",

		Accent: "#874BFD",

		StageBorder:    "#5F87D7",
		DealBorder:     "#585858",
		DealBackground: "#262626",
		SelectedBorder: "#D75FD7",
		SelectedBg:     "#3A3A3A",
		DraggingBorder: "#FFD700",

		Title:  "#D75FD7",
		Subtle: "#585858",
		Normal: "#D0D0D0",

		Won:  "#5FD75F",
		Lost: "#FF5F5F",

		InfoFg:    "#00AFFF",
		InfoBg:    "#00005F",
		WarningFg: "#FFD700",
		WarningBg: "#875F00",
		ErrorFg:   "#FF0000",
		ErrorBg:   "#5F0000",
	}
}

// MonochromeColorScheme returns a black and white color scheme
func MonochromeColorScheme() ColorScheme {
	return ColorScheme{
		Preset: "monochrome",

		Accent: "#FFFFFF",

		StageBorder:    "#808080",
		DealBorder:     "#585858",
		DealBackground: "#1C1C1C",
		SelectedBorder: "#FFFFFF",
		SelectedBg:     "#3A3A3A",
		DraggingBorder: "#FFFFFF",

		Title:  "#FFFFFF",
		Subtle: "#585858",
		Normal: "#D0D0D0",

		Won:  "#D0D0D0",
		Lost: "#808080",

		InfoFg:    "#FFFFFF",
		InfoBg:    "#262626",
		WarningFg: "#FFFFFF",
		WarningBg: "#3A3A3A",
		ErrorFg:   "#FFFFFF",
		ErrorBg:   "#585858",
	}
}

// getPreset returns a preset color scheme by name
func getPreset(name string) ColorScheme {
	switch name {
	case "monochrome":
		return MonochromeColorScheme()
	default:
		return DefaultColorScheme()
	}
}

// ApplyDefaults fills in missing color values using the preset as base.
// If preset is specified, loads that preset first, then overrides with
// custom values.
func (c *ColorScheme) ApplyDefaults() {
	preset := getPreset(c.Preset)

	if c.Accent == "" {
		c.Accent = preset.Accent
	}
	if c.StageBorder == "" {
		c.StageBorder = preset.StageBorder
	}
	if c.DealBorder == "" {
		c.DealBorder = preset.DealBorder
	}
	if c.DealBackground == "" {
		c.DealBackground = preset.DealBackground
	}
	if c.SelectedBorder == "" {
		c.SelectedBorder = preset.SelectedBorder
	}
	if c.SelectedBg == "" {
		c.SelectedBg = preset.SelectedBg
	}
	if c.DraggingBorder == "" {
		c.DraggingBorder = preset.DraggingBorder
	}
	if c.Title == "" {
		c.Title = preset.Title
	}
	if c.Subtle == "" {
		c.Subtle = preset.Subtle
	}
	if c.Normal == "" {
		c.Normal = preset.Normal
	}
	if c.Won == "" {
		c.Won = preset.Won
	}
	if c.Lost == "" {
		c.Lost = preset.Lost
	}
	if c.InfoFg == "" {
		c.InfoFg = preset.InfoFg
	}
	if c.InfoBg == "" {
		c.InfoBg = preset.InfoBg
	}
	if c.WarningFg == "" {
		c.WarningFg = preset.WarningFg
	}
	if c.WarningBg == "" {
		c.WarningBg = preset.WarningBg
	}
	if c.ErrorFg == "" {
		c.ErrorFg = preset.ErrorFg
	}
	if c.ErrorBg == "" {
		c.ErrorBg = preset.ErrorBg
	}
}
