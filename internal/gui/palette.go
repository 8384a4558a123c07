package gui

import "image/color"

// Palette holds the colors editor widgets are drawn with.
type Palette struct {
	TextNormal    color.RGBA `yaml:"text_normal"`
	TextDisabled  color.RGBA `yaml:"text_disabled"`
	TextEditable  color.RGBA `yaml:"text_editable"`
	TextModified  color.RGBA `yaml:"text_modified"`
	TextCommitted color.RGBA `yaml:"text_committed"`
	TextError     color.RGBA `yaml:"text_error"`
	TextButton    color.RGBA `yaml:"text_button"`

	BgButton      color.RGBA `yaml:"bg_button"`
	BgButtonHover color.RGBA `yaml:"bg_button_hover"`
	BgButtonClick color.RGBA `yaml:"bg_button_click"`

	BgPanel  color.RGBA `yaml:"bg_panel"`
	BgHeader color.RGBA `yaml:"bg_header"`
	Accent   color.RGBA `yaml:"accent"`
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// DefaultPalette is the dark editor theme.
func DefaultPalette() Palette {
	return Palette{
		TextNormal:    rgb(220, 220, 220),
		TextDisabled:  rgb(140, 140, 140),
		TextEditable:  rgb(255, 255, 255),
		TextModified:  rgb(255, 200, 60),
		TextCommitted: rgb(110, 220, 110),
		TextError:     rgb(240, 80, 80),
		TextButton:    rgb(230, 230, 230),

		BgButton:      rgb(60, 60, 60),
		BgButtonHover: rgb(75, 75, 80),
		BgButtonClick: rgb(66, 150, 250),

		BgPanel:  rgb(32, 32, 32),
		BgHeader: rgb(45, 45, 45),
		Accent:   rgb(66, 150, 250),
	}
}
