package rlgui

import (
	"log"
	"path/filepath"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	scenegui "scenelab/internal/gui"
)

// Fonts used by the widgets. A zero Font draws with raylib's default font.
type Fonts struct {
	UI   rl.Font
	Mono rl.Font
}

// LoadFonts loads Outfit-Regular.ttf and JetBrainsMono-Regular.ttf from dir
// at high resolution so they scale smoothly. Missing files leave the
// default font in place.
func LoadFonts(dir string) Fonts {
	var f Fonts
	f.UI = loadFont(filepath.Join(dir, "Outfit-Regular.ttf"))
	f.Mono = loadFont(filepath.Join(dir, "JetBrainsMono-Regular.ttf"))
	if f.UI.Texture.ID > 0 {
		gui.SetFont(f.UI)
	}
	return f
}

func loadFont(path string) rl.Font {
	font := rl.LoadFontEx(path, 48, nil)
	if font.Texture.ID == 0 {
		log.Printf("Failed to load font %s", path)
		return rl.Font{}
	}
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	log.Printf("Loaded font %s", path)
	return font
}

// Draw draws text with font, or the default font when it is not loaded.
func (f Fonts) Draw(font rl.Font, text string, x, y, size float32, color rl.Color) {
	if font.Texture.ID > 0 {
		rl.DrawTextEx(font, text, rl.Vector2{X: x, Y: y}, size, 0, color)
	} else {
		rl.DrawText(text, int32(x), int32(y), int32(size), color)
	}
}

func (f Fonts) Measure(font rl.Font, text string, size float32) rl.Vector2 {
	if font.Texture.ID > 0 {
		return rl.MeasureTextEx(font, text, size, 0)
	}
	return rl.Vector2{X: float32(rl.MeasureText(text, int32(size))), Y: size}
}

// ApplyTheme styles the raygui controls the harness draws with the editor
// palette.
func ApplyTheme(p scenegui.Palette) {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(rgba(p.BgPanel)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(rgba(p.BgButton)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(rgba(p.BgButtonHover)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(rgba(p.BgButtonClick)))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(rgba(p.TextNormal)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(rgba(p.TextEditable)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(rgba(p.TextEditable)))

	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_NORMAL, gui.NewColorPropertyValue(rgba(p.BgHeader)))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_FOCUSED, gui.NewColorPropertyValue(rgba(p.Accent)))
	gui.SetStyle(gui.DEFAULT, gui.LINE_COLOR, gui.NewColorPropertyValue(rgba(p.BgHeader)))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 15)
}
