package scenelab

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func rgba(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}
