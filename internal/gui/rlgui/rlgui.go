// Package rlgui draws the gui.UI widget contract with raylib.
//
// Layout is immediate: a group is placed at its parent's cursor when it
// starts and its size is known only when it ends. Backgrounds and pointer
// hit tests therefore use the rectangle the group had on the previous frame.
package rlgui

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"scenelab/internal/gui"
)

type group struct {
	id      string
	layout  gui.Layout
	spacing float32
	margin  gui.Margin
	x, y    float32
	cursor  float32 // extent used along the layout direction
	cross   float32 // largest child across it
	count   int
}

func (g *group) next() rl.Vector2 {
	c := g.cursor
	if g.count > 0 {
		c += g.spacing
	}
	if g.layout.Horizontal() {
		return rl.Vector2{X: g.x + g.margin.Left + c, Y: g.y + g.margin.Top}
	}
	return rl.Vector2{X: g.x + g.margin.Left, Y: g.y + g.margin.Top + c}
}

func (g *group) advance(w, h float32) {
	if g.count > 0 {
		g.cursor += g.spacing
	}
	g.count++
	main, cross := h, w
	if g.layout.Horizontal() {
		main, cross = w, h
	}
	g.cursor += main
	g.cross = max(g.cross, cross)
}

func (g *group) size() (w, h float32) {
	w, h = g.cross, g.cursor
	if g.layout.Horizontal() {
		w, h = g.cursor, g.cross
	}
	return w + g.margin.Left + g.margin.Right, h + g.margin.Top + g.margin.Bottom
}

// Context implements gui.UI on the current raylib window. Call Begin before
// drawing a frame's widgets and End after.
type Context struct {
	Fonts Fonts
	// Padding is the inner space of edit fields.
	Padding float32
	Theme   gui.Palette

	stack     []*group
	rects     map[string]rl.Rectangle
	nextRects map[string]rl.Rectangle
	textColor rl.Color

	activeID  string
	inputText string
	// restore is the text a field held when it gained focus.
	restore string
}

var _ gui.UI = (*Context)(nil)

func New(theme gui.Palette) *Context {
	return &Context{
		Padding:   4,
		Theme:     theme,
		rects:     make(map[string]rl.Rectangle),
		nextRects: make(map[string]rl.Rectangle),
		textColor: rgba(theme.TextNormal),
	}
}

func rgba(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

// Begin starts a frame with its root group at (x, y).
func (c *Context) Begin(x, y float32) {
	c.rects, c.nextRects = c.nextRects, c.rects
	clear(c.nextRects)
	c.stack = append(c.stack[:0], &group{id: "", layout: gui.VerticalLeft, x: x, y: y})
}

// End closes the frame and returns the size used by its widgets.
func (c *Context) End() (w, h float32) {
	if len(c.stack) != 1 {
		panic("rlgui: unbalanced StartGroup/EndGroup")
	}
	w, h = c.stack[0].size()
	c.stack = c.stack[:0]
	return w, h
}

// Editing reports whether an edit field holds keyboard focus.
func (c *Context) Editing() bool {
	return c.activeID != ""
}

func (c *Context) top() *group {
	if len(c.stack) == 0 {
		c.stack = append(c.stack, &group{layout: gui.VerticalLeft})
	}
	return c.stack[len(c.stack)-1]
}

func (c *Context) StartGroup(layout gui.Layout, spacing float32, id string) {
	p := c.top().next()
	c.stack = append(c.stack, &group{id: id, layout: layout, spacing: spacing, x: p.X, y: p.Y})
}

func (c *Context) EndGroup() {
	if len(c.stack) < 2 {
		panic("rlgui: EndGroup without StartGroup")
	}
	g := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	w, h := g.size()
	if g.id != "" {
		c.nextRects[g.id] = rl.Rectangle{X: g.x, Y: g.y, Width: w, Height: h}
	}
	c.top().advance(w, h)
}

func (c *Context) SetMargin(m gui.Margin) {
	c.top().margin = m
}

func (c *Context) CheckEvent() gui.Event {
	r, ok := c.rects[c.top().id]
	if !ok || !rl.CheckCollisionPointRec(rl.GetMousePosition(), r) {
		return gui.EventNone
	}
	ev := gui.EventHover
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		ev |= gui.EventWentDown
	}
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		ev |= gui.EventIsDown
	}
	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		ev |= gui.EventWentUp
	}
	return ev
}

func (c *Context) ColorBackground(col color.RGBA) {
	if r, ok := c.rects[c.top().id]; ok {
		rl.DrawRectangleRounded(r, 0.2, 4, rgba(col))
	}
}

func (c *Context) SetTextColor(col color.RGBA) {
	c.textColor = rgba(col)
}

func (c *Context) Label(text string, size float32) {
	p := c.top().next()
	sz := c.Fonts.Measure(c.Fonts.UI, text, size)
	c.Fonts.Draw(c.Fonts.UI, text, p.X, p.Y, size, c.textColor)
	c.top().advance(sz.X, sz.Y)
}

// Edit is a single-line text field. Clicking it takes keyboard focus;
// Enter, Tab or a click elsewhere releases it and Escape restores the text
// it had when focus was taken.
func (c *Context) Edit(size, minWidth float32, id string, text *string) bool {
	p := c.top().next()
	display := *text
	if c.activeID == id {
		display = c.inputText + "_"
	}
	sz := c.Fonts.Measure(c.Fonts.Mono, display, size)
	r := rl.Rectangle{
		X:      p.X,
		Y:      p.Y,
		Width:  max(sz.X, minWidth) + 2*c.Padding,
		Height: sz.Y + c.Padding,
	}
	hovered := rl.CheckCollisionPointRec(rl.GetMousePosition(), r)
	editMode := c.activeID == id

	bg := rgba(c.Theme.BgButton)
	if editMode {
		bg = rgba(c.Theme.BgButtonHover)
	} else if hovered {
		bg = rgba(c.Theme.BgHeader)
	}
	rl.DrawRectangleRounded(r, 0.2, 4, bg)
	if editMode {
		rl.DrawRectangleRoundedLinesEx(r, 0.2, 4, 1, rgba(c.Theme.Accent))
	}

	if hovered && !editMode && rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		c.activeID = id
		c.inputText = *text
		c.restore = *text
		editMode = true
	}

	if editMode {
		for {
			key := rl.GetCharPressed()
			if key == 0 {
				break
			}
			c.inputText += string(rune(key))
		}
		if rl.IsKeyPressed(rl.KeyBackspace) && len(c.inputText) > 0 {
			runes := []rune(c.inputText)
			c.inputText = string(runes[:len(runes)-1])
		}
		*text = c.inputText

		clickedOutside := rl.IsMouseButtonPressed(rl.MouseLeftButton) && !hovered
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter) || rl.IsKeyPressed(rl.KeyTab) || clickedOutside {
			c.activeID = ""
		}
		if rl.IsKeyPressed(rl.KeyEscape) {
			*text = c.restore
			c.activeID = ""
		}
	}

	c.Fonts.Draw(c.Fonts.Mono, display, r.X+c.Padding, r.Y+c.Padding/2, size, c.textColor)
	c.top().advance(r.Width, r.Height)
	return c.activeID == id
}
