package scenelab

import (
	"fmt"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"scenelab/internal/config"
	"scenelab/internal/gui/rlgui"
)

const (
	rowHeight    = 22
	toolbarWidth = 130
	statusTime   = 3.0
)

// App is the window that hosts a Panel: an entity list on the left, the
// component editors on the right and a status line.
type App struct {
	cfg   config.Config
	panel *Panel
	ui    *rlgui.Context

	scroll     float32
	listScroll float32
	status     string
	statusAt   float64
}

func NewApp(cfg config.Config, panel *Panel) *App {
	return &App{
		cfg:   cfg,
		panel: panel,
		ui:    rlgui.New(cfg.Editor.Palette),
	}
}

func (a *App) setStatus(format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
	a.statusAt = rl.GetTime()
	log.Print(a.status)
}

// Run opens the window and blocks until it is closed.
func (a *App) Run() {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagWindowResizable)
	rl.InitWindow(a.cfg.Window.Width, a.cfg.Window.Height, a.cfg.Window.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(a.cfg.Window.TargetFPS)
	// Escape belongs to the edit fields.
	rl.SetExitKey(0)

	a.ui.Fonts = rlgui.LoadFonts(a.cfg.Window.FontDir)
	rlgui.ApplyTheme(a.cfg.Editor.Palette)

	for !rl.WindowShouldClose() {
		rl.BeginDrawing()
		rl.ClearBackground(rgba(a.cfg.Editor.Palette.BgPanel))
		a.drawList()
		a.drawToolbar()
		a.drawPanel()
		a.drawStatus()
		rl.EndDrawing()

		a.panel.Update()
		a.handleShortcuts()
	}
	a.savePrefs()
}

func (a *App) handleShortcuts() {
	if a.panel.KeyboardInUse() || a.ui.Editing() {
		return
	}
	ctrl := rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl) ||
		rl.IsKeyDown(rl.KeyLeftSuper) || rl.IsKeyDown(rl.KeyRightSuper)
	if !ctrl {
		return
	}
	switch {
	case rl.IsKeyPressed(rl.KeyS):
		if err := SaveScene(a.cfg.Scene, a.panel.Scene(), a.cfg.Schema); err != nil {
			a.setStatus("Save failed: %v", err)
		} else {
			a.setStatus("Saved %s", a.cfg.Scene)
		}
	case rl.IsKeyPressed(rl.KeyZ):
		if a.panel.Undo() {
			a.setStatus("Undo (%d left)", a.panel.UndoLen())
		}
	}
}

func (a *App) drawList() {
	pal := a.cfg.Editor.Palette
	w := a.cfg.Window.ListWidth
	h := int32(rl.GetScreenHeight())
	rl.DrawRectangle(0, 0, w, h, rgba(pal.BgHeader))

	mouse := rl.GetMousePosition()
	if mouse.X < float32(w) {
		a.listScroll += rl.GetMouseWheelMove() * rowHeight
		a.listScroll = min(a.listScroll, 0)
	}

	selected := a.panel.Selected()
	rl.BeginScissorMode(0, 0, w, h)
	y := int32(a.listScroll) + 8
	for _, e := range a.panel.Scene().Entities {
		depth := int32(0)
		for p := e.Parent; p != nil; p = p.Parent {
			depth++
		}
		row := rl.Rectangle{X: 0, Y: float32(y), Width: float32(w), Height: rowHeight}
		hovered := rl.CheckCollisionPointRec(mouse, row)
		switch {
		case e == selected:
			rl.DrawRectangleRec(row, rgba(pal.BgButtonClick))
		case hovered:
			rl.DrawRectangleRec(row, rgba(pal.BgButtonHover))
		}
		if hovered && rl.IsMouseButtonPressed(rl.MouseLeftButton) && e != selected {
			a.panel.Select(e)
			a.scroll = 0
		}
		a.ui.Fonts.Draw(a.ui.Fonts.UI, e.Name, float32(10+depth*14), float32(y+3), 16, rgba(pal.TextNormal))
		y += rowHeight
	}
	rl.EndScissorMode()
}

// drawToolbar draws the raygui toggles for the editor display options.
func (a *App) drawToolbar() {
	x := float32(rl.GetScreenWidth() - toolbarWidth)
	cfg := a.panel.Config()
	before := cfg

	cfg.AutoCommit = gui.CheckBox(rl.Rectangle{X: x, Y: 10, Width: 16, Height: 16}, "Auto commit", cfg.AutoCommit)
	cfg.ExpandAll = gui.CheckBox(rl.Rectangle{X: x, Y: 34, Width: 16, Height: 16}, "Expand all", cfg.ExpandAll)
	cfg.ShowTypes = gui.CheckBox(rl.Rectangle{X: x, Y: 58, Width: 16, Height: 16}, "Show types", cfg.ShowTypes)
	cfg.ReadOnly = gui.CheckBox(rl.Rectangle{X: x, Y: 82, Width: 16, Height: 16}, "Read only", cfg.ReadOnly)
	cfg.AllowAddingFields = gui.CheckBox(rl.Rectangle{X: x, Y: 106, Width: 16, Height: 16}, "Add fields", cfg.AllowAddingFields)

	if cfg != before {
		a.panel.SetConfig(cfg)
	}
}

func (a *App) drawPanel() {
	x := a.cfg.Window.ListWidth + 10
	w := int32(rl.GetScreenWidth()) - x - toolbarWidth - 10
	h := int32(rl.GetScreenHeight()) - rowHeight

	mouse := rl.GetMousePosition()
	if mouse.X >= float32(x) && mouse.X < float32(x+w) {
		a.scroll += rl.GetMouseWheelMove() * rowHeight * 2
		a.scroll = min(a.scroll, 0)
	}

	rl.BeginScissorMode(x, 0, w, h)
	a.ui.Begin(float32(x), a.scroll+8)
	a.panel.Draw(a.ui)
	a.ui.End()
	rl.EndScissorMode()
}

func (a *App) drawStatus() {
	if a.status == "" || rl.GetTime()-a.statusAt > statusTime {
		return
	}
	y := int32(rl.GetScreenHeight()) - rowHeight
	a.ui.Fonts.Draw(a.ui.Fonts.UI, a.status, float32(a.cfg.Window.ListWidth+10), float32(y+3), 16, rgba(a.cfg.Editor.Palette.TextCommitted))
}

func (a *App) savePrefs() {
	cfg := a.panel.Config()
	p := config.Prefs{
		WindowWidth:  int32(rl.GetScreenWidth()),
		WindowHeight: int32(rl.GetScreenHeight()),
		WindowX:      int32(rl.GetWindowPosition().X),
		WindowY:      int32(rl.GetWindowPosition().Y),
		ListWidth:    a.cfg.Window.ListWidth,
		PanelWidth:   a.cfg.Window.PanelWidth,
		ScenePath:    a.cfg.Scene,
		ExpandAll:    cfg.ExpandAll,
		ShowTypes:    cfg.ShowTypes,
	}
	if e := a.panel.Selected(); e != nil {
		p.SelectedUID = e.UID
	}
	config.SavePrefs(a.cfg.PrefsPath, p)
}
