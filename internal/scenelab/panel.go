// Package scenelab hosts schema-driven component editors over an entity
// scene: the inspector panel, its undo history, scene files and the window
// loop.
package scenelab

import (
	"fmt"
	"log"
	"slices"

	"scenelab/internal/editor"
	"scenelab/internal/entity"
	"scenelab/internal/gui"
	"scenelab/internal/reflection"
)

type action int

const (
	actionNone action = iota
	actionCommit
	actionRevert
)

// Panel shows one editor per component table for the selected entity and
// writes committed buffers back into the entity.
type Panel struct {
	schema     *reflection.Schema
	components []*reflection.Object
	scene      *entity.Scene
	cfg        editor.Config

	selected entity.Ref
	editors  map[string]*editor.Editor
	failed   map[string]error
	pressed  map[string]action

	undo          *UndoStack
	keyboardInUse bool
	// writing is set while the panel stores its own commits, so the change
	// events they raise do not reload the editors.
	writing    bool
	subscribed map[uint64]bool
}

func NewPanel(s *reflection.Schema, components []*reflection.Object, scene *entity.Scene, cfg editor.Config, undoLimit int) *Panel {
	return &Panel{
		schema:     s,
		components: components,
		scene:      scene,
		cfg:        cfg,
		editors:    make(map[string]*editor.Editor),
		failed:     make(map[string]error),
		pressed:    make(map[string]action),
		undo:       NewUndoStack(undoLimit),
		subscribed: make(map[uint64]bool),
	}
}

func (p *Panel) Scene() *entity.Scene { return p.scene }

// SetScene replaces the scene, clearing the selection and the undo history.
func (p *Panel) SetScene(scene *entity.Scene) {
	p.scene = scene
	p.undo = NewUndoStack(p.undo.limit)
	p.subscribed = make(map[uint64]bool)
	p.Select(nil)
}

func (p *Panel) Config() editor.Config { return p.cfg }

// SetConfig applies cfg to the panel and every open editor.
func (p *Panel) SetConfig(cfg editor.Config) {
	p.cfg = cfg
	for _, ed := range p.editors {
		rootID := ed.RootID
		ed.Config = cfg
		ed.RootID = rootID
	}
}

func (p *Panel) Selected() *entity.Entity {
	return p.selected.Get(p.scene)
}

// Select opens editors for e's components. A nil e clears the panel.
func (p *Panel) Select(e *entity.Entity) {
	p.selected.Set(e)
	clear(p.editors)
	clear(p.failed)
	clear(p.pressed)
	if e == nil {
		return
	}
	if !p.subscribed[e.UID] {
		p.subscribed[e.UID] = true
		e.Changes.Watch(func(c entity.ComponentChange) {
			if p.writing || p.selected.UID != c.Entity.UID {
				return
			}
			p.load(c.Entity, c.Component)
		})
	}
	for _, table := range p.components {
		p.load(e, table.Name)
	}
}

func (p *Panel) editorID(e *entity.Entity, component string) string {
	return fmt.Sprintf("e%d.%s", e.UID, component)
}

func (p *Panel) load(e *entity.Entity, name string) {
	data := e.Component(name)
	delete(p.failed, name)
	if data == nil {
		delete(p.editors, name)
		return
	}
	if ed := p.editors[name]; ed != nil {
		if err := ed.SetFlatbufferData(data); err != nil {
			log.Printf("scenelab: reload %s of %s: %v", name, e.Name, err)
			delete(p.editors, name)
			p.failed[name] = err
		}
		return
	}
	table, ok := p.schema.ObjectByName(name)
	if !ok {
		return
	}
	cfg := p.cfg
	cfg.RootID = p.editorID(e, name)
	ed, err := editor.New(p.schema, table, data, cfg)
	if err != nil {
		log.Printf("scenelab: open %s of %s: %v", name, e.Name, err)
		p.failed[name] = err
		return
	}
	p.editors[name] = ed
}

// Editor returns the open editor for a component of the selected entity.
func (p *Panel) Editor(component string) *editor.Editor {
	return p.editors[component]
}

func (p *Panel) KeyboardInUse() bool { return p.keyboardInUse }
func (p *Panel) UndoLen() int        { return p.undo.Len() }

func (p *Panel) button(ui gui.UI, text, id string) bool {
	pal := p.cfg.Palette
	ui.SetTextColor(pal.TextButton)
	ev := gui.TextButton(ui, text, p.cfg.UISize, id, pal.BgButton, pal.BgButtonHover, pal.BgButtonClick)
	ui.SetTextColor(pal.TextNormal)
	return ev&gui.EventWentUp != 0
}

// Draw renders the panel for one frame. Button presses take effect in
// Update.
func (p *Panel) Draw(ui gui.UI) {
	pal := p.cfg.Palette
	ui.StartGroup(gui.VerticalLeft, p.cfg.UISpacing, "scenelab-panel")
	ui.SetTextColor(pal.TextNormal)
	e := p.Selected()
	if e == nil {
		ui.Label("(no entity selected)", p.cfg.UISize)
		ui.EndGroup()
		return
	}
	title := e.Name
	if e.Prototype != "" {
		title += " : " + e.Prototype
	}
	ui.Label(title, p.cfg.UISize)

	for _, table := range p.components {
		id := p.editorID(e, table.Name)
		ed := p.editors[table.Name]

		ui.StartGroup(gui.HorizontalTop, p.cfg.UISpacing, id+"-title")
		ui.ColorBackground(pal.BgHeader)
		ui.SetTextColor(pal.Accent)
		ui.Label(table.Name, p.cfg.UISize)
		ui.SetTextColor(pal.TextDisabled)
		switch {
		case p.failed[table.Name] != nil:
			ui.SetTextColor(pal.TextError)
			ui.Label("(unreadable)", p.cfg.UISize)
		case ed == nil:
			ui.Label("(not exported)", p.cfg.UISize)
		case !ed.AutoCommit && !ed.ReadOnly && ed.HasPendingEdits():
			if p.button(ui, "[Commit]", id+"-commit") {
				p.pressed[table.Name] = actionCommit
			}
			if p.button(ui, "[Revert]", id+"-revert") {
				p.pressed[table.Name] = actionRevert
			}
		}
		ui.SetTextColor(pal.TextNormal)
		ui.EndGroup()

		if ed != nil {
			ed.Draw(ui)
		}
	}
	ui.EndGroup()
}

// Update steps every editor and stores modified buffers in the selected
// entity, recording the previous payloads for undo.
func (p *Panel) Update() {
	p.keyboardInUse = false
	e := p.Selected()
	if e == nil {
		return
	}
	for _, table := range p.components {
		name := table.Name
		ed := p.editors[name]
		if ed == nil {
			continue
		}
		switch p.pressed[name] {
		case actionCommit:
			ed.CommitEdits()
		case actionRevert:
			ed.RevertEdits()
		}
		ed.Update()
		if ed.KeyboardInUse() {
			p.keyboardInUse = true
		}
		if !ed.FlatbufferModified() {
			continue
		}
		data, ok := ed.FlatbufferCopy()
		if ok {
			p.undo.Push(Change{UID: e.UID, Component: name, Previous: slices.Clone(e.Component(name))})
			p.writing = true
			e.SetComponent(name, data)
			p.writing = false
		}
		ed.ClearFlatbufferModifiedFlag()
	}
	clear(p.pressed)
}

// Undo restores the component payload replaced by the latest commit and
// selects its entity. It returns false when there is nothing to undo.
func (p *Panel) Undo() bool {
	for {
		c, ok := p.undo.Pop()
		if !ok {
			return false
		}
		e := p.scene.FindByUID(c.UID)
		if e == nil {
			log.Printf("scenelab: undo skipped, entity %d is gone", c.UID)
			continue
		}
		if e.UID != p.selected.UID {
			p.Select(e)
		}
		if c.Previous == nil {
			e.RemoveComponent(c.Component)
		} else {
			e.SetComponent(c.Component, c.Previous)
		}
		return true
	}
}
