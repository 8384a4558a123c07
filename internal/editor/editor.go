// Package editor implements the schema-guided FlatBuffers editor. An Editor
// owns a private copy of one serialized table and walks it through its
// reflection schema every frame, drawing a text control per field, tracking
// the text the user typed, and writing accepted edits back into the buffer.
// Edits that change a string or vector length resize the buffer and restart
// the walk from the root, since every position after the edit point moves.
package editor

import (
	"log"
	"strconv"
	"sync/atomic"

	"golang.org/x/xerrors"

	"scenelab/internal/fbutil"
	"scenelab/internal/gui"
	"scenelab/internal/reflection"
)

// Config controls how an Editor draws and what it lets the user change.
type Config struct {
	ReadOnly   bool `yaml:"read_only"`
	AutoCommit bool `yaml:"auto_commit"`
	// AllowResize permits edits that change string and vector lengths.
	AllowResize bool `yaml:"allow_resize"`
	// AllowAddingFields offers buttons that add absent fields. Ignored
	// unless AllowResize is set.
	AllowAddingFields bool    `yaml:"allow_adding_fields"`
	UISize            float32 `yaml:"ui_size"`
	UISpacing         float32 `yaml:"ui_spacing"`
	BlankFieldWidth   float32 `yaml:"blank_field_width"`
	ShowTypes         bool    `yaml:"show_types"`
	ExpandAll         bool    `yaml:"expand_all"`
	// RootID prefixes every control id. Empty picks a unique "fbedit:<n>".
	RootID  string      `yaml:"root_id"`
	Palette gui.Palette `yaml:"palette"`
}

func DefaultConfig() Config {
	return Config{
		AutoCommit:      true,
		AllowResize:     true,
		UISize:          20,
		UISpacing:       4,
		BlankFieldWidth: 10,
		Palette:         gui.DefaultPalette(),
	}
}

type button int

const (
	buttonNone button = iota
	buttonCommit
	buttonRevert
)

var editorCount atomic.Int64

type Editor struct {
	Config

	schema *reflection.Schema
	table  *reflection.Object
	buf    []byte

	drafts    map[string]string
	errored   map[string]struct{}
	committed map[string]struct{}
	expanded  map[string]struct{}
	// committedThisLoop collects the ids written by one CommitEdits call;
	// their drafts are dropped once the loop settles.
	committedThisLoop []string

	modified      bool
	editsPending  bool
	keyboardInUse bool

	currentlyEditing string
	forceCommit      string
	pressed          button
}

// New creates an editor for tables of type table. data may be nil; otherwise
// it is verified and copied, and an error is returned when it is malformed.
func New(s *reflection.Schema, table *reflection.Object, data []byte, cfg Config) (*Editor, error) {
	if s == nil || table == nil || table.IsStruct {
		return nil, xerrors.Errorf("editor needs a table: %w", reflection.ErrNoObject)
	}
	if cfg.RootID == "" {
		cfg.RootID = "fbedit:" + strconv.FormatInt(editorCount.Add(1), 10)
	}
	e := &Editor{
		Config:   cfg,
		schema:   s,
		table:    table,
		expanded: make(map[string]struct{}),
	}
	if err := e.SetFlatbufferData(data); err != nil {
		return nil, err
	}
	return e, nil
}

// SetFlatbufferData replaces the edited buffer and drops all edit state. A
// nil data leaves the editor empty.
func (e *Editor) SetFlatbufferData(data []byte) error {
	e.drafts = make(map[string]string)
	e.errored = make(map[string]struct{})
	e.committed = make(map[string]struct{})
	e.committedThisLoop = nil
	e.modified = false
	e.editsPending = false
	e.currentlyEditing = ""
	e.forceCommit = ""
	e.pressed = buttonNone
	e.buf = nil
	if data == nil {
		return nil
	}
	if err := fbutil.Verify(e.schema, e.table, data); err != nil {
		return xerrors.Errorf("%s: %w", e.table.Name, err)
	}
	buf, err := fbutil.CopyTable(e.schema, e.table, data)
	if err != nil {
		return xerrors.Errorf("%s: %w", e.table.Name, err)
	}
	e.buf = buf
	return nil
}

func (e *Editor) HasFlatbufferData() bool { return len(e.buf) != 0 }

func (e *Editor) Schema() *reflection.Schema { return e.schema }
func (e *Editor) Table() *reflection.Object  { return e.table }

// Buffer is the working buffer. It is only valid until the next commit.
func (e *Editor) Buffer() []byte { return e.buf }

// FlatbufferCopy returns a compacted copy of the working buffer.
func (e *Editor) FlatbufferCopy() ([]byte, bool) {
	if !e.HasFlatbufferData() {
		return nil, false
	}
	out, err := fbutil.CopyTable(e.schema, e.table, e.buf)
	if err != nil {
		log.Printf("editor %s: copy failed: %v", e.RootID, err)
		return nil, false
	}
	return out, true
}

func (e *Editor) FlatbufferString() (string, bool) {
	b, ok := e.FlatbufferCopy()
	return string(b), ok
}

// AppendFlatbuffer appends a copy of the working buffer to dst.
func (e *Editor) AppendFlatbuffer(dst []byte) ([]byte, bool) {
	b, ok := e.FlatbufferCopy()
	if !ok {
		return dst, false
	}
	return append(dst, b...), true
}

// FlatbufferModified reports whether a commit changed the buffer since the
// last ClearFlatbufferModifiedFlag.
func (e *Editor) FlatbufferModified() bool { return e.modified }

func (e *Editor) ClearFlatbufferModifiedFlag() {
	e.modified = false
	e.committed = make(map[string]struct{})
}

// KeyboardInUse reports whether a text field held focus during the last
// Draw. Only Draw sets or clears it; Update leaves it alone so callers can
// read it after stepping the frame.
func (e *Editor) KeyboardInUse() bool { return e.keyboardInUse }

// HasPendingEdits reports whether the last Draw or Visit saw drafts that
// differ from the buffer.
func (e *Editor) HasPendingEdits() bool { return e.editsPending }

func (e *Editor) SetDraft(id, text string) { e.drafts[id] = text }

func (e *Editor) Draft(id string) (string, bool) {
	t, ok := e.drafts[id]
	return t, ok
}

func (e *Editor) FieldErrored(id string) bool {
	_, ok := e.errored[id]
	return ok
}

func (e *Editor) ErrorFields() []string     { return sortedKeys(e.errored) }
func (e *Editor) CommittedFields() []string { return sortedKeys(e.committed) }

func (e *Editor) SetExpanded(id string, on bool) {
	if on {
		e.expanded[id] = struct{}{}
	} else {
		delete(e.expanded, id)
	}
}

func (e *Editor) Expanded(id string) bool {
	_, ok := e.expanded[id]
	return ok
}

// RevertEdits drops every draft and error.
func (e *Editor) RevertEdits() {
	e.drafts = make(map[string]string)
	e.errored = make(map[string]struct{})
	e.editsPending = false
}

// Update applies what the previous frame asked for: a forced commit of one
// field, or the commit-all and revert-all buttons. KeyboardInUse keeps the
// value from the preceding Draw.
func (e *Editor) Update() {
	switch {
	case e.forceCommit != "" || e.pressed == buttonCommit:
		e.CommitEdits()
	case e.pressed == buttonRevert:
		e.RevertEdits()
	}
	e.pressed = buttonNone
	e.forceCommit = ""
}

// Draw renders the editor for one frame.
func (e *Editor) Draw(ui gui.UI) {
	e.keyboardInUse = false
	if !e.HasFlatbufferData() {
		return
	}
	e.Visit(ui, CheckEdits)
	ui.StartGroup(gui.VerticalLeft, e.UISpacing, e.RootID+"-contents")
	if !e.AutoCommit && !e.ReadOnly && e.editsPending {
		ui.StartGroup(gui.HorizontalTop, e.UISpacing, e.RootID+"-buttons")
		if e.textButton(ui, "[Apply All]", e.RootID+"-button-commit")&gui.EventWentUp != 0 {
			e.pressed = buttonCommit
		}
		if e.textButton(ui, "[Revert All]", e.RootID+"-button-revert")&gui.EventWentUp != 0 {
			e.pressed = buttonRevert
		}
		ui.EndGroup()
	}

	previous := e.currentlyEditing
	e.currentlyEditing = ""
	mode := DrawEditManual
	switch {
	case e.ReadOnly:
		mode = DrawReadOnly
	case e.AutoCommit:
		mode = DrawEditAuto
	}
	e.Visit(ui, mode)

	// The field that just lost focus is committed on its own.
	if previous != "" && e.currentlyEditing == "" && e.editsPending {
		e.forceCommit = previous
	}
	ui.EndGroup()
}

func (e *Editor) textButton(ui gui.UI, text, id string) gui.Event {
	p := e.Palette
	ui.SetTextColor(p.TextButton)
	ev := gui.TextButton(ui, text, e.UISize, id, p.BgButton, p.BgButtonHover, p.BgButtonClick)
	ui.SetTextColor(p.TextNormal)
	return ev
}
