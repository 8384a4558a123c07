package editor

import (
	"log"
	"maps"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"scenelab/internal/fbutil"
	"scenelab/internal/gui"
	"scenelab/internal/reflection"
)

// VisitMode selects what a walk over the buffer does.
type VisitMode int

const (
	// CheckEdits only notes whether any draft differs from the buffer.
	CheckEdits VisitMode = iota
	// DrawEditAuto draws edit controls; a field is committed when it loses
	// focus.
	DrawEditAuto
	// DrawEditManual draws edit controls with per-field apply and revert
	// buttons.
	DrawEditManual
	DrawReadOnly
	// CommitEdits writes eligible drafts into the buffer. It stops and
	// reports true right after a write that resized the buffer.
	CommitEdits
)

var visitModeNames = [...]string{"check", "auto", "manual", "readonly", "commit"}

func (m VisitMode) String() string {
	if m < 0 || int(m) >= len(visitModeNames) {
		return "unknown"
	}
	return visitModeNames[m]
}

func (m VisitMode) draw() bool     { return m >= DrawEditAuto && m <= DrawReadOnly }
func (m VisitMode) drawEdit() bool { return m == DrawEditAuto || m == DrawEditManual }

// maxVectorLen bounds the length a user can type into a vector size field.
const maxVectorLen = 1 << 16

// Visit walks the root table once in the given mode. ui is only used by the
// draw modes and may be nil otherwise. It returns true when a commit resized
// the buffer; positions taken before the call are stale in that case and
// the walk has to start again from the root.
func (e *Editor) Visit(ui gui.UI, mode VisitMode) bool {
	if !e.HasFlatbufferData() {
		return false
	}
	if mode == CheckEdits {
		e.editsPending = false
	}
	return e.visitTable(ui, mode, e.table, fbutil.RootPos(e.buf), e.RootID)
}

func (e *Editor) visitTable(ui gui.UI, mode VisitMode, obj *reflection.Object, pos uint32, id string) bool {
	for _, f := range obj.Fields {
		if f.Deprecated {
			continue
		}
		if e.visitTableField(ui, mode, obj, f, pos, id+"."+f.Name) {
			return true
		}
	}
	return false
}

func (e *Editor) visitTableField(ui gui.UI, mode VisitMode, obj *reflection.Object, f *reflection.Field, pos uint32, id string) bool {
	bt := f.Type.BaseType
	if !fbutil.HasField(e.buf, pos, f) {
		if bt == reflection.UType {
			return false
		}
		return e.addFieldButton(ui, mode, f, pos, id)
	}
	switch bt {
	case reflection.String:
		return e.visitString(ui, mode, f.Name, fbutil.RefPos(e.buf, pos, f), id)
	case reflection.Obj:
		sub := e.schema.Object(f.Type.Index)
		if sub.IsStruct {
			e.visitStruct(ui, mode, f.Name, sub, fbutil.FieldPos(e.buf, pos, f), id)
			return false
		}
		return e.visitSubtable(ui, mode, f.Name, sub.Name, sub, fbutil.RefPos(e.buf, pos, f), id)
	case reflection.Union:
		return e.visitUnion(ui, mode, obj, f, pos, id)
	case reflection.Vector:
		return e.visitVector(ui, mode, f, fbutil.RefPos(e.buf, pos, f), id)
	case reflection.Array, reflection.Vector64, reflection.None:
		e.note(ui, mode, f.Name, "(unsupported "+bt.String()+")", id)
		return false
	}
	p := fbutil.FieldPos(e.buf, pos, f)
	fv := e.scalarView(f.Name, bt, f.Type.Index, fbutil.FormatScalar(e.buf, bt, p), id)
	fv.readOnly = bt == reflection.UType
	if e.visitField(ui, mode, fv) {
		e.writeScalar(fv.id, bt, f.Type.Index, p)
	}
	return false
}

// fieldView is what visitField needs to know about one editable value.
type fieldView struct {
	name     string
	value    string
	typ      string
	comment  string
	id       string
	readOnly bool
	// validate reports why a draft cannot be committed. nil accepts all.
	validate func(string) error
}

func (e *Editor) fieldName(name, typ string) string {
	if typ != "" && e.ShowTypes {
		return name + "<" + typ + ">: "
	}
	return name + ": "
}

// visitField reconciles the draft of one field with its value in the buffer
// and draws its control. In CommitEdits mode it returns true when the caller
// should write the draft into the buffer.
func (e *Editor) visitField(ui gui.UI, mode VisitMode, fv fieldView) bool {
	if fv.readOnly {
		if !mode.draw() {
			return false
		}
		mode = DrawReadOnly
	}
	id := fv.id
	if mode != DrawReadOnly {
		if _, ok := e.drafts[id]; !ok {
			e.drafts[id] = fv.value
		}
	}
	p := e.Palette
	if mode.draw() {
		ui.StartGroup(gui.HorizontalCenter, e.UISpacing, id+"-container")
		ui.Label(e.fieldName(fv.name, fv.typ), e.UISize)
	}

	switch {
	case mode == DrawReadOnly:
		ui.SetTextColor(p.TextDisabled)
	case e.drafts[id] != fv.value:
		e.editsPending = true
		var err error
		if fv.validate != nil {
			err = fv.validate(e.drafts[id])
		}
		switch {
		case err != nil:
			e.errored[id] = struct{}{}
			if mode.drawEdit() {
				ui.SetTextColor(p.TextError)
			}
		case mode == CommitEdits && (e.forceCommit == "" || e.forceCommit == id):
			delete(e.errored, id)
			log.Printf("editor: setting %s to %q (was %q)", id, e.drafts[id], fv.value)
			e.committed[id] = struct{}{}
			e.committedThisLoop = append(e.committedThisLoop, id)
			return true
		default:
			delete(e.errored, id)
			if mode.drawEdit() {
				ui.SetTextColor(p.TextModified)
			}
		}
	default:
		delete(e.errored, id)
		if mode.drawEdit() {
			if _, ok := e.committed[id]; ok {
				ui.SetTextColor(p.TextCommitted)
			} else {
				ui.SetTextColor(p.TextEditable)
			}
		}
	}

	switch mode {
	case DrawEditAuto, DrawEditManual:
		text := e.drafts[id]
		var minWidth float32
		if text == "" {
			minWidth = e.BlankFieldWidth
		}
		if ui.Edit(e.UISize, minWidth, id+"-edit", &text) {
			if mode == DrawEditAuto {
				e.currentlyEditing = id
			}
			e.keyboardInUse = true
		}
		e.drafts[id] = text
	case DrawReadOnly:
		ui.Label(fv.value, e.UISize)
	}
	if mode == DrawEditManual && e.drafts[id] != fv.value {
		if e.textButton(ui, "[apply]", id+"-apply")&gui.EventWentUp != 0 {
			e.forceCommit = id
		}
		if e.textButton(ui, "[revert]", id+"-revert")&gui.EventWentUp != 0 {
			e.drafts[id] = fv.value
			delete(e.errored, id)
		}
	}
	if mode.draw() {
		ui.SetTextColor(p.TextNormal)
		if fv.comment != "" {
			ui.Label(fv.comment, e.UISize)
		}
		ui.EndGroup()
	}
	return false
}

// note draws a field that cannot be edited at all.
func (e *Editor) note(ui gui.UI, mode VisitMode, name, text, id string) {
	if !mode.draw() {
		return
	}
	ui.StartGroup(gui.HorizontalCenter, e.UISpacing, id+"-container")
	ui.Label(name+": ", e.UISize)
	ui.SetTextColor(e.Palette.TextDisabled)
	ui.Label(text, e.UISize)
	ui.SetTextColor(e.Palette.TextNormal)
	ui.EndGroup()
}

func kindName(s *reflection.Schema, f *reflection.Field) string {
	switch f.Type.BaseType {
	case reflection.String:
		return "string"
	case reflection.Vector:
		return "vector"
	case reflection.Union:
		return "union"
	case reflection.Obj:
		if s.IsStructType(reflection.Obj, f.Type.Index) {
			return "struct"
		}
		return "table"
	}
	return "scalar"
}

// addFieldButton handles an absent field: "(no value)", or an add button
// when adding fields is allowed. A clicked button forces a commit that
// rebuilds the buffer with the field present.
func (e *Editor) addFieldButton(ui gui.UI, mode VisitMode, f *reflection.Field, tablePos uint32, id string) bool {
	if mode == CommitEdits && e.forceCommit == id {
		buf, err := fbutil.AddField(e.schema, e.table, e.buf, tablePos, f)
		if err != nil {
			log.Printf("editor: cannot add %s: %v", id, err)
			return false
		}
		e.buf = buf
		e.modified = true
		e.committed[id] = struct{}{}
		e.committedThisLoop = append(e.committedThisLoop, id)
		return true
	}
	if !mode.draw() {
		return false
	}
	ui.StartGroup(gui.HorizontalCenter, e.UISpacing, id+"-container")
	ui.Label(f.Name+": ", e.UISize)
	if mode.drawEdit() && e.AllowResize && e.AllowAddingFields {
		if e.textButton(ui, "[add "+kindName(e.schema, f)+"]", id+"-addField")&gui.EventWentUp != 0 {
			e.forceCommit = id
			e.editsPending = true
		}
	} else {
		ui.SetTextColor(e.Palette.TextDisabled)
		ui.Label("(no value)", e.UISize)
		ui.SetTextColor(e.Palette.TextNormal)
	}
	ui.EndGroup()
	return false
}

// scalarView describes a scalar for visitField. Enum typed scalars accept
// member names as well as numbers and are annotated with the resolved name.
func (e *Editor) scalarView(name string, bt reflection.BaseType, enumIdx int32, value, id string) fieldView {
	fv := fieldView{name: name, value: value, typ: bt.String(), id: id}
	en := e.schema.Enum(enumIdx)
	if en == nil {
		fv.validate = func(t string) error { return fbutil.ParseScalar(bt, t) }
		return fv
	}
	draft := value
	if d, ok := e.drafts[id]; ok {
		draft = d
	}
	fv.typ = en.Name
	fv.comment = enumAnnotation(en, bt, draft)
	fv.validate = func(t string) error {
		_, err := ParseEnumValue(en, bt, t)
		return err
	}
	return fv
}

func (e *Editor) writeScalar(id string, bt reflection.BaseType, enumIdx int32, pos uint32) {
	text := e.drafts[id]
	if en := e.schema.Enum(enumIdx); en != nil {
		if v, err := ParseEnumValue(en, bt, text); err == nil {
			text = formatInt(bt, v)
		}
	}
	if err := fbutil.SetScalar(e.buf, bt, pos, text); err != nil {
		log.Printf("editor: %s: %v", id, err)
		return
	}
	e.modified = true
}

func (e *Editor) visitString(ui gui.UI, mode VisitMode, name string, strPos uint32, id string) bool {
	fv := fieldView{
		name:     name,
		value:    fbutil.GetString(e.buf, strPos),
		typ:      "string",
		id:       id,
		readOnly: !e.AllowResize,
	}
	if e.visitField(ui, mode, fv) {
		return e.writeString(id, strPos)
	}
	return false
}

func (e *Editor) writeString(id string, strPos uint32) bool {
	buf, resized := fbutil.SetString(e.schema, e.table, e.buf, strPos, e.drafts[id])
	e.buf = buf
	e.modified = true
	return resized
}

func (e *Editor) visitStruct(ui gui.UI, mode VisitMode, name string, obj *reflection.Object, pos uint32, id string) {
	data := fbutil.StructBytes(e.buf, pos, obj)
	fv := fieldView{
		name:  name,
		value: FormatStruct(e.schema, obj, data),
		typ:   obj.Name,
		id:    id,
		validate: func(t string) error {
			return ParseStruct(e.schema, obj, t, nil)
		},
	}
	if e.ShowTypes {
		fv.comment = FormatStructFieldNames(e.schema, obj)
	}
	if e.visitField(ui, mode, fv) {
		if err := ParseStruct(e.schema, obj, e.drafts[id], data); err != nil {
			log.Printf("editor: struct %s: %v", id, err)
			return
		}
		e.modified = true
	}
}

// visitSubtable walks a nested table. Collapsed tables are drawn as "..."
// but still walked by the check and commit passes.
func (e *Editor) visitSubtable(ui gui.UI, mode VisitMode, name, typ string, obj *reflection.Object, pos uint32, id string) bool {
	open := mode == CommitEdits || mode == CheckEdits || e.ExpandAll || e.Expanded(id)
	if !open {
		if mode.draw() {
			ui.StartGroup(gui.HorizontalTop, e.UISpacing, id+"-field")
			if ui.CheckEvent()&gui.EventWentDown != 0 {
				e.expanded[id] = struct{}{}
			}
			ui.StartGroup(gui.HorizontalTop, e.UISpacing, id+"-fieldName")
			ui.Label(e.fieldName(name, typ), e.UISize)
			ui.EndGroup()
			ui.StartGroup(gui.VerticalLeft, e.UISpacing, id+"-nestedTable")
			ui.Label("...", e.UISize)
			ui.EndGroup()
			ui.EndGroup()
		}
		return false
	}
	if mode.draw() {
		ui.StartGroup(gui.HorizontalTop, e.UISpacing, id+"-field")
		ui.StartGroup(gui.VerticalLeft, e.UISpacing, id+"-fieldName")
		ev := ui.CheckEvent()
		ui.Label(e.fieldName(name, typ), e.UISize)
		if ev&gui.EventWentDown != 0 && !e.ExpandAll {
			delete(e.expanded, id)
		}
		ui.EndGroup()
		ui.StartGroup(gui.VerticalLeft, e.UISpacing, id+"-nestedTable")
	}
	resized := e.visitTable(ui, mode, obj, pos, id)
	if mode.draw() {
		ui.EndGroup()
		ui.EndGroup()
	}
	return resized
}

func (e *Editor) visitUnion(ui gui.UI, mode VisitMode, obj *reflection.Object, f *reflection.Field, pos uint32, id string) bool {
	u, err := fbutil.UnionObject(e.schema, obj, f, e.buf, pos)
	if err != nil {
		e.note(ui, mode, f.Name, "(unknown union type)", id)
		return false
	}
	if u == nil {
		return false
	}
	return e.visitSubtable(ui, mode, f.Name, u.Name, u, fbutil.RefPos(e.buf, pos, f), id)
}

func validVectorSize(t string) error {
	n, err := strconv.Atoi(strings.TrimSpace(t))
	if err != nil || n < 0 || n > maxVectorLen {
		return xerrors.Errorf("vector size %q: %w", t, fbutil.ErrBadScalar)
	}
	return nil
}

func elemID(id string, i int) string {
	return id + "[" + strconv.Itoa(i) + "]"
}

func (e *Editor) visitVector(ui gui.UI, mode VisitMode, f *reflection.Field, vec uint32, id string) bool {
	t := f.Type
	if t.Element == reflection.Union || t.Element == reflection.Vector || t.Element == reflection.Array {
		e.note(ui, mode, f.Name, "(unsupported vector of "+t.Element.String()+")", id)
		return false
	}
	n := fbutil.VectorLen(e.buf, vec)
	elemSize := e.schema.InlineSize(t.Element, t.Index)

	sizeID := id + ".size"
	sizeMode := mode
	if mode == DrawEditAuto {
		// Resizing reflows everything after the vector, so it never happens
		// on blur.
		sizeMode = DrawEditManual
	}
	if mode.draw() {
		ui.StartGroup(gui.HorizontalCenter, 8, sizeID+"-commit")
	}
	commit := e.visitField(ui, sizeMode, fieldView{
		name:     f.Name + ".size",
		value:    strconv.Itoa(n),
		typ:      "size",
		id:       sizeID,
		readOnly: !e.AllowResize,
		validate: validVectorSize,
	})
	if mode.draw() {
		ui.EndGroup()
	}
	if commit {
		return e.resizeVector(sizeID, t, vec, elemSize)
	}

	switch {
	case t.Element == reflection.String:
		for i := 0; i < n; i++ {
			strPos := fbutil.Deref(e.buf, fbutil.VectorElem(vec, i, 4))
			if e.visitString(ui, mode, f.Name+"["+strconv.Itoa(i)+"]", strPos, elemID(id, i)) {
				return true
			}
		}
	case t.Element == reflection.Obj:
		sub := e.schema.Object(t.Index)
		for i := 0; i < n; i++ {
			name := f.Name + "[" + strconv.Itoa(i) + "]"
			if sub.IsStruct {
				e.visitStruct(ui, mode, name, sub, fbutil.VectorElem(vec, i, elemSize), elemID(id, i))
				continue
			}
			ref := fbutil.Deref(e.buf, fbutil.VectorElem(vec, i, 4))
			if e.visitSubtable(ui, mode, name, sub.Name, sub, ref, elemID(id, i)) {
				return true
			}
		}
	case t.Element.IsScalar():
		for i := 0; i < n; i++ {
			p := fbutil.VectorElem(vec, i, elemSize)
			fv := e.scalarView(f.Name+"["+strconv.Itoa(i)+"]", t.Element, t.Index,
				fbutil.FormatScalar(e.buf, t.Element, p), elemID(id, i))
			if e.visitField(ui, mode, fv) {
				e.writeScalar(fv.id, t.Element, t.Index, p)
			}
		}
	}
	return false
}

// resizeVector applies a committed size draft. Vectors of strings and tables
// are rebuilt afterwards so new slots hold empty values instead of zero
// offsets.
func (e *Editor) resizeVector(sizeID string, t reflection.Type, vec uint32, elemSize int) bool {
	n, _ := strconv.Atoi(strings.TrimSpace(e.drafts[sizeID]))
	if n == fbutil.VectorLen(e.buf, vec) {
		return false
	}
	e.buf = fbutil.ResizeVector(e.schema, e.table, e.buf, vec, n, elemSize)
	e.forgetElements(strings.TrimSuffix(sizeID, ".size"), n)
	if t.Element == reflection.String || (t.Element == reflection.Obj && !e.schema.IsStructType(t.Element, t.Index)) {
		buf, err := fbutil.CopyTable(e.schema, e.table, e.buf)
		if err != nil {
			log.Printf("editor: rebuild after resizing %s: %v", sizeID, err)
		} else {
			e.buf = buf
		}
	}
	e.modified = true
	return true
}

// forgetElements drops the edit state of elements at index n and beyond of
// the vector id, so a later growth starts them from the buffer again.
func (e *Editor) forgetElements(id string, n int) {
	prefix := id + "["
	stale := func(key string) bool {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			return false
		}
		idx, _, ok := strings.Cut(rest, "]")
		if !ok {
			return false
		}
		i, err := strconv.Atoi(idx)
		return err == nil && i >= n
	}
	maps.DeleteFunc(e.drafts, func(k string, _ string) bool { return stale(k) })
	for _, m := range []map[string]struct{}{e.errored, e.committed, e.expanded} {
		maps.DeleteFunc(m, func(k string, _ struct{}) bool { return stale(k) })
	}
}
