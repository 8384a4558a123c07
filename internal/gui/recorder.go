package gui

import (
	"fmt"
	"image/color"
	"strings"
)

type OpKind int

const (
	OpGroup OpKind = iota
	OpLabel
	OpEdit
	OpBackground
)

// Op is one widget call captured by a Recorder.
type Op struct {
	Kind  OpKind
	ID    string
	Text  string
	Color color.RGBA
	Depth int
}

// Recorder implements UI without a window. It captures every widget drawn
// in a frame and lets callers script typing and clicks.
type Recorder struct {
	Ops []Op

	textColor color.RGBA
	groups    []string
	typed     map[string]string
	clicks    map[string]bool
	focus     string
}

func NewRecorder() *Recorder {
	return &Recorder{
		typed:     make(map[string]string),
		clicks:    make(map[string]bool),
		textColor: color.RGBA{255, 255, 255, 255},
	}
}

// Frame starts a new frame, dropping the ops of the previous one.
func (r *Recorder) Frame() {
	r.Ops = r.Ops[:0]
	r.groups = r.groups[:0]
}

// Type makes the next Edit call with this id replace its text and report
// focus for that frame.
func (r *Recorder) Type(editID, text string) {
	r.typed[editID] = text
}

// Focus keeps the edit with this id focused on every frame until Blur.
func (r *Recorder) Focus(editID string) { r.focus = editID }
func (r *Recorder) Blur()               { r.focus = "" }

// Click makes the next CheckEvent inside the group with this id report a
// complete press and release.
func (r *Recorder) Click(groupID string) {
	r.clicks[groupID] = true
}

func (r *Recorder) StartGroup(layout Layout, spacing float32, id string) {
	r.Ops = append(r.Ops, Op{Kind: OpGroup, ID: id, Depth: len(r.groups)})
	r.groups = append(r.groups, id)
}

func (r *Recorder) EndGroup() {
	if len(r.groups) == 0 {
		panic("gui: EndGroup without StartGroup")
	}
	r.groups = r.groups[:len(r.groups)-1]
}

func (r *Recorder) SetMargin(Margin) {}

func (r *Recorder) CheckEvent() Event {
	if len(r.groups) == 0 {
		return EventNone
	}
	id := r.groups[len(r.groups)-1]
	if r.clicks[id] {
		delete(r.clicks, id)
		return EventWentDown | EventWentUp | EventHover
	}
	return EventNone
}

func (r *Recorder) ColorBackground(c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpBackground, Color: c, Depth: len(r.groups)})
}

func (r *Recorder) SetTextColor(c color.RGBA) {
	r.textColor = c
}

func (r *Recorder) Label(text string, size float32) {
	r.Ops = append(r.Ops, Op{Kind: OpLabel, Text: text, Color: r.textColor, Depth: len(r.groups)})
}

func (r *Recorder) Edit(size, minWidth float32, id string, text *string) bool {
	focused := r.focus == id
	if t, ok := r.typed[id]; ok {
		*text = t
		delete(r.typed, id)
		focused = true
	}
	r.Ops = append(r.Ops, Op{Kind: OpEdit, ID: id, Text: *text, Color: r.textColor, Depth: len(r.groups)})
	return focused
}

// Labels returns the text of every label drawn this frame.
func (r *Recorder) Labels() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == OpLabel {
			out = append(out, op.Text)
		}
	}
	return out
}

// Find returns the first group or edit op with the given id.
func (r *Recorder) Find(id string) (Op, bool) {
	for _, op := range r.Ops {
		if op.ID == id && (op.Kind == OpGroup || op.Kind == OpEdit) {
			return op, true
		}
	}
	return Op{}, false
}

// String renders the frame as an indented outline.
func (r *Recorder) String() string {
	var sb strings.Builder
	for _, op := range r.Ops {
		indent := strings.Repeat("  ", op.Depth)
		switch op.Kind {
		case OpGroup:
			fmt.Fprintf(&sb, "%s[%s]\n", indent, op.ID)
		case OpLabel:
			fmt.Fprintf(&sb, "%s%s\n", indent, op.Text)
		case OpEdit:
			fmt.Fprintf(&sb, "%s<%s> %q\n", indent, op.ID, op.Text)
		}
	}
	return sb.String()
}
