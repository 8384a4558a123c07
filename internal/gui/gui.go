// Package gui is the small immediate-mode widget contract the editor draws
// through. Widgets are identified by string ids; groups lay their children
// out horizontally or vertically. The raylib implementation lives in
// gui/rlgui; Recorder is a headless implementation.
package gui

import "image/color"

type Layout int

const (
	HorizontalTop Layout = iota
	HorizontalCenter
	HorizontalBottom
	VerticalLeft
	VerticalCenter
	VerticalRight
)

func (l Layout) Horizontal() bool {
	return l <= HorizontalBottom
}

// Event is a bit set describing pointer activity over the current group.
type Event int

const (
	EventNone     Event = 0
	EventWentUp   Event = 1 << 0
	EventWentDown Event = 1 << 1
	EventIsDown   Event = 1 << 2
	EventHover    Event = 1 << 3
)

type Margin struct {
	Left, Top, Right, Bottom float32
}

func Uniform(m float32) Margin {
	return Margin{m, m, m, m}
}

type UI interface {
	// StartGroup opens a layout group. Groups nest and must be closed with
	// EndGroup.
	StartGroup(layout Layout, spacing float32, id string)
	EndGroup()
	// SetMargin sets the inner margin of the current group.
	SetMargin(m Margin)
	// CheckEvent reports pointer events over the current group.
	CheckEvent() Event
	// ColorBackground fills the current group's background.
	ColorBackground(c color.RGBA)
	SetTextColor(c color.RGBA)
	Label(text string, size float32)
	// Edit draws a single-line text field bound to *text. It returns true
	// while the field holds keyboard focus.
	Edit(size, minWidth float32, id string, text *string) bool
}

// TextButton draws a label that behaves as a button and returns the events
// over it.
func TextButton(ui UI, text string, size float32, id string, bg, hover, click color.RGBA) Event {
	ui.StartGroup(HorizontalCenter, 0, id)
	ui.SetMargin(Uniform(2))
	ev := ui.CheckEvent()
	switch {
	case ev&EventIsDown != 0:
		ui.ColorBackground(click)
	case ev&EventHover != 0:
		ui.ColorBackground(hover)
	default:
		ui.ColorBackground(bg)
	}
	ui.Label(text, size)
	ui.EndGroup()
	return ev
}
