package gui

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderTextButton(t *testing.T) {
	r := NewRecorder()
	p := DefaultPalette()

	ev := TextButton(r, "[ok]", 20, "ok", p.BgButton, p.BgButtonHover, p.BgButtonClick)
	assert.Equal(t, EventNone, ev)
	assert.Equal(t, []string{"[ok]"}, r.Labels())

	r.Frame()
	r.Click("ok")
	ev = TextButton(r, "[ok]", 20, "ok", p.BgButton, p.BgButtonHover, p.BgButtonClick)
	assert.NotZero(t, ev&EventWentUp)

	r.Frame()
	ev = TextButton(r, "[ok]", 20, "ok", p.BgButton, p.BgButtonHover, p.BgButtonClick)
	assert.Equal(t, EventNone, ev, "clicks fire once")
}

func TestRecorderEdit(t *testing.T) {
	r := NewRecorder()
	text := "a"

	assert.False(t, r.Edit(20, 10, "e", &text))
	r.Type("e", "b")
	assert.True(t, r.Edit(20, 10, "e", &text))
	assert.Equal(t, "b", text)
	assert.False(t, r.Edit(20, 10, "e", &text))

	r.Focus("e")
	assert.True(t, r.Edit(20, 10, "e", &text))
	r.Blur()
	assert.False(t, r.Edit(20, 10, "e", &text))
}

func TestRecorderOutline(t *testing.T) {
	r := NewRecorder()
	r.StartGroup(VerticalLeft, 4, "root")
	r.SetTextColor(color.RGBA{1, 2, 3, 255})
	r.Label("hello", 20)
	s := "v"
	r.Edit(20, 10, "root.v-edit", &s)
	r.EndGroup()

	op, ok := r.Find("root.v-edit")
	require.True(t, ok)
	assert.Equal(t, 1, op.Depth)
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, op.Color)
	assert.Equal(t, "[root]\n  hello\n  <root.v-edit> \"v\"\n", r.String())

	assert.Panics(t, r.EndGroup)
}
