package rlgui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scenelab/internal/gui"
)

func TestGroupLayout(t *testing.T) {
	row := &group{layout: gui.HorizontalTop, spacing: 4, margin: gui.Uniform(2), x: 10, y: 20}

	p := row.next()
	assert.Equal(t, float32(12), p.X)
	assert.Equal(t, float32(22), p.Y)
	row.advance(30, 10)

	p = row.next()
	assert.Equal(t, float32(46), p.X, "second child sits after the spacing")
	row.advance(20, 16)

	w, h := row.size()
	assert.Equal(t, float32(2+30+4+20+2), w)
	assert.Equal(t, float32(2+16+2), h)
}

func TestVerticalGroupLayout(t *testing.T) {
	col := &group{layout: gui.VerticalLeft, spacing: 3}
	col.advance(50, 10)
	col.advance(80, 12)
	p := col.next()
	assert.Equal(t, float32(0), p.X)
	assert.Equal(t, float32(10+3+12+3), p.Y)

	w, h := col.size()
	assert.Equal(t, float32(80), w)
	assert.Equal(t, float32(25), h)
}
