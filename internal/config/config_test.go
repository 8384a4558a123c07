package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Editor.AutoCommit)
	assert.Equal(t, float32(20), cfg.Editor.UISize)
	assert.Equal(t, 50, cfg.UndoLimit)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenelab.yaml")
	text := `
schema: game.bfbs
undo_limit: -3
window:
  width: 640
editor:
  auto_commit: false
  ui_size: 16
  palette:
    text_error: {r: 1, g: 2, b: 3, a: 255}
`
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, "game.bfbs", cfg.Schema)
	assert.Equal(t, def.UndoLimit, cfg.UndoLimit)
	assert.Equal(t, int32(640), cfg.Window.Width)
	assert.Equal(t, def.Window.Height, cfg.Window.Height)
	assert.False(t, cfg.Editor.AutoCommit)
	assert.True(t, cfg.Editor.AllowResize)
	assert.Equal(t, float32(16), cfg.Editor.UISize)
	assert.Equal(t, uint8(3), cfg.Editor.Palette.TextError.B)
	assert.Equal(t, def.Editor.Palette.TextNormal, cfg.Editor.Palette.TextNormal)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [1, 2"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Editor.ShowTypes = true
	cfg.Window.Title = "Other"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	assert.Nil(t, LoadPrefs(path))

	SavePrefs(path, Prefs{WindowWidth: 800, WindowHeight: 600, PanelWidth: 300, ScenePath: "a.scene.yaml", ShowTypes: true})
	p := LoadPrefs(path)
	require.NotNil(t, p)

	cfg := Default()
	p.Apply(&cfg)
	assert.Equal(t, int32(800), cfg.Window.Width)
	assert.Equal(t, int32(300), cfg.Window.PanelWidth)
	assert.Equal(t, Default().Window.ListWidth, cfg.Window.ListWidth)
	assert.Equal(t, "a.scene.yaml", cfg.Scene)
	assert.True(t, cfg.Editor.ShowTypes)

	var none *Prefs
	none.Apply(&cfg)
}
