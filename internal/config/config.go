// Package config loads the Scene Lab configuration file and the window
// preferences saved between sessions.
package config

import (
	"io/fs"
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"scenelab/internal/editor"
)

const DefaultPath = "scenelab.yaml"

type Window struct {
	Title      string `yaml:"title"`
	Width      int32  `yaml:"width"`
	Height     int32  `yaml:"height"`
	TargetFPS  int32  `yaml:"target_fps"`
	ListWidth  int32  `yaml:"list_width"`
	PanelWidth int32  `yaml:"panel_width"`
	FontDir    string `yaml:"font_dir"`
}

type Config struct {
	// Schema is a binary schema (.bfbs) file. Empty uses the built-in demo
	// schema.
	Schema string `yaml:"schema"`
	// Scene is the scene file opened at startup and written by save.
	Scene     string        `yaml:"scene"`
	UndoLimit int           `yaml:"undo_limit"`
	PrefsPath string        `yaml:"prefs_path"`
	Window    Window        `yaml:"window"`
	Editor    editor.Config `yaml:"editor"`
}

func Default() Config {
	return Config{
		Scene:     "demo.scene.yaml",
		UndoLimit: 50,
		PrefsPath: ".scenelab_prefs.yaml",
		Window: Window{
			Title:      "Scene Lab",
			Width:      1280,
			Height:     800,
			TargetFPS:  60,
			ListWidth:  220,
			PanelWidth: 520,
			FontDir:    "assets/fonts",
		},
		Editor: editor.DefaultConfig(),
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if xerrors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, xerrors.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), xerrors.Errorf("parse config %s: %w", path, err)
	}
	if cfg.UndoLimit <= 0 {
		cfg.UndoLimit = Default().UndoLimit
	}
	return cfg, nil
}

func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return xerrors.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return xerrors.Errorf("write config: %w", err)
	}
	return nil
}
