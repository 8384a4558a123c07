package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Prefs is the window state saved between sessions.
type Prefs struct {
	WindowWidth  int32  `yaml:"window_width"`
	WindowHeight int32  `yaml:"window_height"`
	WindowX      int32  `yaml:"window_x"`
	WindowY      int32  `yaml:"window_y"`
	ListWidth    int32  `yaml:"list_width"`
	PanelWidth   int32  `yaml:"panel_width"`
	ScenePath    string `yaml:"scene_path"`
	SelectedUID  uint64 `yaml:"selected_uid"`
	ExpandAll    bool   `yaml:"expand_all"`
	ShowTypes    bool   `yaml:"show_types"`
}

// LoadPrefs returns nil when there is nothing usable at path.
func LoadPrefs(path string) *Prefs {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var p Prefs
	if err := yaml.Unmarshal(data, &p); err != nil {
		log.Printf("Failed to parse prefs %s: %v", path, err)
		return nil
	}
	return &p
}

func SavePrefs(path string, p Prefs) {
	data, err := yaml.Marshal(p)
	if err != nil {
		log.Printf("Failed to marshal prefs: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Failed to save prefs: %v", err)
	}
}

// Apply copies the saved sizes and toggles over cfg.
func (p *Prefs) Apply(cfg *Config) {
	if p == nil {
		return
	}
	if p.WindowWidth > 0 && p.WindowHeight > 0 {
		cfg.Window.Width = p.WindowWidth
		cfg.Window.Height = p.WindowHeight
	}
	if p.ListWidth > 0 {
		cfg.Window.ListWidth = p.ListWidth
	}
	if p.PanelWidth > 0 {
		cfg.Window.PanelWidth = p.PanelWidth
	}
	if p.ScenePath != "" {
		cfg.Scene = p.ScenePath
	}
	cfg.Editor.ExpandAll = p.ExpandAll
	cfg.Editor.ShowTypes = p.ShowTypes
}
