package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	"scenelab/internal/config"
	"scenelab/internal/entity"
	"scenelab/internal/gui"
	"scenelab/internal/reflection"
	"scenelab/internal/scenelab"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	scenePath := flag.String("scene", "", "scene file to open (overrides the configuration)")
	dump := flag.Bool("dump", false, "print the editor controls for the first entity and exit")
	flag.Parse()

	*configPath = absPath(*configPath)
	*scenePath = absPath(*scenePath)

	// Change working directory to executable location for deployed builds.
	// Skip this for "go run" which puts the binary in a temp directory.
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		if !strings.Contains(execDir, "go-build") {
			os.Chdir(execDir)
		}
	}

	_, statErr := os.Stat(*configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if xerrors.Is(statErr, fs.ErrNotExist) {
		if err := cfg.Save(*configPath); err != nil {
			log.Printf("Failed to write default config: %v", err)
		} else {
			log.Printf("Wrote default config to %s", *configPath)
		}
	}
	prefs := config.LoadPrefs(cfg.PrefsPath)
	prefs.Apply(&cfg)
	if *scenePath != "" {
		cfg.Scene = *scenePath
	}

	schema, err := loadSchema(cfg.Schema)
	if err != nil {
		log.Fatal(err)
	}
	scene, err := loadScene(cfg.Scene, cfg.Schema, schema)
	if err != nil {
		log.Fatal(err)
	}

	panel := scenelab.NewPanel(schema, scenelab.ComponentTables(schema), scene, cfg.Editor, cfg.UndoLimit)
	if prefs != nil {
		if e := scene.FindByUID(prefs.SelectedUID); e != nil {
			panel.Select(e)
		}
	}
	if panel.Selected() == nil && len(scene.Entities) > 0 {
		panel.Select(scene.Entities[0])
	}

	if *dump {
		r := gui.NewRecorder()
		panel.Draw(r)
		fmt.Print(r.String())
		return
	}
	scenelab.NewApp(cfg, panel).Run()
}

func absPath(p string) string {
	if p == "" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func loadSchema(path string) (*reflection.Schema, error) {
	if path == "" {
		return scenelab.DemoSchema(), nil
	}
	s, err := reflection.LoadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("load schema: %w", err)
	}
	log.Printf("Loaded schema %s (%d objects)", path, len(s.Objects))
	return s, nil
}

// loadScene opens path, or starts a new scene when it does not exist yet.
// The demo schema starts with the demo entities.
func loadScene(path, schemaPath string, s *reflection.Schema) (*entity.Scene, error) {
	scene, err := scenelab.LoadScene(path, s)
	switch {
	case err == nil:
		log.Printf("Loaded scene %s (%d entities)", path, len(scene.Entities))
		return scene, nil
	case !xerrors.Is(err, fs.ErrNotExist):
		return nil, err
	case schemaPath == "":
		return scenelab.DemoScene(s)
	}
	return entity.NewScene(strings.TrimSuffix(filepath.Base(path), ".scene.yaml")), nil
}
