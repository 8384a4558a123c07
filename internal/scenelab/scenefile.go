package scenelab

import (
	"encoding/base64"
	"log"
	"os"
	"slices"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"scenelab/internal/entity"
	"scenelab/internal/fbutil"
	"scenelab/internal/reflection"
)

// SceneFile is the YAML form of a scene. Component payloads are the
// serialized tables, base64 encoded.
type SceneFile struct {
	Name     string      `yaml:"name"`
	Schema   string      `yaml:"schema,omitempty"`
	Entities []EntityDef `yaml:"entities"`
}

type EntityDef struct {
	UID        uint64            `yaml:"uid"`
	Name       string            `yaml:"name"`
	Prototype  string            `yaml:"prototype,omitempty"`
	Tags       []string          `yaml:"tags,omitempty"`
	Parent     uint64            `yaml:"parent,omitempty"`
	Components map[string]string `yaml:"components,omitempty"`
}

// LoadScene reads a scene file. Components of tables the schema does not
// declare are skipped with a log line; payloads that fail verification are
// errors.
func LoadScene(path string, s *reflection.Schema) (*entity.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("read scene: %w", err)
	}
	var sf SceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, xerrors.Errorf("parse scene: %w", err)
	}

	scene := entity.NewScene(sf.Name)
	parents := make(map[*entity.Entity]uint64)
	for _, def := range sf.Entities {
		e := &entity.Entity{
			UID:       def.UID,
			Name:      def.Name,
			Prototype: def.Prototype,
			Tags:      def.Tags,
		}
		for _, name := range sortedNames(def.Components) {
			table, ok := s.ObjectByName(name)
			if !ok || table.IsStruct {
				log.Printf("scene %s: %s has unknown component %s, skipped", path, def.Name, name)
				continue
			}
			payload, err := base64.StdEncoding.DecodeString(def.Components[name])
			if err != nil {
				return nil, xerrors.Errorf("scene %s: %s.%s: %w", path, def.Name, name, err)
			}
			if err := fbutil.Verify(s, table, payload); err != nil {
				return nil, xerrors.Errorf("scene %s: %s.%s: %w", path, def.Name, name, err)
			}
			e.SetComponent(name, payload)
		}
		scene.Add(e)
		if def.Parent != 0 {
			parents[e] = def.Parent
		}
	}
	for e, uid := range parents {
		if p := scene.FindByUID(uid); p != nil {
			p.AddChild(e)
		}
	}
	return scene, nil
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SaveScene writes scene to path. schemaPath is recorded so the file can be
// reopened against the same schema.
func SaveScene(path string, scene *entity.Scene, schemaPath string) error {
	sf := SceneFile{Name: scene.Name, Schema: schemaPath}
	for _, e := range scene.Entities {
		def := EntityDef{
			UID:       e.UID,
			Name:      e.Name,
			Prototype: e.Prototype,
			Tags:      e.Tags,
		}
		if e.Parent != nil {
			def.Parent = e.Parent.UID
		}
		for _, name := range e.ComponentNames() {
			if def.Components == nil {
				def.Components = make(map[string]string)
			}
			def.Components[name] = base64.StdEncoding.EncodeToString(e.Component(name))
		}
		sf.Entities = append(sf.Entities, def)
	}

	data, err := yaml.Marshal(&sf)
	if err != nil {
		return xerrors.Errorf("marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return xerrors.Errorf("write scene: %w", err)
	}
	return nil
}
