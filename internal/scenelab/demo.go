package scenelab

import (
	"golang.org/x/xerrors"

	"scenelab/internal/entity"
	"scenelab/internal/fbutil"
	"scenelab/internal/reflection"
)

// DemoSchema is the component schema used when no .bfbs file is configured.
func DemoSchema() *reflection.Schema {
	s := &reflection.Schema{FileExt: "scene"}
	vec3 := s.AddStruct("Vec3",
		reflection.ScalarField("x", reflection.Float),
		reflection.ScalarField("y", reflection.Float),
		reflection.ScalarField("z", reflection.Float),
	)
	layers := s.AddEnum("Layers", reflection.UByte,
		&reflection.EnumVal{Name: "Ground", Value: 1},
		&reflection.EnumVal{Name: "Water", Value: 2},
		&reflection.EnumVal{Name: "Air", Value: 4},
		&reflection.EnumVal{Name: "Underground", Value: 8},
	)
	team := s.AddEnum("Team", reflection.Byte,
		&reflection.EnumVal{Name: "Neutral", Value: 0},
		&reflection.EnumVal{Name: "Red", Value: 1},
		&reflection.EnumVal{Name: "Blue", Value: 2},
	)
	item := s.AddTable("Item",
		reflection.StringField("name"),
		reflection.ScalarField("count", reflection.UShort),
	)
	weapon := s.AddTable("Weapon",
		reflection.ScalarField("damage", reflection.Short),
		reflection.ScalarField("range", reflection.Float),
	)
	shield := s.AddTable("Shield", reflection.ScalarField("defense", reflection.Int))
	equipment := s.AddUnion("Equipment", weapon, shield)

	s.AddTable("Transform",
		s.ObjectField("position", vec3),
		s.ObjectField("rotation", vec3),
		s.ObjectField("scale", vec3),
	)
	health := s.AddTable("Health",
		reflection.ScalarField("hp", reflection.Int),
		reflection.ScalarField("max_hp", reflection.Int),
		reflection.ScalarField("regen", reflection.Float),
	)
	health.Fields[0].DefaultInteger = 100
	health.Fields[1].DefaultInteger = 100
	s.AddTable("Tag",
		reflection.StringField("label"),
		s.EnumField("team", team),
		s.EnumField("layers", layers),
	)
	s.AddTable("Inventory",
		reflection.ScalarField("gold", reflection.UInt),
		s.ObjectVectorField("items", item),
		reflection.VectorField("notes", reflection.String),
	)
	sel, val := s.UnionFields("equipment", equipment)
	s.AddTable("Loadout", sel, val, reflection.VectorField("slots", reflection.UByte))
	return s
}

var demoEntities = []struct {
	name       string
	components map[string]map[string]any
}{
	{"Player", map[string]map[string]any{
		"Transform": {
			"position": map[string]any{"x": 0, "y": 1.5, "z": 0},
			"rotation": map[string]any{"x": 0, "y": 90, "z": 0},
			"scale":    map[string]any{"x": 1, "y": 1, "z": 1},
		},
		"Health": {"hp": 80, "max_hp": 100, "regen": 0.5},
		"Tag":    {"label": "hero", "team": 1, "layers": 5},
		"Inventory": {
			"gold":  120,
			"items": []any{map[string]any{"name": "potion", "count": 3}, map[string]any{"name": "key", "count": 1}},
			"notes": []any{"found the cellar"},
		},
		"Loadout": {
			"equipment_type": 1,
			"equipment":      map[string]any{"damage": 12, "range": 1.5},
			"slots":          []any{1, 0, 2},
		},
	}},
	{"Crate", map[string]map[string]any{
		"Transform": {
			"position": map[string]any{"x": 4, "y": 0.5, "z": -2},
			"rotation": map[string]any{"x": 0, "y": 0, "z": 0},
			"scale":    map[string]any{"x": 1, "y": 1, "z": 1},
		},
		"Inventory": {"gold": 5},
	}},
	{"Camera", map[string]map[string]any{
		"Transform": {
			"position": map[string]any{"x": 0, "y": 10, "z": 10},
			"rotation": map[string]any{"x": -45, "y": 0, "z": 0},
			"scale":    map[string]any{"x": 1, "y": 1, "z": 1},
		},
	}},
}

// DemoScene builds a small scene whose components follow DemoSchema.
func DemoScene(s *reflection.Schema) (*entity.Scene, error) {
	scene := entity.NewScene("demo")
	for _, def := range demoEntities {
		e := entity.New(scene.UniqueName(def.name))
		for name, v := range def.components {
			table, ok := s.ObjectByName(name)
			if !ok {
				return nil, xerrors.Errorf("demo component %s: %w", name, reflection.ErrNoObject)
			}
			data, err := fbutil.Encode(s, table, v)
			if err != nil {
				return nil, xerrors.Errorf("demo %s.%s: %w", def.name, name, err)
			}
			e.SetComponent(name, data)
		}
		scene.Add(e)
	}
	return scene, nil
}

// ComponentTables returns the tables no field refers to, in declaration
// order. Those are the tables an entity can carry directly.
func ComponentTables(s *reflection.Schema) []*reflection.Object {
	referenced := make(map[int32]bool)
	for _, o := range s.Objects {
		for _, f := range o.Fields {
			t := f.Type
			if t.BaseType == reflection.Obj || (t.BaseType == reflection.Vector && t.Element == reflection.Obj) {
				referenced[t.Index] = true
			}
		}
	}
	for _, e := range s.Enums {
		if !e.IsUnion {
			continue
		}
		for _, v := range e.Values {
			if v.UnionType != nil && v.UnionType.BaseType == reflection.Obj {
				referenced[v.UnionType.Index] = true
			}
		}
	}
	var out []*reflection.Object
	for i, o := range s.Objects {
		if !o.IsStruct && !referenced[int32(i)] {
			out = append(out, o)
		}
	}
	return out
}
