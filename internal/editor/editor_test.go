package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"scenelab/internal/fbutil"
	"scenelab/internal/reflection"
)

// recordSchema is the { name, count: uint32, tags: [string] } table.
func recordSchema() (*reflection.Schema, *reflection.Object) {
	s := &reflection.Schema{}
	root := s.AddTable("Record",
		reflection.StringField("name"),
		reflection.ScalarField("count", reflection.UInt),
		reflection.VectorField("tags", reflection.String),
	)
	s.RootTable = root
	return s, root
}

// entitySchema covers every field kind the editor walks.
func entitySchema() (*reflection.Schema, *reflection.Object) {
	s := &reflection.Schema{}
	vec3 := s.AddStruct("Vec3",
		reflection.ScalarField("x", reflection.Float),
		reflection.ScalarField("y", reflection.Float),
		reflection.ScalarField("z", reflection.Float),
	)
	item := s.AddTable("Item",
		reflection.StringField("name"),
		reflection.ScalarField("count", reflection.UShort),
	)
	weapon := s.AddTable("Weapon", reflection.ScalarField("damage", reflection.Short))
	armor := s.AddTable("Armor", reflection.ScalarField("defense", reflection.Int))
	gear := s.AddUnion("Gear", weapon, armor)
	layers := s.AddEnum("Layers", reflection.UByte,
		&reflection.EnumVal{Name: "Ground", Value: 1},
		&reflection.EnumVal{Name: "Water", Value: 2},
		&reflection.EnumVal{Name: "Air", Value: 4},
	)
	sel, val := s.UnionFields("gear", gear)
	root := s.AddTable("Entity",
		reflection.StringField("name"),
		reflection.ScalarField("hp", reflection.Int),
		s.ObjectField("pos", vec3),
		reflection.VectorField("scores", reflection.Int),
		s.ObjectVectorField("path", vec3),
		s.ObjectVectorField("items", item),
		s.ObjectField("child", item),
		sel,
		val,
		s.EnumField("layers", layers),
		reflection.StringField("note"),
	)
	root.Fields[1].DefaultInteger = 100
	s.RootTable = root
	return s, root
}

func entityData() map[string]any {
	return map[string]any{
		"name":   "hero",
		"hp":     42,
		"pos":    map[string]any{"x": 1, "y": 2, "z": 3},
		"scores": []any{7, 8},
		"path":   []any{map[string]any{"x": 1, "y": 1, "z": 1}},
		"items": []any{
			map[string]any{"name": "potion", "count": 3},
		},
		"child":     map[string]any{"name": "pet", "count": 1},
		"gear_type": 1,
		"gear":      map[string]any{"damage": 9},
		"layers":    5,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RootID = "t"
	return cfg
}

func newEditor(t *testing.T, s *reflection.Schema, root *reflection.Object, data map[string]any, cfg Config) *Editor {
	t.Helper()
	buf, err := fbutil.Encode(s, root, data)
	require.NoError(t, err)
	e, err := New(s, root, buf, cfg)
	require.NoError(t, err)
	return e
}

func contents(t *testing.T, e *Editor) map[string]any {
	t.Helper()
	require.NoError(t, fbutil.Verify(e.Schema(), e.Table(), e.Buffer()))
	buf, ok := e.FlatbufferCopy()
	require.True(t, ok)
	require.NoError(t, fbutil.Verify(e.Schema(), e.Table(), buf))
	v, err := fbutil.Decode(e.Schema(), e.Table(), buf)
	require.NoError(t, err)
	return v
}

func TestCopyMatchesSource(t *testing.T) {
	s, root := entitySchema()
	src, err := fbutil.Encode(s, root, entityData())
	require.NoError(t, err)
	want, err := fbutil.Decode(s, root, src)
	require.NoError(t, err)

	e, err := New(s, root, src, testConfig())
	require.NoError(t, err)
	assert.Equal(t, want, contents(t, e))
	assert.False(t, e.FlatbufferModified())

	str, ok := e.FlatbufferString()
	require.True(t, ok)
	b, _ := e.FlatbufferCopy()
	assert.Equal(t, string(b), str)

	prefix := []byte("hdr")
	out, ok := e.AppendFlatbuffer(prefix)
	require.True(t, ok)
	assert.Equal(t, "hdr", string(out[:3]))
	assert.Equal(t, b, out[3:])
}

func TestEmptyEditor(t *testing.T) {
	s, root := recordSchema()
	e, err := New(s, root, nil, testConfig())
	require.NoError(t, err)
	assert.False(t, e.HasFlatbufferData())
	_, ok := e.FlatbufferCopy()
	assert.False(t, ok)
	assert.False(t, e.Visit(nil, CommitEdits))
	e.CommitEdits()
	assert.False(t, e.FlatbufferModified())
}

func TestRejectsMalformedSource(t *testing.T) {
	s, root := recordSchema()
	_, err := New(s, root, []byte{1, 2, 3}, testConfig())
	assert.True(t, xerrors.Is(err, fbutil.ErrTruncated))

	e := newEditor(t, s, root, map[string]any{"name": "a"}, testConfig())
	bad := []byte{0xff, 0xff, 0, 0, 0, 0, 0, 0}
	assert.Error(t, e.SetFlatbufferData(bad))
	assert.False(t, e.HasFlatbufferData())
}

func TestDefaultRootIDsAreUnique(t *testing.T) {
	s, root := recordSchema()
	a, err := New(s, root, nil, DefaultConfig())
	require.NoError(t, err)
	b, err := New(s, root, nil, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.RootID, "fbedit:"))
	assert.NotEqual(t, a.RootID, b.RootID)
}

func TestRecordScenario(t *testing.T) {
	s, root := recordSchema()
	e := newEditor(t, s, root, map[string]any{
		"name": "a", "count": 3, "tags": []any{"x", "y"},
	}, testConfig())

	e.SetDraft("t.name", "ab")
	e.CommitEdits()
	assert.Equal(t, map[string]any{
		"name": "ab", "count": int64(3), "tags": []any{"x", "y"},
	}, contents(t, e))

	e.SetDraft("t.tags.size", "3")
	e.CommitEdits()
	assert.Equal(t, []any{"x", "y", ""}, contents(t, e)["tags"])

	e.SetDraft("t.count", "notanumber")
	e.CommitEdits()
	assert.Equal(t, int64(3), contents(t, e)["count"])
	assert.True(t, e.FieldErrored("t.count"))
	assert.Equal(t, []string{"t.count"}, e.ErrorFields())
}

func TestScalarCommit(t *testing.T) {
	s := &reflection.Schema{}
	root := s.AddTable("Stats",
		reflection.ScalarField("b", reflection.Byte),
		reflection.ScalarField("ub", reflection.UByte),
		reflection.ScalarField("s", reflection.Short),
		reflection.ScalarField("us", reflection.UShort),
		reflection.ScalarField("i", reflection.Int),
		reflection.ScalarField("ui", reflection.UInt),
		reflection.ScalarField("l", reflection.Long),
		reflection.ScalarField("ul", reflection.ULong),
		reflection.ScalarField("f", reflection.Float),
		reflection.ScalarField("d", reflection.Double),
		reflection.ScalarField("flag", reflection.Bool),
	)
	zero := map[string]any{}
	for _, f := range root.Fields {
		zero[f.Name] = 0
	}

	tests := []struct {
		field string
		text  string
		want  any
	}{
		{"b", "-128", int64(-128)},
		{"ub", "255", int64(255)},
		{"s", "-32768", int64(-32768)},
		{"us", "65535", int64(65535)},
		{"i", "2147483647", int64(2147483647)},
		{"ui", "4294967295", int64(4294967295)},
		{"l", "-9223372036854775808", int64(-9223372036854775808)},
		{"ul", "18446744073709551615", uint64(18446744073709551615)},
		{"f", "0.25", 0.25},
		{"d", "-1e100", -1e100},
		{"flag", "true", true},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.text, func(t *testing.T) {
			e := newEditor(t, s, root, zero, testConfig())
			e.SetDraft("t."+tt.field, tt.text)
			e.CommitEdits()
			assert.True(t, e.FlatbufferModified())
			assert.Equal(t, tt.want, contents(t, e)[tt.field])
			assert.Empty(t, e.ErrorFields())
			assert.Equal(t, []string{"t." + tt.field}, e.CommittedFields())
		})
	}

	bad := []struct{ field, text string }{
		{"b", "128"},
		{"ub", "-1"},
		{"us", "65536"},
		{"ui", "1.5"},
		{"f", "1e40"},
		{"flag", "yes"},
		{"i", ""},
	}
	for _, tt := range bad {
		t.Run(tt.field+"="+tt.text, func(t *testing.T) {
			e := newEditor(t, s, root, zero, testConfig())
			before, _ := e.FlatbufferCopy()
			e.SetDraft("t."+tt.field, tt.text)
			e.CommitEdits()
			after, _ := e.FlatbufferCopy()
			assert.Equal(t, before, after)
			assert.True(t, e.FieldErrored("t."+tt.field))
			assert.False(t, e.FlatbufferModified())
			draft, ok := e.Draft("t." + tt.field)
			assert.True(t, ok)
			assert.Equal(t, tt.text, draft)
		})
	}
}

func TestStringResizeTakesOnePass(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())
	want := contents(t, e)

	e.SetDraft("t.name", "a considerably longer name")
	e.Visit(nil, CheckEdits)
	assert.True(t, e.Visit(nil, CommitEdits))
	assert.False(t, e.Visit(nil, CommitEdits))

	want["name"] = "a considerably longer name"
	assert.Equal(t, want, contents(t, e))
}

func TestNestedStringEdits(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())
	want := contents(t, e)

	e.SetDraft("t.child.name", "a much longer pet name")
	e.SetDraft("t.items[0].name", "elixir")
	e.SetDraft("t.name", "h")
	e.SetDraft("t.hp", "7")
	e.CommitEdits()

	want["child"].(map[string]any)["name"] = "a much longer pet name"
	want["items"].([]any)[0].(map[string]any)["name"] = "elixir"
	want["name"] = "h"
	want["hp"] = int64(7)
	assert.Equal(t, want, contents(t, e))
	assert.Equal(t, []string{"t.child.name", "t.hp", "t.items[0].name", "t.name"}, e.CommittedFields())

	// Committed drafts reseed from the buffer.
	_, ok := e.Draft("t.name")
	assert.False(t, ok)
}

func TestVectorGrowthIsZeroFilled(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())
	want := contents(t, e)

	e.SetDraft("t.scores.size", "4")
	e.SetDraft("t.path.size", "2")
	e.SetDraft("t.items.size", "2")
	e.CommitEdits()

	want["scores"] = []any{int64(7), int64(8), int64(0), int64(0)}
	want["path"] = append(want["path"].([]any), map[string]any{"x": 0.0, "y": 0.0, "z": 0.0})
	want["items"] = append(want["items"].([]any), map[string]any{})
	assert.Equal(t, want, contents(t, e))

	e.SetDraft("t.scores.size", "1")
	e.CommitEdits()
	assert.Equal(t, []any{int64(7)}, contents(t, e)["scores"])

	e.Visit(nil, CheckEdits)
	e.SetDraft("t.scores.size", "3")
	e.CommitEdits()
	assert.Equal(t, []any{int64(7), int64(0), int64(0)}, contents(t, e)["scores"])
}

func TestVectorShrinkThenGrowStartsFromZero(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())
	e.Visit(nil, CheckEdits)
	d, ok := e.Draft("t.scores[1]")
	require.True(t, ok)
	require.Equal(t, "8", d)

	e.SetDraft("t.scores.size", "1")
	e.CommitEdits()
	assert.Equal(t, []any{int64(7)}, contents(t, e)["scores"])
	_, ok = e.Draft("t.scores[1]")
	assert.False(t, ok)

	e.SetDraft("t.scores.size", "3")
	e.CommitEdits()
	assert.Equal(t, []any{int64(7), int64(0), int64(0)}, contents(t, e)["scores"])
	assert.False(t, e.HasPendingEdits())
}

func TestVectorShrinkForgetsElementErrors(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())
	e.SetDraft("t.scores[1]", "nope")
	e.SetDraft("t.items[0].count", "70000")
	e.Visit(nil, CheckEdits)
	require.Equal(t, []string{"t.items[0].count", "t.scores[1]"}, e.ErrorFields())

	e.SetDraft("t.scores.size", "1")
	e.SetDraft("t.items.size", "0")
	e.CommitEdits()
	assert.Empty(t, e.ErrorFields())

	e.SetDraft("t.items.size", "1")
	e.CommitEdits()
	assert.Equal(t, []any{map[string]any{}}, contents(t, e)["items"])
	assert.Empty(t, e.ErrorFields())
}

func TestGrowTableVectorKeepsElements(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())

	e.SetDraft("t.items.size", "3")
	e.CommitEdits()
	require.NoError(t, fbutil.Verify(s, root, e.Buffer()))
	items := contents(t, e)["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, map[string]any{"name": "potion", "count": int64(3)}, items[0])
	assert.Equal(t, map[string]any{}, items[1])
	assert.Equal(t, map[string]any{}, items[2])
}

func TestVectorSizeValidation(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())
	for _, text := range []string{"-1", "x", "100000000"} {
		e.SetDraft("t.scores.size", text)
		e.CommitEdits()
		assert.True(t, e.FieldErrored("t.scores.size"), text)
		assert.Len(t, contents(t, e)["scores"], 2)
	}
}

func TestVectorElementEdits(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())

	e.SetDraft("t.scores[1]", "-5")
	e.SetDraft("t.path[0]", "< 4, 5.5, 6 >")
	e.CommitEdits()
	v := contents(t, e)
	assert.Equal(t, []any{int64(7), int64(-5)}, v["scores"])
	assert.Equal(t, map[string]any{"x": 4.0, "y": 5.5, "z": 6.0}, v["path"].([]any)[0])
}

func TestStructFieldCommit(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())

	e.Visit(nil, CheckEdits)
	draft, ok := e.Draft("t.pos")
	require.True(t, ok)
	assert.Equal(t, "< 1, 2, 3 >", draft)

	e.SetDraft("t.pos", "< 1, 2 >")
	e.CommitEdits()
	assert.True(t, e.FieldErrored("t.pos"))
	assert.False(t, e.FlatbufferModified())

	e.SetDraft("t.pos", "<-1,0.5,8>")
	e.CommitEdits()
	assert.False(t, e.FieldErrored("t.pos"))
	assert.Equal(t, map[string]any{"x": -1.0, "y": 0.5, "z": 8.0}, contents(t, e)["pos"])
}

func TestUnionPayloadEdit(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())

	e.SetDraft("t.gear.damage", "-3")
	e.SetDraft("t.gear_type", "2")
	e.CommitEdits()
	v := contents(t, e)
	assert.Equal(t, map[string]any{"damage": int64(-3)}, v["gear"])
	// The selector is read-only.
	assert.Equal(t, int64(1), v["gear_type"])
}

func TestEnumFieldAcceptsNames(t *testing.T) {
	s, root := entitySchema()
	e := newEditor(t, s, root, entityData(), testConfig())

	e.SetDraft("t.layers", "Water | Air")
	e.CommitEdits()
	assert.Equal(t, int64(6), contents(t, e)["layers"])

	e.SetDraft("t.layers", "Lava")
	e.CommitEdits()
	assert.True(t, e.FieldErrored("t.layers"))
	assert.Equal(t, int64(6), contents(t, e)["layers"])
}

func TestModifiedFlagLifecycle(t *testing.T) {
	s, root := recordSchema()
	e := newEditor(t, s, root, map[string]any{"name": "a", "count": 1}, testConfig())
	assert.False(t, e.FlatbufferModified())

	e.SetDraft("t.count", "-4")
	e.CommitEdits()
	assert.False(t, e.FlatbufferModified())

	e.SetDraft("t.count", "4")
	e.CommitEdits()
	assert.True(t, e.FlatbufferModified())
	assert.NotEmpty(t, e.CommittedFields())

	e.ClearFlatbufferModifiedFlag()
	assert.False(t, e.FlatbufferModified())
	assert.Empty(t, e.CommittedFields())

	e.SetDraft("t.name", "bb")
	e.CommitEdits()
	assert.True(t, e.FlatbufferModified())
	require.NoError(t, e.SetFlatbufferData(nil))
	assert.False(t, e.FlatbufferModified())
}

func TestRevertEdits(t *testing.T) {
	s, root := recordSchema()
	e := newEditor(t, s, root, map[string]any{"name": "a", "count": 1}, testConfig())

	e.SetDraft("t.name", "zzz")
	e.SetDraft("t.count", "bad")
	e.Visit(nil, CheckEdits)
	assert.True(t, e.HasPendingEdits())
	assert.True(t, e.FieldErrored("t.count"))

	e.RevertEdits()
	assert.Empty(t, e.ErrorFields())
	e.Visit(nil, CheckEdits)
	assert.False(t, e.HasPendingEdits())
	e.CommitEdits()
	assert.Equal(t, "a", contents(t, e)["name"])
}

func TestResizeDisabled(t *testing.T) {
	s, root := recordSchema()
	cfg := testConfig()
	cfg.AllowResize = false
	e := newEditor(t, s, root, map[string]any{"name": "a", "tags": []any{"x"}}, cfg)

	e.SetDraft("t.name", "abc")
	e.SetDraft("t.tags.size", "4")
	e.CommitEdits()
	assert.Equal(t, map[string]any{"name": "a", "tags": []any{"x"}}, contents(t, e))
	assert.False(t, e.FlatbufferModified())
}
